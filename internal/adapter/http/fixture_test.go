package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"loanflow-backend/internal/domain/charges"
	domain "loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/review"
	"loanflow-backend/internal/domain/uow"
	"loanflow-backend/internal/testutil/chargesmock"
	"loanflow-backend/internal/testutil/loanmock"
	"loanflow-backend/internal/testutil/reviewmock"
	"loanflow-backend/internal/testutil/transitionmock"
	"loanflow-backend/internal/testutil/uowmock"
	uc "loanflow-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const (
	applicant = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	stranger  = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	admin     = "cccccccccccccccccccccccccccccccc"
)

// store keeps loans and reviews in memory behind the function-field mocks.
type store struct {
	mu      sync.Mutex
	seq     uint64
	loans   map[string]domain.Loan
	reviews []review.PaymentReview

	failSave error
	lastList domain.Filter
}

func (s *store) loanRepo() *loanmock.Repo {
	get := func(_ context.Context, loanID string) (*domain.Loan, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		l, ok := s.loans[loanID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		return &l, nil
	}
	return &loanmock.Repo{
		CreateFn: func(_ context.Context, l *domain.Loan) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.seq++
			l.ID = s.seq
			s.loans[l.LoanID] = *l
			return nil
		},
		GetByLoanIDFn:          get,
		GetByLoanIDForUpdateFn: get,
		SaveFn: func(_ context.Context, l *domain.Loan) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.failSave != nil {
				return s.failSave
			}
			l.Version++
			s.loans[l.LoanID] = *l
			return nil
		},
		ListFn: func(_ context.Context, f domain.Filter) ([]domain.Loan, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.lastList = f
			var out []domain.Loan
			for _, l := range s.loans {
				if len(f.Statuses) > 0 && l.Status != f.Statuses[0] {
					continue
				}
				out = append(out, l)
			}
			return out, nil
		},
	}
}

func (s *store) reviewRepo() *reviewmock.Repo {
	return &reviewmock.Repo{
		CreateFn: func(_ context.Context, r *review.PaymentReview) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.reviews = append(s.reviews, *r)
			return nil
		},
		ListByLoanIDFn: func(_ context.Context, id uint64) ([]review.PaymentReview, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var out []review.PaymentReview
			for _, r := range s.reviews {
				if r.LoanID == id {
					out = append(out, r)
				}
			}
			return out, nil
		},
	}
}

func (s *store) get(loanID string) domain.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loans[loanID]
}

// newServer wires the real usecase over in-memory repos and mounts every route.
func newServer(t *testing.T, seed ...domain.Loan) (*echo.Echo, *store) {
	t.Helper()
	s := &store{loans: map[string]domain.Loan{}}
	for _, l := range seed {
		s.seq++
		l.ID = s.seq
		s.loans[l.LoanID] = l
	}
	cfg := charges.Config{DepositAmount: 500, FileCharge: 100, PlatformFee: 50, Tax: 9, ProcessingDays: 10}
	repos := uow.Repos{
		Loans:       s.loanRepo(),
		Reviews:     s.reviewRepo(),
		Transitions: transitionmock.New(),
		Charges:     &chargesmock.Repo{Fixed: &cfg},
	}
	log, _ := logtest.NewNullLogger()
	usecase := uc.NewUsecase(repos.Loans, uowmock.Bound(repos), uc.WithLogger(log))

	e := newEchoWithValidator()
	Register(e, NewHandler(), NewLoanHandler(usecase), NewAdminHandler(usecase))
	return e, s
}

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) io.Reader {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return bytes.NewReader([]byte(s))
	}
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func do(e *echo.Echo, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, mustJSON(body))
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func as(id string) map[string]string      { return map[string]string{HeaderApplicantID: id} }
func asAdmin(id string) map[string]string { return map[string]string{HeaderAdminID: id} }

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

func loanIn(loanID string, s domain.Status) domain.Loan {
	l := domain.Loan{
		LoanID:          loanID,
		Code:            "LN000001",
		ApplicantID:     applicant,
		RequestedAmount: 50000,
		Status:          s,
	}
	switch s {
	case domain.StatusApproved, domain.StatusTenureSelection, domain.StatusSanctionLetterViewed:
		l.ApprovedAmount = 30000
	case domain.StatusPaymentValidation:
		l.ApprovedAmount = 30000
		l.Signature = "sig"
		l.DepositPaid = true
		l.PaymentID = "pay-1"
		l.PaymentStatus = domain.PaymentPending
	}
	return l
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
