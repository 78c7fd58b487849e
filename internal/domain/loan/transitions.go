package loan

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinTenureMonths = 3
	MaxTenureMonths = 36
)

// edges lists every status move the lifecycle allows.
var edges = map[Status][]Status{
	StatusPending:              {StatusValidating, StatusRejected, StatusCancelled},
	StatusValidating:           {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:             {StatusTenureSelection, StatusRejected, StatusCancelled},
	StatusTenureSelection:      {StatusTenureSelection, StatusSanctionLetterViewed, StatusRejected, StatusCancelled},
	StatusSanctionLetterViewed: {StatusPaymentPending, StatusCancelled},
	StatusSignaturePending:     {StatusPaymentPending, StatusPaymentValidation, StatusCancelled},
	StatusPaymentPending:       {StatusPaymentValidation, StatusCancelled},
	StatusPaymentValidation:    {StatusProcessing, StatusPaymentFailed},
	StatusPaymentFailed:        {StatusPaymentValidation},
	StatusProcessing:           {StatusCompleted},
}

func CanMove(from, to Status) bool {
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (l *Loan) moveTo(to Status) error {
	if !CanMove(l.Status, to) {
		return &Error{Code: CodeIllegalEdge, Msg: fmt.Sprintf("illegal status edge %s -> %s", l.Status, to)}
	}
	l.Status = to
	return nil
}

func (l *Loan) in(statuses ...Status) bool {
	for _, s := range statuses {
		if l.Status == s {
			return true
		}
	}
	return false
}

func (l *Loan) HasSignature() bool { return strings.TrimSpace(l.Signature) != "" }

// NewApplication builds a pending loan. LoanID and Code are assigned by the caller.
func NewApplication(applicantID string, requested float64, now time.Time) (*Loan, error) {
	if strings.TrimSpace(applicantID) == "" {
		return nil, Invalid("applicant id is required")
	}
	if requested <= 0 {
		return nil, Invalid("requested amount must be greater than zero")
	}
	return &Loan{
		ApplicantID:     applicantID,
		RequestedAmount: requested,
		Status:          StatusPending,
		AppliedAt:       ptr(now),
	}, nil
}

func (l *Loan) StartValidation(now time.Time) error {
	if l.Status != StatusPending {
		return wrongState("validate", l.Status)
	}
	if err := l.moveTo(StatusValidating); err != nil {
		return err
	}
	l.ValidatedAt = ptr(now)
	return nil
}

// Approve applies the automated decision. amount must already be clamped.
func (l *Loan) Approve(amount float64, c Charges, now time.Time) error {
	if l.Status != StatusValidating {
		return wrongState("approve", l.Status)
	}
	if amount <= 0 {
		return Invalid("approved amount must be greater than zero")
	}
	if err := l.moveTo(StatusApproved); err != nil {
		return err
	}
	l.ApprovedAmount = amount
	l.applyCharges(c)
	l.PaymentStatus = PaymentPending
	l.ApprovedAt = ptr(now)
	return nil
}

func (l *Loan) applyCharges(c Charges) {
	l.DepositAmount = c.DepositAmount
	l.FileCharge = c.FileCharge
	l.PlatformFee = c.PlatformFee
	l.Tax = c.Tax
	l.TotalPaymentAmount = c.Total()
}

func (l *Loan) SelectTenure(e EMI) error {
	if !l.in(StatusApproved, StatusTenureSelection) {
		return wrongState("select tenure for", l.Status)
	}
	if e.TenureMonths < MinTenureMonths || e.TenureMonths > MaxTenureMonths {
		return Invalid("tenure must be between %d and %d months", MinTenureMonths, MaxTenureMonths)
	}
	if err := l.moveTo(StatusTenureSelection); err != nil {
		return err
	}
	l.TenureMonths = e.TenureMonths
	l.InterestRate = e.InterestRate
	l.EMIAmount = e.Amount
	l.TotalInterest = e.TotalInterest
	l.TotalAmount = e.TotalAmount
	return nil
}

// ViewSanctionLetter marks the letter as viewed from any status and reports
// whether the loan advanced.
func (l *Loan) ViewSanctionLetter() (bool, error) {
	l.SanctionLetterViewed = true
	if l.Status != StatusTenureSelection {
		return false, nil
	}
	if err := l.moveTo(StatusSanctionLetterViewed); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Loan) Sign(signature string, now time.Time) error {
	if !l.in(StatusSanctionLetterViewed, StatusSignaturePending) {
		return wrongState("sign", l.Status)
	}
	if strings.TrimSpace(signature) == "" {
		return Invalid("signature is required")
	}
	if err := l.moveTo(StatusPaymentPending); err != nil {
		return err
	}
	l.Signature = signature
	l.SignedAt = ptr(now)
	return nil
}

// SubmitPayment records the charges payment. A loan in payment_failed is reset
// first so the retry starts from clean payment fields.
func (l *Loan) SubmitPayment(paymentID, reference string, c Charges, processingDays int, now time.Time) error {
	if !l.in(StatusSignaturePending, StatusPaymentPending, StatusPaymentFailed) {
		return wrongState("submit payment for", l.Status)
	}
	if !l.HasSignature() {
		return Invalid("loan must be signed before payment")
	}
	retrying := l.Status == StatusPaymentFailed
	if l.DepositPaid && !retrying {
		return wrongState("submit payment for already paid", l.Status)
	}
	if paymentID == "" {
		return Invalid("payment id is required")
	}
	if retrying {
		l.PaymentID = ""
		l.PaymentStatus = ""
		l.PaidAt = nil
	}
	if err := l.moveTo(StatusPaymentValidation); err != nil {
		return err
	}
	l.applyCharges(c)
	l.DepositPaid = true
	l.PaymentID = paymentID
	l.PaymentReference = reference
	l.PaymentStatus = PaymentPending
	l.PaidAt = ptr(now)
	l.ProcessingStartedAt = ptr(now)
	l.ExpectedCompletionAt = ptr(now.Add(days(processingDays)))
	return nil
}

func (l *Loan) ApprovePayment(processingDays int, now time.Time) error {
	if l.Status != StatusPaymentValidation {
		return wrongState("approve payment for", l.Status)
	}
	if err := l.moveTo(StatusProcessing); err != nil {
		return err
	}
	l.PaymentStatus = PaymentSuccess
	l.ProcessingStartedAt = ptr(now)
	l.ExpectedCompletionAt = ptr(now.Add(days(processingDays)))
	return nil
}

func (l *Loan) RejectPayment(remark string) error {
	if l.Status != StatusPaymentValidation {
		return wrongState("reject payment for", l.Status)
	}
	if strings.TrimSpace(remark) == "" {
		return Invalid("rejection remark is required")
	}
	if err := l.moveTo(StatusPaymentFailed); err != nil {
		return err
	}
	l.PaymentStatus = PaymentFailed
	l.DepositPaid = false
	l.Remarks = remark
	return nil
}

func (l *Loan) Complete(now time.Time) error {
	if l.Status != StatusProcessing {
		return wrongState("complete", l.Status)
	}
	if err := l.moveTo(StatusCompleted); err != nil {
		return err
	}
	l.CompletedAt = ptr(now)
	return nil
}

func (l *Loan) Reject(remark string, now time.Time) error {
	if !l.in(StatusPending, StatusValidating, StatusApproved, StatusTenureSelection) {
		return wrongState("reject", l.Status)
	}
	if strings.TrimSpace(remark) == "" {
		return Invalid("rejection remark is required")
	}
	if err := l.moveTo(StatusRejected); err != nil {
		return err
	}
	l.Remarks = remark
	l.RejectedAt = ptr(now)
	return nil
}

func (l *Loan) Cancel(now time.Time) error {
	if !l.in(StatusPending, StatusValidating, StatusApproved, StatusTenureSelection,
		StatusSanctionLetterViewed, StatusSignaturePending, StatusPaymentPending) {
		return wrongState("cancel", l.Status)
	}
	if err := l.moveTo(StatusCancelled); err != nil {
		return err
	}
	l.CancelledAt = ptr(now)
	return nil
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }
