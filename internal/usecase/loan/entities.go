package loan

import (
	"time"

	domain "loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/review"
)

type ApplyInput struct {
	ApplicantID     string  `json:"applicant_id"`
	RequestedAmount float64 `json:"requested_amount"`
}

type SelectTenureInput struct {
	TenureMonths int `json:"tenure_months"`
}

type SignInput struct {
	Signature string `json:"signature"`
}

type SubmitPaymentInput struct {
	Reference string `json:"reference"`
}

// ReviewInput carries an admin decision. Remark is mandatory for rejections.
type ReviewInput struct {
	ReviewerID string `json:"reviewer_id"`
	Remark     string `json:"remark"`
}

type LoanDTO struct {
	LoanID        string               `json:"loan_id"`
	Code          string               `json:"code"`
	ApplicantID   string               `json:"applicant_id"`
	Status        string               `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status,omitempty"`

	RequestedAmount    float64 `json:"requested_amount"`
	ApprovedAmount     float64 `json:"approved_amount,omitempty"`
	DepositAmount      float64 `json:"deposit_amount,omitempty"`
	FileCharge         float64 `json:"file_charge,omitempty"`
	PlatformFee        float64 `json:"platform_fee,omitempty"`
	Tax                float64 `json:"tax,omitempty"`
	TotalPaymentAmount float64 `json:"total_payment_amount,omitempty"`

	TenureMonths  int     `json:"tenure_months,omitempty"`
	InterestRate  float64 `json:"interest_rate,omitempty"`
	EMIAmount     float64 `json:"emi_amount,omitempty"`
	TotalInterest float64 `json:"total_interest,omitempty"`
	TotalAmount   float64 `json:"total_amount,omitempty"`

	PaymentID            string `json:"payment_id,omitempty"`
	PaymentReference     string `json:"payment_reference,omitempty"`
	SignaturePresent     bool   `json:"signature_present"`
	SanctionLetterViewed bool   `json:"sanction_letter_viewed"`
	DepositPaid          bool   `json:"deposit_paid"`
	Remarks              string `json:"remarks,omitempty"`

	AppliedAt            *time.Time `json:"applied_at,omitempty"`
	ValidatedAt          *time.Time `json:"validated_at,omitempty"`
	ApprovedAt           *time.Time `json:"approved_at,omitempty"`
	SignedAt             *time.Time `json:"signed_at,omitempty"`
	PaidAt               *time.Time `json:"paid_at,omitempty"`
	ProcessingStartedAt  *time.Time `json:"processing_started_at,omitempty"`
	ExpectedCompletionAt *time.Time `json:"expected_completion_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	RejectedAt           *time.Time `json:"rejected_at,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewDTO struct {
	ReviewID   string          `json:"review_id"`
	LoanID     string          `json:"loan_id"`
	PaymentID  string          `json:"payment_id"`
	Decision   review.Decision `json:"decision"`
	Remark     string          `json:"remark,omitempty"`
	ReviewedAt time.Time       `json:"reviewed_at"`
}

func toDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:               l.LoanID,
		Code:                 l.Code,
		ApplicantID:          l.ApplicantID,
		Status:               string(l.Status),
		PaymentStatus:        l.PaymentStatus,
		RequestedAmount:      l.RequestedAmount,
		ApprovedAmount:       l.ApprovedAmount,
		DepositAmount:        l.DepositAmount,
		FileCharge:           l.FileCharge,
		PlatformFee:          l.PlatformFee,
		Tax:                  l.Tax,
		TotalPaymentAmount:   l.TotalPaymentAmount,
		TenureMonths:         l.TenureMonths,
		InterestRate:         l.InterestRate,
		EMIAmount:            l.EMIAmount,
		TotalInterest:        l.TotalInterest,
		TotalAmount:          l.TotalAmount,
		PaymentID:            l.PaymentID,
		PaymentReference:     l.PaymentReference,
		SignaturePresent:     l.HasSignature(),
		SanctionLetterViewed: l.SanctionLetterViewed,
		DepositPaid:          l.DepositPaid,
		Remarks:              l.Remarks,
		AppliedAt:            l.AppliedAt,
		ValidatedAt:          l.ValidatedAt,
		ApprovedAt:           l.ApprovedAt,
		SignedAt:             l.SignedAt,
		PaidAt:               l.PaidAt,
		ProcessingStartedAt:  l.ProcessingStartedAt,
		ExpectedCompletionAt: l.ExpectedCompletionAt,
		CompletedAt:          l.CompletedAt,
		RejectedAt:           l.RejectedAt,
		CancelledAt:          l.CancelledAt,
		Version:              l.Version,
		CreatedAt:            l.CreatedAt,
	}
}
