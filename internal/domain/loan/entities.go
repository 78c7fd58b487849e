package loan

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending              Status = "pending"
	StatusValidating           Status = "validating"
	StatusApproved             Status = "approved"
	StatusTenureSelection      Status = "tenure_selection"
	StatusSanctionLetterViewed Status = "sanction_letter_viewed"
	StatusSignaturePending     Status = "signature_pending"
	StatusPaymentPending       Status = "payment_pending"
	StatusPaymentValidation    Status = "payment_validation"
	StatusProcessing           Status = "processing"
	StatusCompleted            Status = "completed"
	StatusRejected             Status = "rejected"
	StatusCancelled            Status = "cancelled"
	StatusPaymentFailed        Status = "payment_failed"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// AwaitingPaymentStatuses are the pre-processing states in which the
// applicant still owes the charges.
var AwaitingPaymentStatuses = []Status{
	StatusApproved,
	StatusTenureSelection,
	StatusSanctionLetterViewed,
	StatusSignaturePending,
	StatusPaymentPending,
}

type Loan struct {
	ID          uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID      string `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	Code        string `gorm:"size:16;index:idx_loans_code" json:"code"`
	ApplicantID string `gorm:"size:32;index:idx_loans_applicant" json:"applicant_id"`

	RequestedAmount    float64 `gorm:"type:decimal(18,2)" json:"requested_amount"`
	ApprovedAmount     float64 `gorm:"type:decimal(18,2)" json:"approved_amount"`
	DepositAmount      float64 `gorm:"type:decimal(18,2)" json:"deposit_amount"`
	FileCharge         float64 `gorm:"type:decimal(18,2)" json:"file_charge"`
	PlatformFee        float64 `gorm:"type:decimal(18,2)" json:"platform_fee"`
	Tax                float64 `gorm:"type:decimal(18,2)" json:"tax"`
	TotalPaymentAmount float64 `gorm:"type:decimal(18,2)" json:"total_payment_amount"`

	TenureMonths  int     `json:"tenure_months"`
	InterestRate  float64 `gorm:"type:decimal(6,2)" json:"interest_rate"`
	EMIAmount     float64 `gorm:"column:emi_amount;type:decimal(18,2)" json:"emi_amount"`
	TotalInterest float64 `gorm:"type:decimal(18,2)" json:"total_interest"`
	TotalAmount   float64 `gorm:"type:decimal(18,2)" json:"total_amount"`

	Status               Status        `gorm:"size:32;index:idx_loans_status" json:"status"`
	PaymentStatus        PaymentStatus `gorm:"size:16" json:"payment_status"`
	PaymentID            string        `gorm:"size:36" json:"payment_id,omitempty"`
	PaymentReference     string        `gorm:"size:64" json:"payment_reference,omitempty"`
	Signature            string        `gorm:"type:text" json:"-"`
	SanctionLetterViewed bool          `json:"sanction_letter_viewed"`
	DepositPaid          bool          `json:"deposit_paid"`
	Remarks              string        `gorm:"type:text" json:"remarks,omitempty"`

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

	// Version is bumped on every save and checked on update.
	Version   int64          `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Charges is the charge breakdown copied onto a loan from the admin config.
type Charges struct {
	DepositAmount float64
	FileCharge    float64
	PlatformFee   float64
	Tax           float64
}

func (c Charges) Total() float64 {
	return c.DepositAmount + c.FileCharge + c.PlatformFee + c.Tax
}

// EMI is the repayment plan for a chosen tenure.
type EMI struct {
	TenureMonths  int
	InterestRate  float64
	Amount        float64
	TotalInterest float64
	TotalAmount   float64
}

func ptr(t time.Time) *time.Time { return &t }
