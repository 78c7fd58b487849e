package http

import (
	"net/http"
	"strings"

	"loanflow-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

// HeaderApplicantID identifies the caller on applicant routes.
const HeaderApplicantID = "X-Applicant-Id"

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type applicantReq struct {
	ApplicantID string `validate:"required,hex32"`
	LoanID      string `validate:"required"`
}

type applyReq struct {
	RequestedAmount float64 `json:"requested_amount" validate:"required,gt=0,dec2"`
}

type tenureReq struct {
	TenureMonths int `json:"tenure_months" validate:"required,gte=3,lte=36"`
}

type signReq struct {
	Signature string `json:"signature" validate:"required,max=4096"`
}

type paymentReq struct {
	Reference string `json:"reference" validate:"max=64"`
}

// caller validates the applicant header and the loan_id path param.
// Routes without a loan_id pass requireLoan=false.
func (h *LoanHandler) caller(c echo.Context, requireLoan bool) (applicantReq, error) {
	req := applicantReq{
		ApplicantID: strings.TrimSpace(c.Request().Header.Get(HeaderApplicantID)),
		LoanID:      c.Param("loan_id"),
	}
	if !requireLoan {
		req.LoanID = "-"
	}
	return req, c.Validate(&req)
}

func (h *LoanHandler) Apply(c echo.Context) error {
	who, err := h.caller(c, false)
	if err != nil {
		return validationFailed(c, err)
	}
	var req applyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Apply(c.Request().Context(), loan.ApplyInput{
		ApplicantID:     who.ApplicantID,
		RequestedAmount: req.RequestedAmount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	who, err := h.caller(c, true)
	if err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), who.LoanID, who.ApplicantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) StartValidation(c echo.Context) error {
	who, err := h.caller(c, true)
	if err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.StartValidation(c.Request().Context(), who.LoanID, who.ApplicantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, dto)
}

func (h *LoanHandler) SelectTenure(c echo.Context) error {
	who, err := h.caller(c, true)
	if err != nil {
		return validationFailed(c, err)
	}
	var req tenureReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.SelectTenure(c.Request().Context(), who.LoanID, who.ApplicantID, loan.SelectTenureInput{TenureMonths: req.TenureMonths})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ViewSanctionLetter(c echo.Context) error {
	who, err := h.caller(c, true)
	if err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.ViewSanctionLetter(c.Request().Context(), who.LoanID, who.ApplicantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Sign(c echo.Context) error {
	who, err := h.caller(c, true)
	if err != nil {
		return validationFailed(c, err)
	}
	var req signReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Sign(c.Request().Context(), who.LoanID, who.ApplicantID, loan.SignInput{Signature: req.Signature})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) SubmitPayment(c echo.Context) error {
	who, err := h.caller(c, true)
	if err != nil {
		return validationFailed(c, err)
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.SubmitPayment(c.Request().Context(), who.LoanID, who.ApplicantID, loan.SubmitPaymentInput{Reference: req.Reference})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Cancel(c echo.Context) error {
	who, err := h.caller(c, true)
	if err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Cancel(c.Request().Context(), who.LoanID, who.ApplicantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
