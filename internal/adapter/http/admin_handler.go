package http

import (
	"net/http"
	"strings"

	domain "loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

// HeaderAdminID identifies the reviewer on admin routes.
const HeaderAdminID = "X-Admin-Id"

type AdminHandler struct{ uc *loan.Usecase }

func NewAdminHandler(uc *loan.Usecase) *AdminHandler { return &AdminHandler{uc: uc} }

type reviewReq struct {
	ReviewerID string `validate:"required,hex32"`
	LoanID     string `validate:"required"`
	Remark     string `json:"remark" validate:"max=500"`
}

type rejectReq struct {
	ReviewerID string `validate:"required,hex32"`
	LoanID     string `validate:"required"`
	Remark     string `json:"remark" validate:"required,max=500"`
}

type listQuery struct {
	Statuses      []domain.Status
	PaymentStatus domain.PaymentStatus `validate:"omitempty,oneof=pending success failed"`
}

// bindReview fills the reviewer from the header and the loan from the path,
// then decodes the optional JSON body into dst.
func bindReview(c echo.Context, dst any, reviewer, loanID *string) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	*reviewer = strings.TrimSpace(c.Request().Header.Get(HeaderAdminID))
	*loanID = c.Param("loan_id")
	return c.Validate(dst)
}

func (h *AdminHandler) ListLoans(c echo.Context) error {
	q := listQuery{PaymentStatus: domain.PaymentStatus(c.QueryParam("payment_status"))}
	for _, s := range strings.Split(c.QueryParam("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			q.Statuses = append(q.Statuses, domain.Status(s))
		}
	}
	if err := c.Validate(&q); err != nil {
		return validationFailed(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), domain.Filter{Statuses: q.Statuses, PaymentStatus: q.PaymentStatus})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": out, "count": len(out)})
}

func (h *AdminHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.AdminGet(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Reviews(c echo.Context) error {
	out, err := h.uc.Reviews(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"reviews": out})
}

func (h *AdminHandler) ApprovePayment(c echo.Context) error {
	var req reviewReq
	if err := bindReview(c, &req, &req.ReviewerID, &req.LoanID); err != nil {
		return h.bindFailed(c, err)
	}
	dto, err := h.uc.ApprovePayment(c.Request().Context(), req.LoanID, loan.ReviewInput{ReviewerID: req.ReviewerID, Remark: req.Remark})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) RejectPayment(c echo.Context) error {
	var req rejectReq
	if err := bindReview(c, &req, &req.ReviewerID, &req.LoanID); err != nil {
		return h.bindFailed(c, err)
	}
	dto, err := h.uc.RejectPayment(c.Request().Context(), req.LoanID, loan.ReviewInput{ReviewerID: req.ReviewerID, Remark: req.Remark})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Complete(c echo.Context) error {
	var req reviewReq
	if err := bindReview(c, &req, &req.ReviewerID, &req.LoanID); err != nil {
		return h.bindFailed(c, err)
	}
	dto, err := h.uc.Complete(c.Request().Context(), req.LoanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Reject(c echo.Context) error {
	var req rejectReq
	if err := bindReview(c, &req, &req.ReviewerID, &req.LoanID); err != nil {
		return h.bindFailed(c, err)
	}
	dto, err := h.uc.Reject(c.Request().Context(), req.LoanID, loan.ReviewInput{ReviewerID: req.ReviewerID, Remark: req.Remark})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) bindFailed(c echo.Context, err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		return badRequest(c, he.Message.(string))
	}
	return validationFailed(c, err)
}
