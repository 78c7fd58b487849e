package http

import "github.com/labstack/echo/v4"

// Register mounts every route. mw wraps the mutating applicant and admin
// groups, typically the idempotency middleware.
func Register(e *echo.Echo, h *Handler, loans *LoanHandler, admin *AdminHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	g := e.Group("/loans", mw...)
	g.POST("", loans.Apply)
	g.GET("/:loan_id", loans.GetLoan)
	g.POST("/:loan_id/validate", loans.StartValidation)
	g.POST("/:loan_id/tenure", loans.SelectTenure)
	g.POST("/:loan_id/sanction-letter", loans.ViewSanctionLetter)
	g.POST("/:loan_id/sign", loans.Sign)
	g.POST("/:loan_id/payment", loans.SubmitPayment)
	g.POST("/:loan_id/cancel", loans.Cancel)

	a := e.Group("/admin/loans", mw...)
	a.GET("", admin.ListLoans)
	a.GET("/:loan_id", admin.GetLoan)
	a.GET("/:loan_id/reviews", admin.Reviews)
	a.POST("/:loan_id/payment/approve", admin.ApprovePayment)
	a.POST("/:loan_id/payment/reject", admin.RejectPayment)
	a.POST("/:loan_id/complete", admin.Complete)
	a.POST("/:loan_id/reject", admin.Reject)
}
