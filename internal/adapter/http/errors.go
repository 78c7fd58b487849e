package http

import (
	"net/http"

	"loanflow-backend/internal/domain/loan"

	"github.com/labstack/echo/v4"
)

var statusByCode = map[loan.Code]int{
	loan.CodeWrongState:       http.StatusConflict,
	loan.CodeIllegalEdge:      http.StatusConflict,
	loan.CodeNotFound:         http.StatusNotFound,
	loan.CodeValidationFailed: http.StatusUnprocessableEntity,
	loan.CodeConcurrentUpdate: http.StatusConflict,
	loan.CodeStoreFailure:     http.StatusInternalServerError,
}

// statusOf maps a usecase error onto an HTTP status. Uncoded errors are 500.
func statusOf(err error) int {
	if s, ok := statusByCode[loan.CodeOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// writeError renders err as an ErrorResponse. Store failures hide the cause.
func writeError(c echo.Context, err error) error {
	status := statusOf(err)
	code := loan.CodeOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("request failed: %v", err)
		msg = "internal error"
		if code == "" {
			code = loan.CodeStoreFailure
		}
	}
	return c.JSON(status, ErrorResponse{Error: msg, Code: string(code)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    string(loan.CodeValidationFailed),
		Details: ToFieldErrors(err),
	})
}
