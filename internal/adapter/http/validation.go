package http

import (
	"errors"
	"math"
	"regexp"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

var customRules = map[string]validator.Func{
	// applicant and admin ids
	"hex32": func(fl validator.FieldLevel) bool { return reHex32.MatchString(fl.Field().String()) },
	// money carries at most cents
	"dec2": func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return math.Abs(f-math.Round(f*100)/100) < 1e-9
	},
}

var tagMessages = map[string]func(param string) string{
	"required": func(string) string { return "is required" },
	"hex32":    func(string) string { return "must be 32-char lowercase hex" },
	"dec2":     func(string) string { return "must have at most 2 decimal places" },
	"gt":       func(p string) string { return "must be greater than " + p },
	"gte":      func(p string) string { return "must be greater than or equal to " + p },
	"lte":      func(p string) string { return "must be less than or equal to " + p },
	"max":      func(p string) string { return "must be at most " + p + " characters" },
	"oneof":    func(p string) string { return "must be one of: " + p },
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()
	for tag, fn := range customRules {
		_ = v.RegisterValidation(tag, fn)
	}
	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// ToFieldErrors turns validator errors into per-field messages. Any other
// error becomes a single entry on field "_".
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		msg := e.Tag() + " validation failed"
		if render, ok := tagMessages[e.Tag()]; ok {
			msg = render(e.Param())
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}
