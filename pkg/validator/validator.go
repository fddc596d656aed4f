package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator using go-playground/validator.
// Handlers run every bound request DTO through it before touching the
// queue or the job ledger.
type CustomValidator struct {
	v *validator.Validate
}

// New creates the validator echo invokes for request DTOs.
func New() *CustomValidator {
	return &CustomValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks struct tags and wraps failures so handlers can surface
// them as bad-request responses.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return fmt.Errorf("request validation failed: %w", err)
	}
	return nil
}
