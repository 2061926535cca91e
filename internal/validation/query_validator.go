package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "stockpulse/internal/errors"
	"stockpulse/pkg/contracts/domain"
)

// QueryValidator checks QueryState values using their struct tags
type QueryValidator struct {
	validate *validator.Validate
}

// NewQueryValidator creates a validator with the movement_process rule registered
func NewQueryValidator() *QueryValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("movement_process", isMovementProcess)

	return &QueryValidator{validate: v}
}

// Validate returns an *errors.APIError listing every invalid field, or nil
func (q *QueryValidator) Validate(state domain.QueryState) error {
	err := q.validate.Struct(state)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fieldPath(fe),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// fieldPath drops the struct name so "QueryState.processes[1]" reads "processes[1]"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// formatValidationError formats validation error messages
func formatValidationError(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
	case "movement_process":
		return fmt.Sprintf("%s must be one of: %s", field, processList())
	case "required":
		return fmt.Sprintf("%s must not be empty", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric (YYYYMM)", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func processList() string {
	names := make([]string, len(domain.AllProcesses))
	for i, p := range domain.AllProcesses {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// isMovementProcess validates that a value names a canonical process
func isMovementProcess(fl validator.FieldLevel) bool {
	return domain.IsValidProcess(domain.Process(fl.Field().String()))
}
