package validation

import (
	"strings"

	apierrors "stockpulse/internal/errors"
)

// UploadValidator vets uploads before they reach the parser. Format checks
// belong to the parser so that an unsupported file is reported like any
// other unreadable workbook.
type UploadValidator struct {
	maxBytes int64
}

// NewUploadValidator creates a validator with the given size limit
func NewUploadValidator(maxBytes int64) *UploadValidator {
	return &UploadValidator{maxBytes: maxBytes}
}

// MaxBytes returns the configured size limit
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// Validate checks the name and size of an upload
func (v *UploadValidator) Validate(fileName string, data []byte) error {
	if strings.TrimSpace(fileName) == "" {
		return apierrors.ErrValidation("file", "file name is required")
	}
	if int64(len(data)) > v.maxBytes {
		return apierrors.PayloadTooLargeError(v.maxBytes)
	}
	if len(data) == 0 {
		return apierrors.ErrValidation("file", "file is empty")
	}
	return nil
}
