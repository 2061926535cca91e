package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Constructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"invalid request", InvalidRequestWithError(errors.New("bad json")), http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format"},
		{"validation", ErrValidation("date_from", "must be YYYY-MM-DD"), http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed"},
		{"not found", NotFoundError("report"), http.StatusNotFound, "NOT_FOUND", "report not found"},
		{"dataset missing", ErrDatasetNotFound, http.StatusNotFound, "DATASET_NOT_FOUND", "No dataset has been loaded"},
		{"payload too large", PayloadTooLargeError(1024), http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Uploaded file exceeds the size limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "processes", Message: "unknown process"},
		{Field: "date_to", Message: "must not precede date_from"},
	})

	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
	assert.Equal(t, "processes", details.Errors[0].Field)
}

func TestAppError(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := NewParsingError("workbook could not be read", cause).WithContext("file", "movs.xlsx")

	assert.Equal(t, "[PARSING] workbook could not be read: zip: not a valid zip file", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "movs.xlsx", err.Context["file"])

	var appErr *AppError
	wrapped := fmt.Errorf("load: %w", err)
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, ErrTypeParsing, appErr.Type)

	assert.Equal(t, "[CONFIG] bad timezone", NewConfigError("bad timezone", nil).Error())
	assert.Equal(t, ErrTypeStorage, NewStorageError("bad", nil).Type)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusUnprocessableEntity, TypeWorkbookUnreadable, "Unreadable Workbook", "bad file", "/api/dataset").
		WithExtension("trace_id", "abc").
		WithExtension("status", "ignored")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeWorkbookUnreadable, body["type"])
	assert.Equal(t, float64(http.StatusUnprocessableEntity), body["status"], "standard members win over extensions")
	assert.Equal(t, "abc", body["trace_id"])
	assert.Equal(t, "/api/dataset", body["instance"])
}
