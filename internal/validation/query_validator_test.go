package validation

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "stockpulse/internal/errors"
	"stockpulse/pkg/contracts/domain"
)

func TestQueryValidator_Validate(t *testing.T) {
	tests := []struct {
		name       string
		state      domain.QueryState
		wantFields []string
	}{
		{
			name:  "empty query",
			state: domain.QueryState{},
		},
		{
			name: "full valid query",
			state: domain.QueryState{
				DateFrom:  "2024-01-01",
				DateTo:    "2024-03-31",
				Processes: []domain.Process{domain.ProcessEntrada, domain.ProcessSinProceso},
				Materials: []string{"Cable"},
				Managers:  []string{"Ana"},
				Periods:   []string{"202401"},
			},
		},
		{
			name:       "malformed dates",
			state:      domain.QueryState{DateFrom: "01/02/2024", DateTo: "2024-02-30"},
			wantFields: []string{"date_from", "date_to"},
		},
		{
			name:       "unknown process",
			state:      domain.QueryState{Processes: []domain.Process{domain.ProcessSalida, "Traslado"}},
			wantFields: []string{"processes[1]"},
		},
		{
			name:       "blank material",
			state:      domain.QueryState{Materials: []string{""}},
			wantFields: []string{"materials[0]"},
		},
		{
			name:       "bad periods",
			state:      domain.QueryState{Periods: []string{"2024-1", "20241"}},
			wantFields: []string{"periods[0]", "periods[1]"},
		},
	}

	v := NewQueryValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.state)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			fields := make([]string, 0, len(details.Errors))
			for _, fe := range details.Errors {
				fields = append(fields, fe.Field)
				assert.NotEmpty(t, fe.Message)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestQueryValidator_ProcessMessage(t *testing.T) {
	err := NewQueryValidator().Validate(domain.QueryState{Processes: []domain.Process{"X"}})

	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr))
	msg := apiErr.Details.(apierrors.ValidationErrors).Errors[0].Message
	assert.Contains(t, msg, "Entrada")
	assert.Contains(t, msg, "Sin Proceso")
}

func TestUploadValidator_ValidateStatuses(t *testing.T) {
	v := NewUploadValidator(8)
	assert.Equal(t, int64(8), v.MaxBytes())

	tests := []struct {
		name       string
		fileName   string
		data       []byte
		wantStatus int
	}{
		{"ok", "movs.xlsx", []byte("PK\x03\x04"), 0},
		{"unknown extension is left to the parser", "movs.pdf", []byte("%PDF"), 0},
		{"missing name", " ", []byte("x"), http.StatusBadRequest},
		{"empty", "movs.csv", nil, http.StatusBadRequest},
		{"too large", "movs.csv", []byte("123456789"), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.fileName, tt.data)
			if tt.wantStatus == 0 {
				assert.NoError(t, err)
				return
			}
			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
		})
	}
}
