package dataprocessing

import (
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/pkg/contracts/domain"
)

func TestParseDate(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	n := NewNormalizer(bogota)

	tests := []struct {
		name  string
		input any
		want  string // YYYY-MM-DD, "" for absent
	}{
		{"day month year slash", "15/03/2024", "2024-03-15"},
		{"day month year dash", "15-03-2024", "2024-03-15"},
		{"single digits", "1/2/2024", "2024-02-01"},
		{"ambiguous keeps day first", "03/04/2024", "2024-04-03"},
		{"with trailing time", "02/01/2024 08:30", "2024-01-02"},
		{"month out of range", "15/13/2024", ""},
		{"day beyond month", "31/02/2024", ""},
		{"iso date", "2024-03-15", "2024-03-15"},
		{"iso timestamp", "2024-03-15T23:30:00Z", "2024-03-15"},
		{"textual", "March 15, 2024", "2024-03-15"},
		{"serial number", 45366.0, "2024-03-15"},
		{"serial with fraction", 45366.75, "2024-03-15"},
		{"serial as text", "45366", "2024-03-15"},
		{"year and month only", "2024.03", ""},
		{"zero serial", 0.0, ""},
		{"nan serial", math.NaN(), ""},
		{"time value", time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC), "2024-03-15"},
		{"zero time", time.Time{}, ""},
		{"garbage", "not a date", ""},
		{"blank", "   ", ""},
		{"nil", nil, ""},
		{"bool", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.ParseDate(tt.input)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			assert.Equal(t, 12, got.Hour())
			assert.Zero(t, got.Minute())
			assert.Equal(t, bogota, got.Location())
		})
	}
}

func TestParseDate_DayMonthYearPrecedence(t *testing.T) {
	got := NewNormalizer(nil).ParseDate("15/03/2024")
	require.NotNil(t, got)
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 2024, got.Year())
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"float", 10.0, 10},
		{"int", 7, 7},
		{"numeric string", "12", 12},
		{"padded decimal", " 3.5 ", 3.5},
		{"negative", "-4", -4},
		{"leading number", "12 und", 12},
		{"decimal comma stops at comma", "1,5", 1},
		{"text", "abc", 0},
		{"empty", "", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
		{"nan", math.NaN(), 0},
		{"infinite", math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceQuantity(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(time.UTC)

	t.Run("full row", func(t *testing.T) {
		rec := n.Normalize(domain.RawRow{
			"Fecha":           "01/01/2024",
			"Cantidad":        "10",
			"Entrada":         10.0,
			"Salida":          nil,
			"Codigo Material": 1001.0,
			"Items":           " Cable UTP ",
			"Nombre Recibe":   "Ana",
			"Nombre Entrega":  "Luis",
		})
		require.NotNil(t, rec.Date)
		assert.Equal(t, "2024-01-01", rec.DayKey())
		assert.Equal(t, 10.0, rec.Quantity)
		assert.False(t, rec.QuantityMissing)
		assert.Equal(t, 10.0, rec.EntryQuantity)
		assert.Zero(t, rec.ExitQuantity)
		assert.Equal(t, "1001", rec.MaterialCode)
		assert.Equal(t, "Cable UTP", rec.MaterialName)
		assert.Equal(t, "Cable UTP", rec.SourceMaterialName)
		assert.Equal(t, "Ana", rec.ReceiverName)
		assert.Equal(t, "Luis", rec.SenderName)
	})

	t.Run("missing fields get sentinels", func(t *testing.T) {
		rec := n.Normalize(domain.RawRow{"Proceso": "Entrada"})
		assert.Nil(t, rec.Date)
		assert.Zero(t, rec.Quantity)
		assert.True(t, rec.QuantityMissing)
		assert.Equal(t, domain.NoMaterialCode, rec.MaterialCode)
		assert.Equal(t, domain.NoMaterialName, rec.MaterialName)
		assert.Empty(t, rec.SourceMaterialName)
		assert.Empty(t, rec.ReceiverName)
	})

	t.Run("unparsable quantity is present but zero", func(t *testing.T) {
		rec := n.Normalize(domain.RawRow{"Cantidad": "n/a"})
		assert.Zero(t, rec.Quantity)
		assert.False(t, rec.QuantityMissing)
	})

	t.Run("accented header falls back", func(t *testing.T) {
		rec := n.Normalize(domain.RawRow{"CÓDIGO MATERIAL": "M-7", "items": "Poste"})
		assert.Equal(t, "M-7", rec.MaterialCode)
		assert.Equal(t, "Poste", rec.MaterialName)
	})
}
