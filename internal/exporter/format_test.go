package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0, expected: "0"},
		{name: "positive integer", input: 123, expected: "123"},
		{name: "negative stock", input: -456, expected: "-456"},
		{name: "one decimal", input: 3.5, expected: "3.5"},
		{name: "rounded to two decimals", input: 1.0 / 3, expected: "0.33"},
		{name: "rounds half up", input: 2.675, expected: "2.68"},
		{name: "trailing zeros dropped", input: 10.10, expected: "10.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatQuantity(tt.input))
		})
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "nil", input: nil, expected: ""},
		{name: "string", input: "Cable", expected: "Cable"},
		{name: "float", input: 70.0, expected: "70"},
		{name: "int", input: 12, expected: "12"},
		{name: "other", input: true, expected: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatCell(tt.input))
		})
	}
}
