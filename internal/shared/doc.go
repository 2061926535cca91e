// Package shared holds helpers used across StockPulse packages that belong to
// no single layer.
//
// The testutil subpackage provides a capturing slog handler for asserting on
// log output and excelize-backed builders for movement workbook fixtures:
//
//	logger, logs := testutil.NewTestLogger(t)
//	data := testutil.MovementWorkbook(t,
//	    []any{"15/03/2024", "Entrada", 10.0, "M-1", "Cable", nil, nil},
//	)
//
// Nothing here may import business packages.
package shared
