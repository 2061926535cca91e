package exporter

import (
	"fmt"
	"strings"
	"time"

	"stockpulse/internal/dataprocessing"
	"stockpulse/pkg/contracts/domain"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a query value to a Format; empty means xlsx
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Column is one fixed report column
type Column struct {
	Header string
	Width  float64
	Value  func(domain.MaterialSummary) any
}

// Report describes a flat table derived from the material ledger
type Report struct {
	Kind       string
	SheetName  string
	FilePrefix string
	Columns    []Column
	// Select picks and orders the ledger rows; nil keeps all
	Select func([]domain.MaterialSummary) []domain.MaterialSummary
}

// InventoryReport is the full ledger with both stock balances
var InventoryReport = Report{
	Kind:       "inventory",
	SheetName:  "Inventario Stock",
	FilePrefix: "Reporte_Inventario",
	Columns: []Column{
		{Header: "Código Material", Width: 15, Value: func(m domain.MaterialSummary) any { return m.Codigo }},
		{Header: "Descripción Material", Width: 40, Value: func(m domain.MaterialSummary) any { return m.Material }},
		{Header: "Total Ingresado", Width: 15, Value: func(m domain.MaterialSummary) any { return m.Ingresado }},
		{Header: "Total Entregado", Width: 15, Value: func(m domain.MaterialSummary) any { return m.Entregado }},
		{Header: "Total Devoluciones", Width: 15, Value: func(m domain.MaterialSummary) any { return m.Devoluciones }},
		{Header: "Stock en Almacén", Width: 15, Value: func(m domain.MaterialSummary) any { return m.StockAlmacen }},
		{Header: "Stock en Calle (Gestores)", Width: 20, Value: func(m domain.MaterialSummary) any { return m.StockCalle }},
	},
}

// StockReport lists only materials with positive warehouse stock
var StockReport = Report{
	Kind:       "stock",
	SheetName:  "Stock Almacen",
	FilePrefix: "Stock_Almacen",
	Columns: []Column{
		{Header: "Código", Width: 15, Value: func(m domain.MaterialSummary) any { return m.Codigo }},
		{Header: "Material", Width: 50, Value: func(m domain.MaterialSummary) any { return m.Material }},
		{Header: "Stock Actual", Width: 15, Value: func(m domain.MaterialSummary) any { return m.StockAlmacen }},
	},
	Select: dataprocessing.InStock,
}

// Headers returns the column headers in order
func (r Report) Headers() []string {
	headers := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		headers[i] = c.Header
	}
	return headers
}

// Rows returns the selected ledger rows as cell values
func (r Report) Rows(summary []domain.MaterialSummary) [][]any {
	if r.Select != nil {
		summary = r.Select(summary)
	}
	rows := make([][]any, len(summary))
	for i, m := range summary {
		row := make([]any, len(r.Columns))
		for j, c := range r.Columns {
			row[j] = c.Value(m)
		}
		rows[i] = row
	}
	return rows
}

// FileName returns e.g. Reporte_Inventario_2024-03-15.xlsx
func (r Report) FileName(format Format, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", r.FilePrefix, now.Format("2006-01-02"), format)
}

// ReportByKind looks up a report by its Kind
func ReportByKind(kind string) (Report, bool) {
	switch kind {
	case InventoryReport.Kind:
		return InventoryReport, true
	case StockReport.Kind:
		return StockReport, true
	}
	return Report{}, false
}
