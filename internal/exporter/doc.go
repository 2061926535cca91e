// Package exporter renders the material ledger as downloadable reports.
//
// Two fixed reports exist:
//
// InventoryReport: every ledger row with received, delivered and returned
// totals plus both stock balances (sheet "Inventario Stock").
//
// StockReport: only rows with positive warehouse stock (sheet "Stock Almacen").
//
// Each can be written as xlsx (excelize, fixed column widths) or as UTF-8 CSV
// with a BOM so Excel opens accented headers correctly.
//
// Example usage:
//
//	exp := exporter.New(logger)
//	data, name, err := exp.Render(exporter.InventoryReport, exporter.FormatXLSX, views.MaterialSummary, time.Now())
package exporter
