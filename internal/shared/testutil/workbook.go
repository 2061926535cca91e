package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// MovementHeaders is the header row of a typical movement export
var MovementHeaders = []any{
	"Fecha", "Proceso", "Cantidad", "Codigo Material", "Items", "Nombre Recibe", "Nombre Entrega",
}

// NewWorkbook builds an in-memory workbook whose first sheet holds rows
func NewWorkbook(t *testing.T, sheet string, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	return f
}

// WorkbookBytes serializes and closes f
func WorkbookBytes(t *testing.T, f *excelize.File) []byte {
	t.Helper()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

// MovementWorkbook returns xlsx bytes with MovementHeaders followed by rows
func MovementWorkbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	all := make([][]any, 0, len(rows)+1)
	all = append(all, MovementHeaders)
	all = append(all, rows...)
	return WorkbookBytes(t, NewWorkbook(t, "Movimientos", all))
}
