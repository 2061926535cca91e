package dataprocessing

import (
	"stockpulse/pkg/contracts/domain"
)

// Dataset is the canonical form of one ingested workbook.
type Dataset struct {
	SheetName string
	Format    string
	Headers   []string
	Records   []domain.MovementRecord
}

// BuildRecords normalizes and classifies raw rows, one record per row
func BuildRecords(rows []domain.RawRow, n *Normalizer) []domain.MovementRecord {
	records := make([]domain.MovementRecord, 0, len(rows))
	for _, row := range rows {
		rec := n.Normalize(row)
		label, _ := lookupColumn(row, domain.ColumnProcess)
		Classify(&rec, label)
		records = append(records, rec)
	}
	return records
}

// Ingest parses a workbook payload and produces its movement records.
// Only file-level defects return an error.
func Ingest(fileName string, data []byte, n *Normalizer) (*Dataset, error) {
	sheet, err := ParseWorkbook(fileName, data)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		SheetName: sheet.Name,
		Format:    sheet.Format,
		Headers:   sheet.Headers,
		Records:   BuildRecords(sheet.Rows, n),
	}, nil
}
