package exporter

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apierrors "stockpulse/internal/errors"
	"stockpulse/pkg/contracts/domain"
)

// Exporter renders ledger reports as xlsx or csv
type Exporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// New creates an Exporter
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{csv: NewCSVWriter(logger), logger: logger}
}

// Export writes report rows for summary to w in the given format
func (e *Exporter) Export(w io.Writer, report Report, format Format, summary []domain.MaterialSummary) error {
	rows := report.Rows(summary)
	e.logger.Debug("exporting report",
		slog.String("report", report.Kind),
		slog.String("format", string(format)),
		slog.Int("rows", len(rows)))

	switch format {
	case FormatXLSX:
		return writeXLSX(w, report, rows)
	case FormatCSV:
		records := make([][]string, len(rows))
		for i, row := range rows {
			rec := make([]string, len(row))
			for j, v := range row {
				rec[j] = formatCell(v)
			}
			records[i] = rec
		}
		return e.csv.Write(w, WriteOptions{
			Headers:   report.Headers(),
			Records:   records,
			BOMPrefix: true,
		})
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// Render returns the encoded report and its file name
func (e *Exporter) Render(report Report, format Format, summary []domain.MaterialSummary, now time.Time) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := e.Export(&buf, report, format, summary); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), report.FileName(format, now), nil
}

// SaveToDir writes the report into dir under its dated file name
func (e *Exporter) SaveToDir(dir string, report Report, format Format, summary []domain.MaterialSummary, now time.Time) (string, error) {
	data, name, err := e.Render(report, format, summary, now)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apierrors.NewStorageError("failed to create report directory", err).WithContext("dir", dir)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", apierrors.NewStorageError("failed to write report", err).WithContext("path", path)
	}
	e.logger.Info("report saved", slog.String("path", path), slog.String("report", report.Kind))
	return path, nil
}
