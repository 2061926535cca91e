package dataprocessing

import (
	"stockpulse/pkg/contracts/domain"
)

// AnalyzeQuality counts integrity defects of a record collection.
// Every canonical process appears in the histogram, zero or not.
func AnalyzeQuality(records []domain.MovementRecord) domain.QualityReport {
	report := domain.QualityReport{
		TotalRows:     len(records),
		ProcessCounts: make(map[domain.Process]int, len(domain.AllProcesses)),
	}
	for _, p := range domain.AllProcesses {
		report.ProcessCounts[p] = 0
	}

	dates := make(map[string]struct{})
	for _, rec := range records {
		report.ProcessCounts[rec.Process]++
		if day := rec.DayKey(); day != "" {
			dates[day] = struct{}{}
		} else {
			report.NullDates++
		}
		if rec.QuantityMissing {
			report.NullCantidad++
		}
	}
	report.UniqueDates = len(dates)
	return report
}
