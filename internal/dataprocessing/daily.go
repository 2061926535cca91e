package dataprocessing

import (
	"sort"

	"stockpulse/pkg/contracts/domain"
)

// CalculateDailyBreakdown totals quantity per process for each calendar day,
// ascending by date. Undated records are left out of this view only.
func CalculateDailyBreakdown(records []domain.MovementRecord) []domain.DailyBreakdown {
	byDay := make(map[string]*domain.DailyBreakdown)
	for _, rec := range records {
		day := rec.DayKey()
		if day == "" {
			continue
		}
		row, ok := byDay[day]
		if !ok {
			row = &domain.DailyBreakdown{Date: day}
			byDay[day] = row
		}
		row.Add(rec.Process, rec.Quantity)
	}

	days := make([]domain.DailyBreakdown, 0, len(byDay))
	for _, row := range byDay {
		days = append(days, *row)
	}
	// YYYY-MM-DD sorts chronologically as text
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
