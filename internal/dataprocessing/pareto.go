package dataprocessing

import (
	"sort"

	"github.com/shopspring/decimal"

	"stockpulse/pkg/contracts/domain"
)

// DefaultParetoLimit is how many materials the ranking keeps
const DefaultParetoLimit = 20

// vitalFewThreshold is the cumulative share closing the vital few
var vitalFewThreshold = decimal.NewFromInt(80)

// CalculatePareto ranks materials by total moved quantity across all kinds
// and keeps the first limit entries. Cumulative shares are of the grand
// total, so the last kept entry reaches 100 only when nothing was cut.
func CalculatePareto(records []domain.MovementRecord, limit int) []domain.ParetoEntry {
	index := make(map[string]int)
	var ranked []domain.ParetoEntry
	grand := decimal.Zero

	for _, rec := range records {
		i, ok := index[rec.MaterialName]
		if !ok {
			i = len(ranked)
			index[rec.MaterialName] = i
			ranked = append(ranked, domain.ParetoEntry{Name: rec.MaterialName})
		}
		ranked[i].Value += rec.Quantity
		grand = grand.Add(decimal.NewFromFloat(rec.Quantity))
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Value > ranked[j].Value })
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	hundred := decimal.NewFromInt(100)
	running := decimal.Zero
	for i := range ranked {
		before := decimal.Zero
		if !grand.IsZero() {
			before = running.Div(grand).Mul(hundred)
		}
		running = running.Add(decimal.NewFromFloat(ranked[i].Value))

		if grand.IsZero() {
			ranked[i].CumPercentage = 0
		} else {
			ranked[i].CumPercentage = int(running.Div(grand).Mul(hundred).Round(0).IntPart())
		}
		ranked[i].VitalFew = !grand.IsZero() && before.LessThan(vitalFewThreshold)
	}
	if ranked == nil {
		ranked = []domain.ParetoEntry{}
	}
	return ranked
}
