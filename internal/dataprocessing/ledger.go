package dataprocessing

import (
	"sort"

	"stockpulse/pkg/contracts/domain"
)

// materialKey identifies one ledger row
type materialKey struct {
	code, name string
}

// CalculateMaterialSummary groups records by (code, name) and derives the
// per-material stock balances. Rows come out in first-seen order.
func CalculateMaterialSummary(records []domain.MovementRecord) []domain.MaterialSummary {
	index := make(map[materialKey]int)
	totals := make([]processTotals, 0)
	keys := make([]materialKey, 0)

	for _, rec := range records {
		key := materialKey{code: rec.MaterialCode, name: rec.MaterialName}
		i, ok := index[key]
		if !ok {
			i = len(keys)
			index[key] = i
			keys = append(keys, key)
			totals = append(totals, processTotals{})
		}
		totals[i].add(rec)
	}

	summary := make([]domain.MaterialSummary, len(keys))
	for i, key := range keys {
		t := totals[i]
		summary[i] = domain.MaterialSummary{
			Codigo:         key.code,
			Material:       key.name,
			Ingresado:      t.received,
			Entregado:      t.distributed,
			Devoluciones:   t.returned,
			Legalizaciones: t.legalized,
			StockAlmacen:   t.warehouseStock(),
			StockCalle:     t.fieldStock(),
		}
	}
	return summary
}

// TopStock returns up to limit ledger rows with the highest warehouse stock.
// The input slice is not reordered.
func TopStock(summary []domain.MaterialSummary, limit int) []domain.MaterialSummary {
	ranked := make([]domain.MaterialSummary, len(summary))
	copy(ranked, summary)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].StockAlmacen > ranked[j].StockAlmacen
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// InStock returns the ledger rows with positive warehouse stock, in order
func InStock(summary []domain.MaterialSummary) []domain.MaterialSummary {
	out := make([]domain.MaterialSummary, 0, len(summary))
	for _, row := range summary {
		if row.StockAlmacen > 0 {
			out = append(out, row)
		}
	}
	return out
}
