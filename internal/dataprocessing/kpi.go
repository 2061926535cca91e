package dataprocessing

import (
	"stockpulse/pkg/contracts/domain"
)

// processTotals accumulates quantity per movement kind
type processTotals struct {
	received, distributed, returned, legalized float64
}

func (t *processTotals) add(rec domain.MovementRecord) {
	switch rec.Process {
	case domain.ProcessEntrada:
		t.received += rec.Quantity
	case domain.ProcessSalida:
		t.distributed += rec.Quantity
	case domain.ProcessDevolucion:
		t.returned += rec.Quantity
	case domain.ProcessLegalizado:
		t.legalized += rec.Quantity
	}
}

// warehouseStock is what is still held centrally
func (t processTotals) warehouseStock() float64 {
	return t.received + t.returned - t.distributed
}

// fieldStock is what managers hold and have not returned or legalized
func (t processTotals) fieldStock() float64 {
	return t.distributed - t.returned - t.legalized
}

// CalculateKPIs sums quantities per kind and derives both stock balances.
// Balances may go negative on inconsistent input; that is reported as is.
func CalculateKPIs(records []domain.MovementRecord) domain.KPISet {
	var totals processTotals
	for _, rec := range records {
		totals.add(rec)
	}
	return domain.KPISet{
		MaterialRecibido:    totals.received,
		MaterialDistribuido: totals.distributed,
		Devoluciones:        totals.returned,
		Legalizaciones:      totals.legalized,
		StockAlmacen:        totals.warehouseStock(),
		StockCalle:          totals.fieldStock(),
		TotalMovimientos:    len(records),
	}
}

// Labels of the stock distribution chart
const (
	SliceWarehouse = "Stock Almacén"
	SliceField     = "En Gestores"
	SliceLegalized = "Legalizado"
	SliceReturned  = "Devuelto"
)

// CalculateStockDistribution splits the KPI totals into chart slices,
// keeping only positive ones.
func CalculateStockDistribution(kpis domain.KPISet) []domain.StockSlice {
	candidates := []domain.StockSlice{
		{Name: SliceWarehouse, Value: kpis.StockAlmacen},
		{Name: SliceField, Value: kpis.StockCalle},
		{Name: SliceLegalized, Value: kpis.Legalizaciones},
		{Name: SliceReturned, Value: kpis.Devoluciones},
	}
	slices := make([]domain.StockSlice, 0, len(candidates))
	for _, s := range candidates {
		if s.Value > 0 {
			slices = append(slices, s)
		}
	}
	return slices
}
