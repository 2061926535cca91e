package dataprocessing

import (
	"sort"

	"stockpulse/pkg/contracts/domain"
)

// CalculateManagerDistribution attributes Salida quantities to the receiver
// and Legalizado quantities to the sender. Sorted by delivered amount,
// descending; ties keep first-seen order.
func CalculateManagerDistribution(records []domain.MovementRecord) []domain.ManagerDistribution {
	index := make(map[string]int)
	var out []domain.ManagerDistribution

	entry := func(name string) *domain.ManagerDistribution {
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, domain.ManagerDistribution{Gestor: name})
		}
		return &out[i]
	}

	for _, rec := range records {
		switch rec.Process {
		case domain.ProcessSalida:
			if rec.ReceiverName != "" {
				entry(rec.ReceiverName).Entregado += rec.Quantity
			}
		case domain.ProcessLegalizado:
			if rec.SenderName != "" {
				entry(rec.SenderName).Legalizado += rec.Quantity
			}
		}
	}

	result := make([]domain.ManagerDistribution, 0, len(out))
	for _, m := range out {
		if m.Entregado == 0 && m.Legalizado == 0 {
			continue
		}
		result = append(result, m)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Entregado > result[j].Entregado
	})
	return result
}
