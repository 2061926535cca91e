package dataprocessing

import (
	"time"

	"stockpulse/pkg/contracts/domain"
)

// movement builds a classified record dated at noon UTC; day "" leaves it undated
func movement(process domain.Process, qty float64, day, code, name string) domain.MovementRecord {
	rec := domain.MovementRecord{
		Process:            process,
		Quantity:           qty,
		MaterialCode:       code,
		MaterialName:       name,
		SourceMaterialName: name,
		Period:             domain.NoPeriod,
	}
	if name == domain.NoMaterialName {
		rec.SourceMaterialName = ""
	}
	if day != "" {
		d, err := time.Parse("2006-01-02", day)
		if err != nil {
			panic(err)
		}
		d = d.Add(12 * time.Hour)
		rec.Date = &d
		rec.Period = PeriodOf(&d)
	}
	return rec
}

func withReceiver(rec domain.MovementRecord, name string) domain.MovementRecord {
	rec.ReceiverName = name
	return rec
}

func withSender(rec domain.MovementRecord, name string) domain.MovementRecord {
	rec.SenderName = name
	return rec
}

// sampleRecords is a small but inconsistent ledger touching every kind
func sampleRecords() []domain.MovementRecord {
	return []domain.MovementRecord{
		movement(domain.ProcessEntrada, 100, "2024-01-02", "M1", "Cable"),
		movement(domain.ProcessEntrada, 40, "2024-01-02", "M2", "Poste"),
		withReceiver(movement(domain.ProcessSalida, 30, "2024-01-05", "M1", "Cable"), "Ana"),
		withReceiver(movement(domain.ProcessSalida, 50, "2024-02-01", "M2", "Poste"), "Luis"),
		withReceiver(movement(domain.ProcessSalida, 5, "", "M1", "Cable"), "Ana"),
		movement(domain.ProcessDevolucion, 10, "2024-02-03", "M1", "Cable"),
		withSender(movement(domain.ProcessLegalizado, 12, "2024-02-10", "M2", "Poste"), "Luis"),
		withSender(movement(domain.ProcessLegalizado, 3, "2024-02-10", "M1", "Cable"), "Marta"),
		movement(domain.ProcessSinProceso, 7, "2024-01-05", domain.NoMaterialCode, domain.NoMaterialName),
	}
}
