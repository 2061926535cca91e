package dataprocessing

import (
	"fmt"
	"strings"
	"time"

	"stockpulse/pkg/contracts/domain"
)

// processRule maps a label predicate to a canonical process kind
type processRule struct {
	match   func(label string) bool
	process domain.Process
}

func labelContains(token string) func(string) bool {
	return func(label string) bool { return strings.Contains(label, token) }
}

// processRules is evaluated top to bottom; the first matching rule wins,
// so "DEVOLUCION DE SALIDA" is a Salida.
var processRules = []processRule{
	{match: labelContains("ENTRADA"), process: domain.ProcessEntrada},
	{match: labelContains("SALIDA"), process: domain.ProcessSalida},
	{match: labelContains("DEVOLUC"), process: domain.ProcessDevolucion},
	{match: labelContains("LEGALIZA"), process: domain.ProcessLegalizado},
}

// ClassifyProcess maps a free-text process label to its canonical kind.
// Matching is by substring on the trimmed label, ignoring case and accents.
func ClassifyProcess(label string) domain.Process {
	folded := foldText(label)
	if folded == "" {
		return domain.ProcessSinProceso
	}
	for _, rule := range processRules {
		if rule.match(folded) {
			return rule.process
		}
	}
	return domain.ProcessSinProceso
}

// PeriodOf returns the YYYYMM bucket of a date, or "N/A" when absent
func PeriodOf(date *time.Time) string {
	if date == nil || date.IsZero() {
		return domain.NoPeriod
	}
	return fmt.Sprintf("%04d%02d", date.Year(), int(date.Month()))
}

// Classify sets the process and period of a normalized record
func Classify(rec *domain.MovementRecord, rawLabel any) {
	rec.RawProcess = valueText(rawLabel)
	rec.Process = ClassifyProcess(rec.RawProcess)
	rec.Period = PeriodOf(rec.Date)
}
