package domain

import (
	"time"
)

// Process is the canonical kind of an inventory movement
type Process string

const (
	ProcessEntrada    Process = "Entrada"
	ProcessSalida     Process = "Salida"
	ProcessDevolucion Process = "Devolucion"
	ProcessLegalizado Process = "Legalizado"
	ProcessSinProceso Process = "Sin Proceso"
)

// AllProcesses lists every canonical kind in reporting order
var AllProcesses = []Process{
	ProcessEntrada,
	ProcessSalida,
	ProcessDevolucion,
	ProcessLegalizado,
	ProcessSinProceso,
}

// Sentinels used when a grouping field is missing from the source row
const (
	NoMaterialCode = "N/A"
	NoMaterialName = "Unknown"
	NoPeriod       = "N/A"
)

// Source column headers of the movements workbook
const (
	ColumnDate         = "Fecha"
	ColumnProcess      = "Proceso"
	ColumnQuantity     = "Cantidad"
	ColumnEntry        = "Entrada"
	ColumnExit         = "Salida"
	ColumnMaterialCode = "Codigo Material"
	ColumnMaterialName = "Items"
	ColumnReceiver     = "Nombre Recibe"
	ColumnSender       = "Nombre Entrega"
)

// RawRow is one spreadsheet row keyed by trimmed header text.
// Values are nil (empty cell), string, float64, bool or time.Time.
type RawRow map[string]any

// MovementRecord is the canonical, classified form of a source row
type MovementRecord struct {
	Date            *time.Time `json:"date,omitempty"`
	Process         Process    `json:"process"`
	RawProcess      string     `json:"raw_process,omitempty"`
	Quantity        float64    `json:"quantity"`
	QuantityMissing bool       `json:"quantity_missing,omitempty"`
	EntryQuantity   float64    `json:"entry_quantity"`
	ExitQuantity    float64    `json:"exit_quantity"`
	MaterialCode    string     `json:"material_code"`
	MaterialName    string     `json:"material_name"`
	// SourceMaterialName is the material name as found in the file, empty when absent
	SourceMaterialName string `json:"-"`
	ReceiverName       string `json:"receiver_name,omitempty"`
	SenderName         string `json:"sender_name,omitempty"`
	Period             string `json:"period"`
}

// HasDate reports whether the record carries a valid calendar date
func (r MovementRecord) HasDate() bool {
	return r.Date != nil && !r.Date.IsZero()
}

// DayKey returns the calendar day of the record as YYYY-MM-DD, or "" when undated
func (r MovementRecord) DayKey() string {
	if !r.HasDate() {
		return ""
	}
	return r.Date.Format("2006-01-02")
}

// DatasetInfo describes the currently installed dataset
type DatasetInfo struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	Format     string    `json:"format"`
	SheetName  string    `json:"sheet_name"`
	RowCount   int       `json:"row_count"`
	LoadedAt   time.Time `json:"loaded_at"`
	DurationMS int64     `json:"duration_ms"`
}
