package domain

// KPISet holds the headline totals of a movement collection.
// JSON names are consumed verbatim by the dashboard.
type KPISet struct {
	MaterialRecibido    float64 `json:"Material_Recibido"`
	MaterialDistribuido float64 `json:"Material_Distribuido"`
	Devoluciones        float64 `json:"Devoluciones"`
	Legalizaciones      float64 `json:"Legalizaciones"`
	StockAlmacen        float64 `json:"Stock_Almacen"`
	StockCalle          float64 `json:"Stock_Calle"`
	TotalMovimientos    int     `json:"Total_Movimientos"`
}

// MaterialSummary is one ledger row per (code, name) pair
type MaterialSummary struct {
	Codigo         string  `json:"Codigo"`
	Material       string  `json:"Material"`
	Ingresado      float64 `json:"Ingresado"`
	Entregado      float64 `json:"Entregado"`
	Devoluciones   float64 `json:"Devoluciones"`
	Legalizaciones float64 `json:"Legalizaciones"`
	StockAlmacen   float64 `json:"Stock_Almacen"`
	StockCalle     float64 `json:"Stock_Calle"`
}

// ManagerDistribution totals what a counter-party received and legalized
type ManagerDistribution struct {
	Gestor     string  `json:"Gestor"`
	Entregado  float64 `json:"Entregado"`
	Legalizado float64 `json:"Legalizado"`
}

// DailyBreakdown holds per-process totals for one calendar day
type DailyBreakdown struct {
	Date       string  `json:"name"`
	Entrada    float64 `json:"Entrada"`
	Salida     float64 `json:"Salida"`
	Devolucion float64 `json:"Devolucion"`
	Legalizado float64 `json:"Legalizado"`
	SinProceso float64 `json:"Sin Proceso"`
}

// Add accumulates qty under the given process
func (d *DailyBreakdown) Add(p Process, qty float64) {
	switch p {
	case ProcessEntrada:
		d.Entrada += qty
	case ProcessSalida:
		d.Salida += qty
	case ProcessDevolucion:
		d.Devolucion += qty
	case ProcessLegalizado:
		d.Legalizado += qty
	default:
		d.SinProceso += qty
	}
}

// Total returns the value accumulated for a process
func (d DailyBreakdown) Total(p Process) float64 {
	switch p {
	case ProcessEntrada:
		return d.Entrada
	case ProcessSalida:
		return d.Salida
	case ProcessDevolucion:
		return d.Devolucion
	case ProcessLegalizado:
		return d.Legalizado
	default:
		return d.SinProceso
	}
}

// QualityReport summarizes the integrity of a movement collection
type QualityReport struct {
	TotalRows     int             `json:"total_rows"`
	UniqueDates   int             `json:"unique_dates"`
	ProcessCounts map[Process]int `json:"process_counts"`
	NullDates     int             `json:"null_dates"`
	NullCantidad  int             `json:"null_cantidad"`
}

// ParetoEntry is one ranked material with its running share of total volume
type ParetoEntry struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	CumPercentage int     `json:"cumPercentage"`
	// VitalFew marks entries reached before the cumulative share hits 80%
	VitalFew bool `json:"vital_few"`
}

// StockSlice is one segment of the stock distribution chart
type StockSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FilterOptions lists the selectable values for each filter dimension
type FilterOptions struct {
	Processes []Process `json:"processes"`
	Materials []string  `json:"materials"`
	Managers  []string  `json:"gestors"`
	Periods   []string  `json:"periods"`
}

// Views bundles every derived view for one query
type Views struct {
	KPIs              KPISet                `json:"kpis"`
	MaterialSummary   []MaterialSummary     `json:"material_summary"`
	TopStock          []MaterialSummary     `json:"top_stock"`
	Managers          []ManagerDistribution `json:"gestor_distribution"`
	Daily             []DailyBreakdown      `json:"daily_breakdown"`
	Quality           QualityReport         `json:"quality"`
	Pareto            []ParetoEntry         `json:"pareto"`
	StockDistribution []StockSlice          `json:"process_distribution"`
	TotalRecords      int                   `json:"total_records"`
	FilteredRecords   int                   `json:"filtered_records"`
	Query             QueryState            `json:"query"`
}
