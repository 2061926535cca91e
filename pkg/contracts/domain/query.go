package domain

// QueryFieldDateLayout is the wire layout of QueryState date bounds
const QueryFieldDateLayout = "2006-01-02"

// QueryState is the filter selection applied to a dataset.
// Empty fields do not restrict; each list is a union, dimensions intersect.
type QueryState struct {
	DateFrom  string    `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string    `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Processes []Process `json:"processes,omitempty" validate:"omitempty,dive,movement_process"`
	Materials []string  `json:"materials,omitempty" validate:"omitempty,dive,required"`
	Managers  []string  `json:"managers,omitempty" validate:"omitempty,dive,required"`
	Periods   []string  `json:"periods,omitempty" validate:"omitempty,dive,len=6,numeric"`
}

// IsEmpty reports whether the query restricts nothing
func (q QueryState) IsEmpty() bool {
	return q.DateFrom == "" && q.DateTo == "" &&
		len(q.Processes) == 0 && len(q.Materials) == 0 &&
		len(q.Managers) == 0 && len(q.Periods) == 0
}

// IsValidProcess reports whether p is one of the canonical kinds
func IsValidProcess(p Process) bool {
	for _, known := range AllProcesses {
		if p == known {
			return true
		}
	}
	return false
}
