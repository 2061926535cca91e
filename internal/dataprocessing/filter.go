package dataprocessing

import (
	"fmt"
	"sort"
	"time"

	"stockpulse/pkg/contracts/domain"
)

// Filter is a compiled QueryState. Dimensions combine with AND, values
// inside an allow-list with OR. An empty dimension does not restrict.
type Filter struct {
	from, to  *time.Time
	processes map[domain.Process]struct{}
	materials map[string]struct{}
	managers  map[string]struct{}
	periods   map[string]struct{}
}

// NewFilter compiles q; date bounds are read as calendar days in loc
func NewFilter(q domain.QueryState, loc *time.Location) (*Filter, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := &Filter{
		processes: make(map[domain.Process]struct{}, len(q.Processes)),
		materials: toSet(q.Materials),
		managers:  toSet(q.Managers),
		periods:   toSet(q.Periods),
	}
	for _, p := range q.Processes {
		f.processes[p] = struct{}{}
	}

	if q.DateFrom != "" {
		d, err := time.ParseInLocation(domain.QueryFieldDateLayout, q.DateFrom, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date_from %q: %w", q.DateFrom, err)
		}
		f.from = &d
	}
	if q.DateTo != "" {
		d, err := time.ParseInLocation(domain.QueryFieldDateLayout, q.DateTo, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date_to %q: %w", q.DateTo, err)
		}
		end := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
		f.to = &end
	}
	return f, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Match reports whether a record satisfies every supplied criterion.
// Undated records are not excluded by the date range.
func (f *Filter) Match(rec domain.MovementRecord) bool {
	if rec.HasDate() {
		if f.from != nil && rec.Date.Before(*f.from) {
			return false
		}
		if f.to != nil && rec.Date.After(*f.to) {
			return false
		}
	}
	if len(f.processes) > 0 {
		if _, ok := f.processes[rec.Process]; !ok {
			return false
		}
	}
	if len(f.materials) > 0 {
		if _, ok := f.materials[rec.MaterialName]; !ok {
			return false
		}
	}
	if len(f.managers) > 0 {
		_, byReceiver := f.managers[rec.ReceiverName]
		_, bySender := f.managers[rec.SenderName]
		if !byReceiver && !bySender {
			return false
		}
	}
	if len(f.periods) > 0 {
		if _, ok := f.periods[rec.Period]; !ok {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the filter restricts nothing
func (f *Filter) IsEmpty() bool {
	return f.from == nil && f.to == nil && len(f.processes) == 0 &&
		len(f.materials) == 0 && len(f.managers) == 0 && len(f.periods) == 0
}

// Apply returns the matching records in input order. An empty filter
// returns the input slice itself.
func (f *Filter) Apply(records []domain.MovementRecord) []domain.MovementRecord {
	if f.IsEmpty() {
		return records
	}
	out := make([]domain.MovementRecord, 0, len(records))
	for _, rec := range records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// ApplyQuery compiles q and applies it in one step
func ApplyQuery(records []domain.MovementRecord, q domain.QueryState, loc *time.Location) ([]domain.MovementRecord, error) {
	f, err := NewFilter(q, loc)
	if err != nil {
		return nil, err
	}
	return f.Apply(records), nil
}

// BuildFilterOptions lists selectable values from the unfiltered records.
// Periods are newest first; everything else is ascending.
func BuildFilterOptions(records []domain.MovementRecord) domain.FilterOptions {
	processes := make(map[domain.Process]struct{})
	materials := make(map[string]struct{})
	managers := make(map[string]struct{})
	periods := make(map[string]struct{})

	for _, rec := range records {
		processes[rec.Process] = struct{}{}
		if rec.SourceMaterialName != "" {
			materials[rec.SourceMaterialName] = struct{}{}
		}
		if rec.ReceiverName != "" {
			managers[rec.ReceiverName] = struct{}{}
		}
		if rec.SenderName != "" {
			managers[rec.SenderName] = struct{}{}
		}
		if rec.Period != domain.NoPeriod {
			periods[rec.Period] = struct{}{}
		}
	}

	opts := domain.FilterOptions{
		Processes: make([]domain.Process, 0, len(processes)),
		Materials: sortedKeys(materials),
		Managers:  sortedKeys(managers),
		Periods:   sortedKeys(periods),
	}
	for p := range processes {
		opts.Processes = append(opts.Processes, p)
	}
	sort.Slice(opts.Processes, func(i, j int) bool { return opts.Processes[i] < opts.Processes[j] })
	sort.Sort(sort.Reverse(sort.StringSlice(opts.Periods)))
	return opts
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
