// Package dataprocessing turns inventory movement workbooks into analytical views.
//
// # Architecture
//
// The package is organized into four stages:
//
// 1. Parser: reads the first sheet of an xlsx, xls or csv payload into raw rows
// 2. Normalizer: coerces quantities, parses dates and pins them to midday
// 3. Classifier: maps free-text process labels to canonical kinds and periods
// 4. Engine: filters the records and runs the view calculators
//
// # Usage
//
//	normalizer := dataprocessing.NewNormalizer(loc)
//	ds, err := dataprocessing.Ingest("movimientos.xlsx", payload, normalizer)
//	if err != nil {
//	    return err
//	}
//	engine := dataprocessing.NewEngine(dataprocessing.WithLocation(loc))
//	views, err := engine.Compute(ctx, ds.Records, domain.QueryState{})
//
// # Data Flow
//
//	Payload → Parser → RawRows → Normalizer → Classifier → Records → Filter → Calculators → Views
//
// # Error Handling
//
// Only file-level defects are errors (ErrUnreadableWorkbook, ErrUnsupportedFormat,
// ErrEmptyWorkbook). A bad date, quantity or label degrades its record to a
// default and shows up in the QualityReport counters instead.
//
// # Stock Balances
//
// Warehouse stock is received + returned - distributed. Field stock is
// distributed - returned - legalized. Both are reported even when negative.
package dataprocessing
