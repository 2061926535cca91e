// Package services holds the business logic between the HTTP handlers and
// the dataprocessing pipeline.
//
// # DatasetService
//
// DatasetService owns the single loaded dataset and the session QueryState.
// Load parses a workbook and swaps the dataset in atomically; a failed load
// leaves the previous dataset and filters untouched. Views recomputes every
// view from the full record set on each call, so results never depend on a
// previous query.
//
//	svc := services.NewDatasetService(normalizer, engine, exporter.New(logger), logger,
//	    services.WithPublisher(hub),
//	    services.WithQueryValidator(validation.NewQueryValidator()),
//	)
//	info, err := svc.Load(ctx, services.SourceUpload, "movimientos.xlsx", payload)
//
// Every state change is announced through the EventPublisher (dataset:loaded,
// dataset:failed, filters:changed). Publishing never blocks the caller.
//
// # HealthService
//
// HealthService reports whether a dataset is loaded and how many websocket
// clients are connected.
//
// # Errors
//
// ErrNoDataset, ErrUnknownReport, ErrUnknownFormat and ErrInvalidQuery are
// sentinel errors; handlers map them to problem responses with errors.Is.
package services
