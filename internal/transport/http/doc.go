// Package http implements the REST handlers of the StockPulse web service.
// Handlers stay thin: they decode and validate requests, call the dataset
// service and render its results.
//
// # Endpoints
//
//	POST   /api/dataset           upload a movement workbook (multipart field "file")
//	GET    /api/dataset           metadata of the loaded dataset
//	GET    /api/dataset/options   selectable filter values
//	GET    /api/filters           current query state
//	PUT    /api/filters           replace the query state
//	DELETE /api/filters           clear the query state
//	GET    /api/views             all views for the current query state
//	POST   /api/views             all views for the query state in the body
//	GET    /api/export/{kind}     inventory or stock report, ?format=xlsx|csv
//
// # Error Handling
//
// Errors are written as RFC 7807 problem details by errors.ErrorHandler.
// Service sentinels are mapped first: a missing dataset becomes 404 with
// type /errors/dataset/not-loaded and an unreadable workbook becomes 422.
package http
