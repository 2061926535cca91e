// Package errors defines the API error vocabulary of StockPulse.
//
// Handlers return *APIError for request-level problems and services return
// *AppError (PARSING, CONFIG, STORAGE) for failures below the HTTP layer.
// ErrorHandler turns either into an RFC 7807 problem document, so a workbook
// that cannot be read surfaces as 422 /errors/workbook/unreadable while the
// previously loaded dataset stays in place. RecoveryMiddleware renders
// handler panics the same way.
package errors
