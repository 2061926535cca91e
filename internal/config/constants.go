package config

// Application constants
const (
	AppName = "StockPulse"

	// DefaultUploadField is the multipart field carrying the workbook
	DefaultUploadField = "file"
)

// Supported workbook extensions for uploads and reload sources
var SupportedExtensions = []string{".xlsx", ".xls", ".csv"}
