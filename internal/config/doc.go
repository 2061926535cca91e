// Package config provides centralized configuration management for StockPulse.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), optionally seeded from a .env file
//	2. YAML file (STOCKPULSE_CONFIG, ./config.yaml or ./configs/config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern STOCKPULSE_<SECTION>_<KEY>:
//
//	STOCKPULSE_SERVER_PORT=8080
//	STOCKPULSE_INGEST_TIMEZONE=America/Bogota
//	STOCKPULSE_INGEST_MAX_UPLOAD_BYTES=33554432
//	STOCKPULSE_RELOAD_SOURCE_FILE=/data/movimientos.xlsx
//	STOCKPULSE_RELOAD_SCHEDULE="*/15 * * * *"
//	STOCKPULSE_LOGGING_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	loc, _ := cfg.Location()
package config
