// Package app wires StockPulse together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (.env, config.yaml, STOCKPULSE_* variables)
//	2. Initialize logging and OpenTelemetry
//	3. Create the websocket hub, the dataset service and the health service
//	4. Schedule the reload job when a source file is configured
//	5. Build the chi router and the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run waits for SIGINT or SIGTERM, then drains the HTTP server, stops the
// reload job and the hub, and flushes telemetry. Errors are returned to the
// caller; the package never calls os.Exit.
package app
