// Package app provides application initialization and lifecycle management
// for the report engine. It wires configuration loading, logging, telemetry,
// the report services, the HTTP router, and graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from files and environment
//	2. Initialize structured logging and OpenTelemetry
//	3. Create business metrics and the report services
//	4. Set up the chi router and middleware chain
//	5. Configure the HTTP server with timeouts
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains active requests within
// the configured shutdown timeout, flushes telemetry, and closes the log
// file. Initialization errors are returned to the caller rather than
// calling os.Exit() directly, so main controls the exit process.
package app
