// Package config provides centralized configuration management for the
// report engine. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PYGRAYS_* for
// namespacing, with nested sections joined by underscores:
//
//	PYGRAYS_SERVER_PORT=8080
//	PYGRAYS_LOGGING_LEVEL=info
//	PYGRAYS_PROCESSING_MAX_UPLOAD_BYTES=67108864
//	PYGRAYS_PROCESSING_ARCHIVE_PREFIX=[pygrays]
//	PYGRAYS_PROCESSING_BANK_ACCOUNTS=032075843041,034003431178
//
// # Configuration File
//
// A config.yaml in the working directory (or under configs/) is
// overlaid onto the defaults before environment variables are applied:
//
//	server:
//	  port: 9090
//	processing:
//	  aging:
//	    families:
//	      - name: Wine
//	        sub_divisions: [Fine Wine, Cellar Collection]
//
// Family sheets can only be configured through the file; the nested
// list shape has no environment encoding.
//
// # Validation
//
// All configuration is validated at load time to ensure required
// fields are present and values are within acceptable ranges.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
