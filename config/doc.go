// Package config provides configuration loading and validation for zipstream.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (ZIPSTREAM_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//
// # Environment Variables
//
// All config keys map to environment variables with ZIPSTREAM_ prefix:
//   - archive.root → ZIPSTREAM_ARCHIVE_ROOT
//   - server.port → ZIPSTREAM_SERVER_PORT
//   - stream.throttle → ZIPSTREAM_STREAM_THROTTLE
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and an optional index page override
//   - Archive: root directory and the archiver command line
//   - Stream: chunk size, inter-chunk delay, grace and stall timeouts
//   - Service: timeout for writing download records
//   - Database: download history backend (none, sqlite, postgres)
//   - Metrics: Prometheus endpoint toggle
//   - CORS: cross-origin resource sharing settings
//   - Log: logging toggle and level
//
// Durations accept Go duration strings such as "250ms" or "1m".
package config
