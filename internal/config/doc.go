// Package config provides centralized configuration management for Demand
// Pulse. It handles loading configuration from multiple sources, validation,
// and provides a type-safe API for accessing configuration values throughout
// the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern DP_* for namespacing:
//
//	DP_SERVER_PORT=8080
//	DP_LOGGING_LEVEL=info
//	DP_EXTRACTION_HORIZON=6
//	DP_SHEETS_API_KEY=...
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
