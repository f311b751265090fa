// Package config loads runtime configuration for the panoclone CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. PANOCLONE_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "5s" or integer nanoseconds:
//
//	{
//	  "server": "demo.hosted.panopto.com",
//	  "destination_id": "0e2f...",
//	  "source": "/media/videos",
//	  "client_id": "...",
//	  "max_concurrency": 3,
//	  "poll_interval": "5s"
//	}
//
// Primary API
//
//   - type Config                     — all runtime settings of a run
//   - func LoadConfig() *Config       — builds Config by applying all sources in order
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//   - func (*Config) Validate() error — checks required settings
package config
