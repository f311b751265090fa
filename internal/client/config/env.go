package config

import (
	"os"
	"strconv"
)

// parseEnv overlays Config fields from PANOCLONE_* environment variables.
// Unset variables leave the current value untouched.
func parseEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PANOCLONE_SERVER"); ok {
		cfg.Server = v
	}
	if v, ok := os.LookupEnv("PANOCLONE_DESTINATION"); ok {
		cfg.DestinationID = v
	}
	if v, ok := os.LookupEnv("PANOCLONE_SOURCE"); ok {
		cfg.Source = v
	}
	if v, ok := os.LookupEnv("PANOCLONE_CLIENT_ID"); ok {
		cfg.ClientID = v
	}
	if v, ok := os.LookupEnv("PANOCLONE_CLIENT_SECRET"); ok {
		cfg.ClientSecret = v
	}
	if v, ok := os.LookupEnv("PANOCLONE_SKIP_VERIFY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SkipVerify = b
		}
	}
	if v, ok := os.LookupEnv("PANOCLONE_CONCURRENCY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConcurrency = n
		}
	}
	if v, ok := os.LookupEnv("PANOCLONE_WORK_DIR"); ok {
		cfg.WorkDir = v
	}
}
