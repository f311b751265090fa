package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/panoclone/internal/flagx"
	"github.com/dmitrijs2005/panoclone/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "5s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	Server           string         `json:"server"`
	DestinationID    string         `json:"destination_id"`
	Source           string         `json:"source"`
	ClientID         string         `json:"client_id"`
	ClientSecret     string         `json:"client_secret"`
	SkipVerify       bool           `json:"skip_verify"`
	MaxConcurrency   int            `json:"max_concurrency"`
	PartSize         int64          `json:"part_size"`
	PacingDelay      timex.Duration `json:"pacing_delay"`
	PollInterval     timex.Duration `json:"poll_interval"`
	ProcessingBudget timex.Duration `json:"processing_budget"`
	WorkDir          string         `json:"work_dir"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only fields present in the JSON override the current Config values.
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}
	applyJsonFile(cfg, jsonConfigFile)
}

// applyJsonFile overlays cfg with the fields present in the JSON file at path.
func applyJsonFile(cfg *Config, path string) {
	var jc JsonConfig

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Server != "" {
		cfg.Server = jc.Server
	}
	if jc.DestinationID != "" {
		cfg.DestinationID = jc.DestinationID
	}
	if jc.Source != "" {
		cfg.Source = jc.Source
	}
	if jc.ClientID != "" {
		cfg.ClientID = jc.ClientID
	}
	if jc.ClientSecret != "" {
		cfg.ClientSecret = jc.ClientSecret
	}
	if jc.SkipVerify {
		cfg.SkipVerify = true
	}
	if jc.MaxConcurrency > 0 {
		cfg.MaxConcurrency = jc.MaxConcurrency
	}
	if jc.PartSize > 0 {
		cfg.PartSize = jc.PartSize
	}
	if jc.PacingDelay.Duration > 0 {
		cfg.PacingDelay = time.Duration(jc.PacingDelay.Duration)
	}
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = time.Duration(jc.PollInterval.Duration)
	}
	if jc.ProcessingBudget.Duration > 0 {
		cfg.ProcessingBudget = time.Duration(jc.ProcessingBudget.Duration)
	}
	if jc.WorkDir != "" {
		cfg.WorkDir = jc.WorkDir
	}
}
