package config

import (
	"fmt"
	"time"
)

// Part size limits of the remote blob store. The server may fail a multipart
// upload whose parts are larger than 25 MiB.
const (
	MinPartSize     = 5 * 1024 * 1024
	MaxPartSize     = 25 * 1024 * 1024
	DefaultPartSize = 8 * 1024 * 1024
)

// Config holds runtime settings for the panoclone CLI.
//
// Fields:
//   - Server: FQDN of the media server (no scheme).
//   - DestinationID: ID of the remote folder the local tree is mirrored under.
//   - Source: path of the local source folder.
//   - ClientID/ClientSecret: OAuth2 client credentials.
//   - SkipVerify: disable TLS certificate verification (test servers only).
//   - Clean: delete local caches before the run, forcing a full re-mirror.
//   - MaxConcurrency: number of files uploaded in parallel.
//   - PartSize: multipart part size in bytes, clamped to [5 MiB, 25 MiB].
//   - PacingDelay: delay between remote folder-creation calls.
//   - PollInterval: interval between processing-state polls.
//   - ProcessingBudget: wall-clock limit of the processing-state poll loop.
//   - RetryBase: base delay of the exponential transfer-retry backoff.
//   - WorkDir: directory holding caches and generated manifests.
type Config struct {
	Server           string
	DestinationID    string
	Source           string
	ClientID         string
	ClientSecret     string
	SkipVerify       bool
	Clean            bool
	MaxConcurrency   int
	PartSize         int64
	PacingDelay      time.Duration
	PollInterval     time.Duration
	ProcessingBudget time.Duration
	RetryBase        time.Duration
	WorkDir          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.MaxConcurrency = 3
	c.PartSize = DefaultPartSize
	c.PacingDelay = 2 * time.Second
	c.PollInterval = 5 * time.Second
	c.ProcessingBudget = 10 * time.Minute
	c.RetryBase = time.Second
	c.WorkDir = "."
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), PANOCLONE_* environment variables and command-line
// flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	cfg.Normalize()
	return cfg
}

// Normalize clamps values that have a hard valid range.
func (c *Config) Normalize() {
	if c.PartSize < MinPartSize {
		c.PartSize = MinPartSize
	}
	if c.PartSize > MaxPartSize {
		c.PartSize = MaxPartSize
	}
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = 1
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	switch {
	case c.Server == "":
		return fmt.Errorf("missing required setting: -server")
	case c.DestinationID == "":
		return fmt.Errorf("missing required setting: -destination")
	case c.Source == "":
		return fmt.Errorf("missing required setting: -source")
	case c.ClientID == "":
		return fmt.Errorf("missing required setting: -client-id")
	}
	return nil
}
