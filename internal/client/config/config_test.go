package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, 3, c.MaxConcurrency)
	assert.Equal(t, int64(DefaultPartSize), c.PartSize)
	assert.Equal(t, 2*time.Second, c.PacingDelay)
	assert.Equal(t, 5*time.Second, c.PollInterval)
	assert.Equal(t, 10*time.Minute, c.ProcessingBudget)
	assert.Equal(t, ".", c.WorkDir)
}

func TestNormalize_ClampsPartSize(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want int64
	}{
		{"below minimum", 1024, MinPartSize},
		{"above maximum", 100 * 1024 * 1024, MaxPartSize},
		{"in range", 10 * 1024 * 1024, 10 * 1024 * 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{PartSize: tt.in, MaxConcurrency: 1}
			c.Normalize()
			assert.Equal(t, tt.want, c.PartSize)
		})
	}
}

func TestNormalize_ClampsConcurrency(t *testing.T) {
	c := Config{PartSize: DefaultPartSize, MaxConcurrency: 0}
	c.Normalize()
	assert.Equal(t, 1, c.MaxConcurrency)
}

func TestValidate(t *testing.T) {
	c := Config{}
	require.ErrorContains(t, c.Validate(), "-server")

	c.Server = "media.example.com"
	require.ErrorContains(t, c.Validate(), "-destination")

	c.DestinationID = "dest1"
	require.ErrorContains(t, c.Validate(), "-source")

	c.Source = "/media"
	require.ErrorContains(t, c.Validate(), "-client-id")

	c.ClientID = "client1"
	require.NoError(t, c.Validate())
}

func TestParseEnv(t *testing.T) {
	t.Setenv("PANOCLONE_SERVER", "env.example.com")
	t.Setenv("PANOCLONE_CONCURRENCY", "7")
	t.Setenv("PANOCLONE_SKIP_VERIFY", "true")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "env.example.com", c.Server)
	assert.Equal(t, 7, c.MaxConcurrency)
	assert.True(t, c.SkipVerify)
}

func TestParseEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("PANOCLONE_CONCURRENCY", "lots")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, 3, c.MaxConcurrency)
}

func TestJsonConfig_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"server": "json.example.com",
		"destination_id": "dest-json",
		"poll_interval": "7s",
		"processing_budget": 60000000000
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o660))

	var c Config
	c.LoadDefaults()
	applyJsonFile(&c, path)

	assert.Equal(t, "json.example.com", c.Server)
	assert.Equal(t, "dest-json", c.DestinationID)
	assert.Equal(t, 7*time.Second, c.PollInterval)
	assert.Equal(t, time.Minute, c.ProcessingBudget)
	// untouched fields keep their defaults
	assert.Equal(t, 3, c.MaxConcurrency)
}
