package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/bridge-geocode/internal/dataset"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "BridgeSafetyCoordBot/1.0 (Berlin bridge data project)", cfg.Fetch.UserAgent)
	assert.Equal(t, 60, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.InDelta(t, 2.0, cfg.Fetch.RatePerSec, 0.001)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, ".bridge-cache.db", cfg.Cache.Path)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.True(t, cfg.Wikipedia.Enabled)
	assert.Equal(t, "https://de.wikipedia.org/wiki/Liste_der_Br%C3%BCcken_in_Berlin", cfg.Wikipedia.BaseURL)
	assert.Len(t, cfg.Wikipedia.Segments, 20)
	assert.Equal(t, "A", cfg.Wikipedia.Segments[0])
	assert.Equal(t, "XYZ", cfg.Wikipedia.Segments[19])
	assert.Equal(t, "wikitable", cfg.Wikipedia.TableClass)
	assert.Equal(t, 4, cfg.Wikipedia.Concurrency)
	assert.False(t, cfg.Geoportal.Enabled)
	assert.Equal(t, "bauwerksname", cfg.Geoportal.NameProperty)
	assert.Equal(t, "bauwerksnummer", cfg.Geoportal.IDProperty)
	assert.Equal(t, []dataset.File{
		{Path: "bruecken_tagesspiegel.json", Kind: dataset.KindFlat},
		{Path: "bruecken.json", Kind: dataset.KindDistricts},
	}, cfg.Data.Files)
	assert.Equal(t, "unmatched_bridges.csv", cfg.Data.UnmatchedCSV)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
geoportal:
  enabled: true
  location: bauwerke.geojson
data:
  files:
    - path: extra.json
      kind: flat
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Geoportal.Enabled)
	assert.Equal(t, "bauwerke.geojson", cfg.Geoportal.Location)
	assert.Equal(t, []dataset.File{{Path: "extra.json", Kind: dataset.KindFlat}}, cfg.Data.Files)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Wikipedia.Concurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
cache:
  path: from-file.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BRIDGE_LOG_LEVEL", "warn")
	t.Setenv("BRIDGE_CACHE_PATH", "from-env.db")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env.db", cfg.Cache.Path)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("BRIDGE_FETCH_MAX_RETRIES", "5")
	t.Setenv("BRIDGE_GEOPORTAL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Fetch.MaxRetries)
	assert.True(t, cfg.Geoportal.Enabled)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes validation.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Wikipedia.Enabled = true
	cfg.Wikipedia.Concurrency = 4
	cfg.Fetch.MaxRetries = 3
	cfg.Cache.Enabled = true
	cfg.Cache.Path = ".bridge-cache.db"
	cfg.Data.Files = []dataset.File{{Path: "bruecken.json", Kind: dataset.KindDistricts}}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:   "no source",
			mutate: func(c *Config) { c.Wikipedia.Enabled = false },
			want:   []string{"at least one of wikipedia.enabled or geoportal.enabled"},
		},
		{
			name:   "geoportal without location",
			mutate: func(c *Config) { c.Geoportal.Enabled = true },
			want:   []string{"geoportal.location is required"},
		},
		{
			name: "geoportal only",
			mutate: func(c *Config) {
				c.Wikipedia.Enabled = false
				c.Geoportal.Enabled = true
				c.Geoportal.Location = "https://gdi.berlin.de/wfs"
			},
		},
		{
			name:   "zero concurrency",
			mutate: func(c *Config) { c.Wikipedia.Concurrency = 0 },
			want:   []string{"wikipedia.concurrency must be >= 1"},
		},
		{
			name:   "negative retries",
			mutate: func(c *Config) { c.Fetch.MaxRetries = -1 },
			want:   []string{"fetch.max_retries must be >= 1"},
		},
		{
			name:   "cache without path",
			mutate: func(c *Config) { c.Cache.Path = "" },
			want:   []string{"cache.path is required"},
		},
		{
			name:   "no files",
			mutate: func(c *Config) { c.Data.Files = nil },
			want:   []string{"data.files must list at least one file"},
		},
		{
			name: "bad file entries reported together",
			mutate: func(c *Config) {
				c.Data.Files = []dataset.File{{Kind: dataset.KindFlat}, {Path: "x.json", Kind: "csv"}}
			},
			want: []string{"data.files[0].path is required", `data.files[1].kind "csv"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.want) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}
