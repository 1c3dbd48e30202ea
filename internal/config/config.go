package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/bridge-geocode/internal/dataset"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Wikipedia WikipediaConfig `yaml:"wikipedia" mapstructure:"wikipedia"`
	Geoportal GeoportalConfig `yaml:"geoportal" mapstructure:"geoportal"`
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures HTTP downloads.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// CacheConfig configures the local document cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Path     string `yaml:"path" mapstructure:"path"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// WikipediaConfig configures the Wikipedia bridge list source.
type WikipediaConfig struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled"`
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	Segments    []string `yaml:"segments" mapstructure:"segments"`
	TableClass  string   `yaml:"table_class" mapstructure:"table_class"`
	Concurrency int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// GeoportalConfig configures the Geoportal structure layer source.
type GeoportalConfig struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Location     string `yaml:"location" mapstructure:"location"`
	NameProperty string `yaml:"name_property" mapstructure:"name_property"`
	IDProperty   string `yaml:"id_property" mapstructure:"id_property"`
}

// DataConfig lists the bridge data files and the report target.
type DataConfig struct {
	Files        []dataset.File `yaml:"files" mapstructure:"files"`
	UnmatchedCSV string         `yaml:"unmatched_csv" mapstructure:"unmatched_csv"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.user_agent", "BridgeSafetyCoordBot/1.0 (Berlin bridge data project)")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 2)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", ".bridge-cache.db")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("wikipedia.enabled", true)
	v.SetDefault("wikipedia.base_url", "https://de.wikipedia.org/wiki/Liste_der_Br%C3%BCcken_in_Berlin")
	v.SetDefault("wikipedia.segments", []string{
		"A", "B", "CD", "E", "F", "G", "H", "IJ", "K", "L",
		"M", "N", "O", "PQ", "R", "S", "T", "UV", "W", "XYZ",
	})
	v.SetDefault("wikipedia.table_class", "wikitable")
	v.SetDefault("wikipedia.concurrency", 4)
	v.SetDefault("geoportal.enabled", false)
	v.SetDefault("geoportal.location", "")
	v.SetDefault("geoportal.name_property", "bauwerksname")
	v.SetDefault("geoportal.id_property", "bauwerksnummer")
	v.SetDefault("data.files", []map[string]any{
		{"path": "bruecken_tagesspiegel.json", "kind": string(dataset.KindFlat)},
		{"path": "bruecken.json", "kind": string(dataset.KindDistricts)},
	})
	v.SetDefault("data.unmatched_csv", "unmatched_bridges.csv")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration can drive a run. All problems
// are reported together.
func (c *Config) Validate() error {
	var errs []string

	if !c.Wikipedia.Enabled && !c.Geoportal.Enabled {
		errs = append(errs, "at least one of wikipedia.enabled or geoportal.enabled must be set")
	}
	if c.Wikipedia.Enabled && c.Wikipedia.Concurrency < 1 {
		errs = append(errs, "wikipedia.concurrency must be >= 1")
	}
	if c.Fetch.MaxRetries < 1 {
		errs = append(errs, "fetch.max_retries must be >= 1")
	}
	if c.Geoportal.Enabled && c.Geoportal.Location == "" {
		errs = append(errs, "geoportal.location is required when geoportal is enabled")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		errs = append(errs, "cache.path is required when cache is enabled")
	}
	if len(c.Data.Files) == 0 {
		errs = append(errs, "data.files must list at least one file")
	}
	for i, f := range c.Data.Files {
		if f.Path == "" {
			errs = append(errs, fmt.Sprintf("data.files[%d].path is required", i))
		}
		if !f.Kind.Valid() {
			errs = append(errs, fmt.Sprintf("data.files[%d].kind %q must be %q or %q", i, f.Kind, dataset.KindFlat, dataset.KindDistricts))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
