/*
config.go - Server configuration

PURPOSE:
  Starts from the defaults, decodes an optional YAML file over them, then
  applies environment overrides. Command-line flags in cmd/server override
  the result.

SOURCES (later wins):
  1. Defaults (see Default)
  2. config.yaml (path from -config or IO_CONFIG). A key that is present
     wins even when its value is zero, so holding_cost: 0 means free holding.
  3. Environment: IO_ADDR, IO_SOURCE, IO_DATA_DIR, IO_FORECAST_FILE,
     IO_POLICY_FILE, IO_DB_PATH, IO_ALLOWED_ORIGINS (comma separated)

  Empty strings and an empty allowed_origins list still fall back to the
  defaults.

EXAMPLE:
  addr: ":8080"
  source: csv
  data_dir: ./data
  defaults:
    service_level: 0.95
    lead_time_days: 7
    holding_cost: 0.50
    stockout_cost: 5.00
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warp/inventory-optimizer/loader"
	"github.com/warp/inventory-optimizer/policy"
	"gopkg.in/yaml.v3"
)

// Supported dataset sources.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

type Config struct {
	Addr           string   `yaml:"addr"`
	Source         string   `yaml:"source"`
	DataDir        string   `yaml:"data_dir"`
	ForecastFile   string   `yaml:"forecast_file"`
	PolicyFile     string   `yaml:"policy_file"`
	DBPath         string   `yaml:"db_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// FallbackSigma replaces sigma_d for series with fewer than two points.
	FallbackSigma float64 `yaml:"fallback_sigma"`

	Defaults Defaults `yaml:"defaults"`
}

// Defaults are the initial what-if control values.
type Defaults struct {
	ServiceLevel float64 `yaml:"service_level"`
	LeadTimeDays int     `yaml:"lead_time_days"`
	HoldingCost  float64 `yaml:"holding_cost"`
	StockoutCost float64 `yaml:"stockout_cost"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	def := policy.DefaultParameters()
	return Config{
		Addr:           ":8080",
		Source:         SourceCSV,
		DataDir:        ".",
		ForecastFile:   loader.ForecastFile,
		PolicyFile:     loader.PolicyFile,
		DBPath:         "inventory.db",
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		FallbackSigma:  policy.FallbackSigma,
		Defaults: Defaults{
			ServiceLevel: def.ServiceLevel.Fraction(),
			LeadTimeDays: def.LeadTimeDays,
			HoldingCost:  def.HoldingCostPerUnitDay,
			StockoutCost: def.StockoutCostPerUnit,
		},
	}
}

// Load reads path (if it exists) over the defaults and applies env overrides.
// A missing file is not an error; an unparsable one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("IO_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("error parsing %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("error reading %s: %w", path, err)
		}
	}

	envOverride(&cfg.Addr, "IO_ADDR")
	envOverride(&cfg.Source, "IO_SOURCE")
	envOverride(&cfg.DataDir, "IO_DATA_DIR")
	envOverride(&cfg.ForecastFile, "IO_FORECAST_FILE")
	envOverride(&cfg.PolicyFile, "IO_POLICY_FILE")
	envOverride(&cfg.DBPath, "IO_DB_PATH")
	if origins := os.Getenv("IO_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	cfg.fillEmpty()
	return cfg, cfg.Validate()
}

// fillEmpty restores defaults for settings left blank. Numeric fields are
// not touched: zero is a legitimate value for them.
func (cfg *Config) fillEmpty() {
	def := Default()
	for _, f := range []struct {
		target *string
		value  string
	}{
		{&cfg.Addr, def.Addr},
		{&cfg.Source, def.Source},
		{&cfg.DataDir, def.DataDir},
		{&cfg.ForecastFile, def.ForecastFile},
		{&cfg.PolicyFile, def.PolicyFile},
		{&cfg.DBPath, def.DBPath},
	} {
		if *f.target == "" {
			*f.target = f.value
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = def.AllowedOrigins
	}
}

// Validate checks the source and the default parameters.
func (cfg Config) Validate() error {
	if cfg.Source != SourceCSV && cfg.Source != SourceSQLite {
		return fmt.Errorf("unknown source %q (use %q or %q)", cfg.Source, SourceCSV, SourceSQLite)
	}
	if cfg.FallbackSigma < 0 {
		return fmt.Errorf("fallback_sigma must be >= 0, got %v", cfg.FallbackSigma)
	}
	if _, err := cfg.DefaultParameters(); err != nil {
		return fmt.Errorf("invalid defaults: %w", err)
	}
	return nil
}

// DefaultParameters converts Defaults to calculator parameters.
func (cfg Config) DefaultParameters() (policy.Parameters, error) {
	sl, err := policy.ParseServiceLevel(cfg.Defaults.ServiceLevel)
	if err != nil {
		return policy.Parameters{}, err
	}
	p := policy.Parameters{
		ServiceLevel:          sl,
		LeadTimeDays:          cfg.Defaults.LeadTimeDays,
		HoldingCostPerUnitDay: cfg.Defaults.HoldingCost,
		StockoutCostPerUnit:   cfg.Defaults.StockoutCost,
	}
	return p, p.Validate()
}

// ForecastPath is the forecast CSV location.
func (cfg Config) ForecastPath() string {
	return resolve(cfg.DataDir, cfg.ForecastFile)
}

// PolicyPath is the policy CSV location.
func (cfg Config) PolicyPath() string {
	return resolve(cfg.DataDir, cfg.PolicyFile)
}

func resolve(dir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
