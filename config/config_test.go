package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-optimizer/config"
	"github.com/warp/inventory-optimizer/policy"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, config.SourceCSV, cfg.Source)
	assert.Equal(t, filepath.Join(".", "sku_forecasts.csv"), cfg.ForecastPath())
	assert.Equal(t, filepath.Join(".", "inventory_policy.csv"), cfg.PolicyPath())
	assert.Equal(t, 5.0, cfg.FallbackSigma)

	p, err := cfg.DefaultParameters()
	require.NoError(t, err)
	assert.Equal(t, policy.DefaultParameters(), p)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
addr: ":9090"
data_dir: /srv/data
policy_file: /abs/policy.csv
defaults:
  service_level: 0.99
  lead_time_days: 14
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("IO_ADDR", ":7070")
	t.Setenv("IO_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, filepath.Join("/srv/data", "sku_forecasts.csv"), cfg.ForecastPath())
	assert.Equal(t, "/abs/policy.csv", cfg.PolicyPath())

	p, err := cfg.DefaultParameters()
	require.NoError(t, err)
	assert.Equal(t, policy.ServiceLevel99, p.ServiceLevel)
	assert.Equal(t, 14, p.LeadTimeDays)
	assert.Equal(t, 0.50, p.HoldingCostPerUnitDay)
}

func TestLoad_ExplicitZeroes(t *testing.T) {
	// GIVEN: a file that sets costs and the fallback sigma to zero
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
fallback_sigma: 0
defaults:
  holding_cost: 0
  stockout_cost: 0
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	// WHEN
	cfg, err := config.Load(path)

	// THEN: zeroes are kept, keys left out still get defaults
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.FallbackSigma)

	p, err := cfg.DefaultParameters()
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.HoldingCostPerUnitDay)
	assert.Equal(t, 0.0, p.StockoutCostPerUnit)
	assert.Equal(t, policy.ServiceLevel95, p.ServiceLevel)
	assert.Equal(t, 7, p.LeadTimeDays)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("addr: [unterminated"), 0o644))
	_, err := config.Load(bad)
	assert.Error(t, err)

	level := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(level, []byte("defaults:\n  service_level: 0.8\n"), 0o644))
	_, err = config.Load(level)
	assert.ErrorIs(t, err, policy.ErrInvalidServiceLevel)

	t.Setenv("IO_SOURCE", "postgres")
	_, err = config.Load("")
	assert.ErrorContains(t, err, "unknown source")
}
