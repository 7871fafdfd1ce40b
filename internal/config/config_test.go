package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/testutil"
	"orderpulse/pkg/models"
)

func TestGetConfigFileEnvOverride(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "custom.yaml")
	t.Setenv("ORDERPULSE_CONFIG", override)

	assert.Equal(t, override, GetConfigFile())
	assert.Equal(t, dir, GetConfigPath())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("ORDERPULSE_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultSLABreachMinutes, *cfg.Pipeline.SLABreachMinutes)
	assert.Equal(t, DefaultPeakStartHour, *cfg.Pipeline.PeakStartHour)
	assert.Equal(t, DefaultPeakEndHour, *cfg.Pipeline.PeakEndHour)
	assert.Equal(t, DefaultMinCourierOrders, *cfg.Pipeline.MinCourierOrders)
	assert.Equal(t, "DELIVERY_ORDERS", cfg.Warehouse.OrdersTable)
	assert.Equal(t, "ORDERS_ANALYTICS", cfg.Warehouse.ProjectionTable)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("ORDERPULSE_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	cfg := &models.Config{
		Warehouse: models.Warehouse{
			Account:   "xy12345.us-east-1",
			Username:  "analyst",
			Role:      "ANALYST_ROLE",
			Warehouse: "REPORTING_WH",
			Database:  "FOOD_DELIVERY",
			Schema:    "PUBLIC",
		},
		Pipeline: models.Pipeline{
			SLABreachMinutes: testutil.IntPtr(45),
		},
	}

	require.NoError(t, Save(cfg))
	assert.True(t, Exists())

	loaded, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "xy12345.us-east-1", loaded.Warehouse.Account)
	assert.Equal(t, 45, *loaded.Pipeline.SLABreachMinutes)
	// Defaults still fill the fields Save left unset
	assert.Equal(t, DefaultPeakStartHour, *loaded.Pipeline.PeakStartHour)
}

func TestLoadPreservesConfiguredZeroThresholds(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("ORDERPULSE_CONFIG", file)

	// A peak window starting at midnight is a real setting, not "unset"
	yaml := "pipeline:\n  peak_start_hour: 0\n  peak_end_hour: 5\n"
	require.NoError(t, os.WriteFile(file, []byte(yaml), 0600))

	loaded, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, *loaded.Pipeline.PeakStartHour)
	assert.Equal(t, 5, *loaded.Pipeline.PeakEndHour)
	// Absent fields still get defaults
	assert.Equal(t, DefaultSLABreachMinutes, *loaded.Pipeline.SLABreachMinutes)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("ORDERPULSE_CONFIG", file)
	require.NoError(t, os.WriteFile(file, []byte("warehouse: [not a mapping"), 0600))

	_, err := Load()
	assert.Error(t, err)
}
