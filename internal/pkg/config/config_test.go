package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("tripfootprint-test")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "tripfootprint-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, 300, cfg.Cache.EstimateTTL)

	table := cfg.Emissions.Table()
	require.Len(t, table.Modes, 6)
	assert.Equal(t, "walking", table.Modes[0].Mode)
	assert.Equal(t, "plane", table.Modes[5].Mode)
	assert.InDelta(t, 0.255, table.Modes[5].PerKm, 1e-9)
	assert.Equal(t, "train", table.DefaultMode)
	require.Len(t, table.Accommodations, 3)
	assert.Equal(t, 21.0, table.TreeKgPerYear)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TRIPFOOTPRINT_SERVER_PORT", "9090")
	t.Setenv("TRIPFOOTPRINT_EMISSIONS_SELECTED_MODE", "bus")
	t.Setenv("TRIPFOOTPRINT_DATABASE_ENABLED", "false")

	cfg, err := Load("tripfootprint-test")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "bus", cfg.Emissions.SelectedMode)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadFile_CustomFactors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "factors.yaml")
	yaml := `
emissions:
  selected_mode: tram
  modes:
    - mode: tram
      per_km: 0.03
    - mode: taxi
      per_km: 0.2
  accommodations:
    - type: camping
      per_night: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadFile("tripfootprint-test", path)
	require.NoError(t, err)

	table := cfg.Emissions.Table()
	require.Len(t, table.Modes, 2)
	assert.Equal(t, "tram", table.Modes[0].Mode)
	assert.Equal(t, "taxi", table.Modes[1].Mode)
	assert.Equal(t, "tram", table.DefaultMode)
	require.Len(t, table.Accommodations, 1)
	assert.InDelta(t, 1.5, table.Accommodations[0].PerNight, 1e-9)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("tripfootprint-test", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("tripfootprint-test")
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Cache.LRUSize = 0
	cfg.Emissions.SelectedMode = "rocket"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "cache.lru_size")
	assert.Contains(t, err.Error(), `default mode "rocket"`)
}

func TestValidate_DatabaseSkippedWhenDisabled(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("tripfootprint-test")
	require.NoError(t, err)

	cfg.Database.Enabled = false
	cfg.Database.Host = ""
	cfg.Database.MaxConns = 0
	assert.NoError(t, cfg.Validate())
}
