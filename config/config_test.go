package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[server]
name = "quantrisk-test"
environment = "test"

[server.http]
port = 9090
read_timeout = "3s"

[market]
curve_file = "curve.csv"

[simulation]
workers = 2
max_path_steps = 1000
default_seed = 42
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quantrisk.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseAppliesFileAndDefaults(t *testing.T) {
	conf, err := Parse(writeConfig(t, sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "quantrisk-test", conf.Server.Name)
	assert.Equal(t, 9090, conf.Server.HTTP.Port)
	assert.Equal(t, 3*time.Second, conf.Server.HTTP.ReadTimeout)
	assert.Equal(t, uint64(42), conf.Simulation.DefaultSeed)
	assert.Equal(t, 1000, conf.Simulation.MaxPathSteps)

	// 未出现在文件中的键取默认值
	assert.Equal(t, "info", conf.Log.Level)
	assert.Equal(t, 0.95, conf.Simulation.PFEQuantile)
	assert.Equal(t, 0.1, conf.HullWhite.A)
	assert.Equal(t, 1.0, conf.HullWhite.SwapFrequency)
	assert.Equal(t, "call", conf.Pricing.DefaultKind)
}

func TestParseEnvOverride(t *testing.T) {
	t.Setenv("QUANTRISK_SIMULATION_WORKERS", "6")
	conf, err := Parse(writeConfig(t, sampleTOML))
	require.NoError(t, err)
	assert.Equal(t, 6, conf.Simulation.Workers)
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	_, err := Parse(writeConfig(t, `
[server]
name = "quantrisk"
environment = "staging"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")

	_, err = Parse(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoggingConfig(t *testing.T) {
	conf, err := Parse(writeConfig(t, sampleTOML))
	require.NoError(t, err)
	lc := conf.LoggingConfig("api")
	assert.Equal(t, "quantrisk-test", lc.Service)
	assert.Equal(t, "api", lc.Module)
	assert.Equal(t, "info", lc.Level)
}

func TestMask(t *testing.T) {
	m := map[string]any{
		"market": map[string]any{"api_token": "abc", "curve_file": "curve.csv"},
		"items":  []any{map[string]any{"password": "p"}},
	}
	mask(m)
	assert.Equal(t, "******", m["market"].(map[string]any)["api_token"])
	assert.Equal(t, "curve.csv", m["market"].(map[string]any)["curve_file"])
	assert.Equal(t, "******", m["items"].([]any)[0].(map[string]any)["password"])
}
