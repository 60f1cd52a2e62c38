package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("FINSIM_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "data/rules", s.RulesDir)
	assert.Equal(t, "data/economic.csv", s.EconomicFile)
	assert.Equal(t, "console", s.Format)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Zero(t, s.Runs)
	assert.Zero(t, s.Seed)
}

func TestLoadSettingsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finsim.yaml")
	content := "rules_dir: /etc/finsim/rules\nformat: json\nruns: 250\nseed: 42\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("FINSIM_FORMAT", "csv")
	t.Setenv("FINSIM_LOG_LEVEL", "debug")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/finsim/rules", s.RulesDir)
	assert.Equal(t, "csv", s.Format)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 250, s.Runs)
	assert.Equal(t, int64(42), s.Seed)
}

func TestLoadSettingsMissingExplicitFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read settings")
}
