package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		old, had := os.LookupEnv(k)
		os.Setenv(k, v)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func isolateXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	withEnv(t, map[string]string{
		"XDG_CONFIG_HOME": filepath.Join(dir, "config"),
		"XDG_DATA_HOME":   filepath.Join(dir, "data"),
	})
	return dir
}

func TestDefault_PassesValidation(t *testing.T) {
	require.NoError(t, validate(Default()))
}

func TestLoad_AppliesBuiltinDefaultsWithNoConfigFiles(t *testing.T) {
	isolateXDG(t)
	withEnv(t, map[string]string{"MISSIONCTL_TEST_MODE": "1"})

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, PlacementSession, cfg.DefaultPlacement)
	require.Equal(t, MergeSquash, cfg.MergeStrategy)
	require.Equal(t, 3, cfg.MaxParallel)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	isolateXDG(t)
	withEnv(t, map[string]string{
		"MISSIONCTL_TEST_MODE":   "1",
		"MISSIONCTL_MAX_PARALLEL": "7",
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7, cfg.MaxParallel)
}

func TestLoad_ProjectConfigFileOverridesDefault(t *testing.T) {
	isolateXDG(t)
	withEnv(t, map[string]string{"MISSIONCTL_TEST_MODE": "1"})

	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".missionctl.yaml"), []byte("max_parallel: 9\n"), 0644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(projectDir))
	t.Cleanup(func() { os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9, cfg.MaxParallel)
}

func TestValidate_RejectsPollIntervalBelowMinimumOutsideTestMode(t *testing.T) {
	os.Unsetenv("MISSIONCTL_TEST_MODE")
	cfg := Default()
	cfg.PollInterval = time.Second
	require.Error(t, validate(cfg))
}

func TestValidate_RejectsInvertedPortRange(t *testing.T) {
	cfg := Default()
	cfg.PortRangeStart = 14200
	cfg.PortRangeEnd = 14100
	require.Error(t, validate(cfg))
}

func TestValidate_RejectsZeroMaxParallel(t *testing.T) {
	cfg := Default()
	cfg.MaxParallel = 0
	require.Error(t, validate(cfg))
}

func TestDataDir_UsesXDGDataHomeWhenSet(t *testing.T) {
	dir := t.TempDir()
	withEnv(t, map[string]string{"XDG_DATA_HOME": dir})
	require.Equal(t, filepath.Join(dir, "missionctl"), DataDir())
}
