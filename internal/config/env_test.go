package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv unsets key for the test and restores the previous value after.
func clearEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDotEnvSetsStoreAndStrategyKeys(t *testing.T) {
	path := writeEnvFile(t, "STRATEGY_ID=7f9c0d2e\nREDIS_DSN=redis:6379\nPOSTGRES_DSN=postgres://bot@db/crossover\n")
	for _, key := range []string{"STRATEGY_ID", "REDIS_DSN", "POSTGRES_DSN"} {
		clearEnv(t, key)
	}

	require.NoError(t, loadDotEnv(path))

	assert.Equal(t, "7f9c0d2e", os.Getenv("STRATEGY_ID"))
	assert.Equal(t, "redis:6379", os.Getenv("REDIS_DSN"))
	assert.Equal(t, "postgres://bot@db/crossover", os.Getenv("POSTGRES_DSN"))
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	path := writeEnvFile(t, "REDIS_DSN=from-file:6379\n")
	t.Setenv("REDIS_DSN", "from-env:6379")

	require.NoError(t, loadDotEnv(path))

	assert.Equal(t, "from-env:6379", os.Getenv("REDIS_DSN"))
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	err := loadDotEnv(filepath.Join(t.TempDir(), ".env"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadDotEnvIfPresentIgnoresMissingFile(t *testing.T) {
	clearEnv(t, "STRATEGY_ID")

	assert.NotPanics(t, func() {
		loadDotEnvIfPresent(filepath.Join(t.TempDir(), "absent.env"))
	})
	_, set := os.LookupEnv("STRATEGY_ID")
	assert.False(t, set)
}

func TestLoadStrategyIDFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STRATEGY_ID=from-dotenv\n"), 0o600))
	clearEnv(t, "STRATEGY_ID")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	resetFlags := resetFlagSet(t)
	defer resetFlags()
	os.Args = []string{"cmd", "--mode", "replay", "--replay-path", "candles.json"}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.StrategyID)
}
