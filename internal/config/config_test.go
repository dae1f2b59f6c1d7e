package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	cfg := &Config{Env: "test", ListenAddr: ":8080", DatabaseURL: "postgres://localhost/test"}
	assert.NoError(t, Validate(cfg))
}

func TestValidateRejectsMissingDatabaseURL(t *testing.T) {
	cfg := &Config{Env: "test", ListenAddr: ":8080"}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestEnvOnlyFallsBackToDefaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LISTEN_ADDR")
	os.Unsetenv("DATABASE_URL")

	cfg := envOnly()
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestEnvOnlyReadsStaticTokensList(t *testing.T) {
	os.Setenv("STATIC_TOKENS", "a, b ,c")
	defer os.Unsetenv("STATIC_TOKENS")

	cfg := envOnly()
	assert.Equal(t, []string{"a", "b", "c"}, cfg.StaticTokens)
}

func TestLoadFromPathParsesYAMLOverOnTopOfEnvDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env: staging\nlistenAddr: \":9999\"\ndatabaseURL: \"postgres://db/x\"\n"), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "postgres://db/x", cfg.DatabaseURL)
}

func TestLoadFromPathRejectsMissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFallsBackToEnvWhenNoFileFound(t *testing.T) {
	os.Unsetenv("CONFIG_PATH")
	wd, err := os.Getwd()
	require.NoError(t, err)
	tmp := t.TempDir()
	require.NoError(t, os.Chdir(tmp))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
}
