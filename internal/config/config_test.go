package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Biz", "llc_single_member")
	cfg.Fiscal.YearStart = "07-01"

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business.Name, got.Business.Name)
	assert.Equal(t, cfg.Business.EntityType, got.Business.EntityType)
	assert.Equal(t, "07-01", got.Fiscal.YearStart)
	assert.Equal(t, filepath.Join(dir, "data", "ledger.db"), got.Storage.Path)
	assert.Equal(t, filepath.Join(dir, "logs"), got.Audit.Dir)
	assert.True(t, got.Audit.Enabled)
	assert.Equal(t, ":8080", got.Server.Addr)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company", "llc_single_member")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "llc_single_member", cfg.Business.EntityType)
	assert.Equal(t, "01-01", cfg.Fiscal.YearStart)
	assert.Equal(t, "data/ledger.db", cfg.Storage.Path)
	assert.Equal(t, "release", cfg.Log.Mode)
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz", "llc_single_member")
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "entity_type: llc_single_member")
	assert.Contains(t, contents, "year_start: 01-01")
	assert.Contains(t, contents, "path: data/ledger.db")
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, Default("Biz", "")))

	t.Setenv(EnvLogMode, "debug")
	t.Setenv(EnvAddr, "127.0.0.1:9999")
	t.Setenv(EnvDBPath, "/tmp/other.db")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", got.Log.Mode)
	assert.Equal(t, "127.0.0.1:9999", got.Server.Addr)
	assert.Equal(t, "/tmp/other.db", got.Storage.Path)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, Default("Biz", "")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvAddr+"=:7070\n"), 0o644))

	// godotenv never overrides variables that are already set.
	t.Setenv(EnvAddr, "")
	os.Unsetenv(EnvAddr)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", got.Server.Addr)
	os.Unsetenv(EnvAddr)
}

func TestValidate(t *testing.T) {
	cfg := Default("Biz", "")
	require.NoError(t, cfg.Validate())

	cfg.Fiscal.YearStart = "13-01"
	assert.Error(t, cfg.Validate())

	cfg.Fiscal.YearStart = "1-1"
	assert.Error(t, cfg.Validate())

	cfg = Default("Biz", "")
	cfg.Storage.Path = ""
	assert.Error(t, cfg.Validate())
}
