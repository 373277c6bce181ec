package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_RequiredFields(t *testing.T) {
	setEnv(t, map[string]string{
		"CMS_ADMIN_URL":   "https://admin.example.com",
		"CMS_APP_KEY":     "key123",
		"DESIGNSYNC_BASE": t.TempDir(),
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://admin.example.com", cfg.ServerURL)
	assert.Equal(t, "key123", cfg.AppKey)
	assert.True(t, filepath.IsAbs(cfg.Base))
}

func TestLoad_MissingServerURL(t *testing.T) {
	setEnv(t, map[string]string{
		"CMS_ADMIN_URL":   "",
		"CMS_APP_KEY":     "key123",
		"DESIGNSYNC_BASE": t.TempDir(),
	})

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CMS_ADMIN_URL")
}

func TestLoad_MissingAppKey(t *testing.T) {
	setEnv(t, map[string]string{
		"CMS_ADMIN_URL":   "https://admin.example.com",
		"CMS_APP_KEY":     "",
		"DESIGNSYNC_BASE": t.TempDir(),
	})

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CMS_APP_KEY")
}

func TestLoad_RejectsNonHTTPURL(t *testing.T) {
	setEnv(t, map[string]string{
		"CMS_ADMIN_URL":   "ftp://admin.example.com",
		"CMS_APP_KEY":     "key123",
		"DESIGNSYNC_BASE": t.TempDir(),
	})

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http(s)")
}

func TestLoad_YAMLOverridesFillEmptyFields(t *testing.T) {
	base := t.TempDir()
	yml := "serverUrl: https://yaml.example.com\nappKey: yamlkey\n"
	require.NoError(t, os.WriteFile(filepath.Join(base, OverridesFile), []byte(yml), 0o600))

	setEnv(t, map[string]string{
		"CMS_ADMIN_URL":   "",
		"CMS_APP_KEY":     "",
		"DESIGNSYNC_BASE": base,
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://yaml.example.com", cfg.ServerURL)
	assert.Equal(t, "yamlkey", cfg.AppKey)
}

func TestLoad_EnvWinsOverYAML(t *testing.T) {
	base := t.TempDir()
	yml := "serverUrl: https://yaml.example.com\nappKey: yamlkey\n"
	require.NoError(t, os.WriteFile(filepath.Join(base, OverridesFile), []byte(yml), 0o600))

	setEnv(t, map[string]string{
		"CMS_ADMIN_URL":   "https://env.example.com",
		"CMS_APP_KEY":     "envkey",
		"DESIGNSYNC_BASE": base,
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.ServerURL)
	assert.Equal(t, "envkey", cfg.AppKey)
}

func TestLoad_MalformedYAML(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, OverridesFile), []byte(":\n\t bad"), 0o600))

	setEnv(t, map[string]string{
		"CMS_ADMIN_URL":   "",
		"CMS_APP_KEY":     "k",
		"DESIGNSYNC_BASE": base,
	})

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), OverridesFile)
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Environment: "production"}).IsProduction())
	assert.False(t, (&Config{Environment: "development"}).IsProduction())
}
