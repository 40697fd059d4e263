package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl   string `json:"base_url"`
	UserAgent string `json:"user_agent"`
	Timeout   int    `json:"timeout"`
	Retries   *int   `json:"retries"`
}

func intPtr(n int) *int {
	return &n
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0644)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "caspfetch.json5")
	writeFile(t, name, `{
		// comments are allowed
		base_url: "https://predictioncenter.org/",
		user_agent: "CASP-downloader/1.0",
		timeout: 60,
	}`)
	writeFile(t, filepath.Join(dir, "caspfetch.local.json5"), `{timeout: 5}`)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:   "https://predictioncenter.org/",
		UserAgent: "CASP-downloader/1.0",
		Timeout:   5,
	}, cfg)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "caspfetch.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigWithDefaults(t *testing.T) {
	defaults := testConfig{
		BaseUrl:   "https://predictioncenter.org/",
		UserAgent: "curl/8",
		Timeout:   60,
	}

	dir := t.TempDir()
	cfg, err := ReadConfigWithDefaults(filepath.Join(dir, "missing.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	name := filepath.Join(dir, "caspfetch.json5")
	writeFile(t, name, `{base_url: "http://localhost:8080/"}`)
	cfg, err = ReadConfigWithDefaults(name, defaults)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/", cfg.BaseUrl)
	require.Equal(t, "curl/8", cfg.UserAgent)
	require.Equal(t, 60, cfg.Timeout)
}

func TestReadConfigInvalid(t *testing.T) {
	name := filepath.Join(t.TempDir(), "caspfetch.json5")
	writeFile(t, name, `{base_url: `)
	_, err := ReadConfigWithDefaults(name, testConfig{})
	require.Error(t, err)
}

func TestReadConfigExplicitZeroPointer(t *testing.T) {
	defaults := testConfig{Timeout: 60, Retries: intPtr(3)}

	dir := t.TempDir()
	name := filepath.Join(dir, "caspfetch.json5")
	writeFile(t, name, `{timeout: 0, retries: 0}`)
	cfg, err := ReadConfigWithDefaults(name, defaults)
	require.NoError(t, err)
	require.Equal(t, 60, cfg.Timeout)
	require.NotNil(t, cfg.Retries)
	require.Equal(t, 0, *cfg.Retries)
	require.Equal(t, 3, *defaults.Retries)

	writeFile(t, name, `{retries: 5}`)
	writeFile(t, filepath.Join(dir, "caspfetch.local.json5"), `{retries: 0}`)
	cfg, err = ReadConfigWithDefaults(name, defaults)
	require.NoError(t, err)
	require.Equal(t, 0, *cfg.Retries)

	writeFile(t, filepath.Join(dir, "caspfetch.local.json5"), `{}`)
	cfg, err = ReadConfigWithDefaults(name, defaults)
	require.NoError(t, err)
	require.Equal(t, 5, *cfg.Retries)
}
