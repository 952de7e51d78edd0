package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.GetTotalTimeout())
	assert.Equal(t, 800*time.Millisecond, cfg.GetRequestDelay())
	assert.Equal(t, FormatDocx, cfg.Export.Format)
	assert.Equal(t, "文章集", cfg.Export.DefaultKeyword)
	assert.Equal(t, DriverNone, cfg.Storage.Driver)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default().Export, cfg.Export)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
export:
  request_delay_ms: 500
  format: md
storage:
  driver: sqlite
  dsn: ledger.db
observability:
  log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.GetRequestDelay())
	assert.Equal(t, FormatMD, cfg.Export.Format)
	assert.Equal(t, "文章集", cfg.Export.DefaultKeyword, "unset keys keep defaults")
	assert.Equal(t, 30000, cfg.HTTP.TotalTimeoutMS)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Export.RequestDelayMS)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "export:\n  delay: 5\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no user agent", func(c *Config) { c.HTTP.UserAgent = "" }},
		{"zero timeout", func(c *Config) { c.HTTP.TotalTimeoutMS = 0 }},
		{"backoff inverted", func(c *Config) { c.Backoff.MinMS, c.Backoff.MaxMS = 10, 5 }},
		{"negative delay", func(c *Config) { c.Export.RequestDelayMS = -1 }},
		{"bad format", func(c *Config) { c.Export.Format = "pdf" }},
		{"no keyword", func(c *Config) { c.Export.DefaultKeyword = "" }},
		{"driver without dsn", func(c *Config) { c.Storage.Driver = DriverMSSQL }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"bad log level", func(c *Config) { c.Observability.LogLevel = "verbose" }},
		{"rod without timeout", func(c *Config) { c.Rod.Enabled = true; c.Rod.PageTimeoutS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSelectorOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "selectors/shbb.yaml", `
article_body: "#main .text"
article_body_fallbacks:
  - ".backup"
`)
	cfg := Default()
	cfg.Sites.SelectorsFiles = map[string]string{"shbb.gov.cn": "selectors/shbb.yaml"}

	overrides, err := cfg.SelectorOverrides(dir)
	require.NoError(t, err)

	s := overrides["shbb.gov.cn"]
	assert.Equal(t, "#main .text", s.ArticleBody)
	assert.Equal(t, []string{".backup"}, s.ArticleBodyFallbacks)
	assert.Empty(t, s.ListingItem)
}

func TestLoadSelectorsRejectsInvalidSelector(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", `listing_item: "tr[["`)

	_, err := LoadSelectors(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing_item")
}

func TestLoadSelectorsRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", `article: "#x"`)

	_, err := LoadSelectors(path)
	assert.Error(t, err)
}
