package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github-sentinel/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test1234")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err, "an explicitly named env file must exist")
	assert.Nil(t, cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "ghp_test1234", cfg.GitHub.Token)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.BaseURL)
	assert.Equal(t, 30, cfg.GitHub.TimeoutSeconds)
	assert.Equal(t, "markdown", cfg.DefaultReportFormat)
	assert.Equal(t, 1, cfg.Scheduler.MaxWorkers)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 10485760, cfg.Logging.MaxFileSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "GITHUB_TOKEN=from-file\nSCHEDULER_MAX_WORKERS=4\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("GITHUB_TOKEN", "from-env")
	// Keys only defined in the file are exported by Load; clear them afterwards.
	t.Setenv("SCHEDULER_MAX_WORKERS", "")
	require.NoError(t, os.Unsetenv("SCHEDULER_MAX_WORKERS"))
	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GitHub.Token)
	assert.Equal(t, 4, cfg.Scheduler.MaxWorkers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate_MissingToken(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()

	var cfgErr *serrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"GITHUB_TOKEN"}, cfgErr.Missing)
}

func TestMaskedToken(t *testing.T) {
	assert.Equal(t, "Not set", (&Config{}).MaskedToken())
	cfg := &Config{GitHub: GitHubConfig{Token: "ghp_abcdefgh1234"}}
	assert.Equal(t, "***1234", cfg.MaskedToken())
}

func TestDisplayDatabaseURL(t *testing.T) {
	const dsn = "postgres://sentinel:s3cret@db:5432/sentinel?sslmode=disable"

	dev := &Config{Environment: "development", Database: DatabaseConfig{URL: dsn}}
	assert.False(t, dev.IsProduction())
	assert.Equal(t, dsn, dev.DisplayDatabaseURL())

	prod := &Config{Environment: "Production", Database: DatabaseConfig{URL: dsn}}
	assert.True(t, prod.IsProduction())
	assert.Equal(t, "postgres://sentinel:xxxxx@db:5432/sentinel?sslmode=disable", prod.DisplayDatabaseURL())
}
