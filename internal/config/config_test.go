package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Point the loader at a file that does not exist so only env
	// defaults apply.
	t.Setenv("REVLENS_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Dashboard.PageSize)
	assert.Equal(t, 20, cfg.Dashboard.TopCustomers)
	assert.Equal(t, 5000.0, cfg.Dashboard.LowThresholdDefault)
	assert.Equal(t, 0.0, cfg.Dashboard.LowThresholdMin)
	assert.Equal(t, 100000.0, cfg.Dashboard.LowThresholdMax)
	assert.Equal(t, 300000.0, cfg.Dashboard.HighThresholdDefault)
	assert.Equal(t, 1000000.0, cfg.Dashboard.HighThresholdMax)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("REVLENS_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("REVLENS_SERVER_PORT", "9090")
	t.Setenv("REVLENS_DASHBOARD_PAGE_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Dashboard.PageSize)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revlens.yaml")
	content := []byte("server:\n  port: 9191\nlogging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	t.Setenv("REVLENS_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	// envconfig defaults still win for fields it populates; the file
	// fills fields the environment left at zero.
	assert.NotZero(t, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Dashboard.PageSize)
}

func TestLoad_InvalidConfig(t *testing.T) {
	t.Setenv("REVLENS_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "REVLENS_SERVER_PORT", "70000"},
		{"zero page size", "REVLENS_DASHBOARD_PAGE_SIZE", "-1"},
		{"default outside range", "REVLENS_DASHBOARD_LOW_THRESHOLD_DEFAULT", "200000"},
		{"inverted range", "REVLENS_DASHBOARD_HIGH_THRESHOLD_MIN", "2000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
