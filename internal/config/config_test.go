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
	t.Setenv("MEMORIAL_STORAGE_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "0.05", cfg.Billing.CatalogRate.String())
	assert.Equal(t, "0.15", cfg.Billing.ManualRate.String())
	assert.Equal(t, "0.15", cfg.Billing.LegacyRate.String())
	assert.Equal(t, "15", cfg.Billing.DefaultCommissionPercent.String())
	assert.Equal(t, 2048, cfg.Audit.CompressThreshold)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MEMORIAL_STORAGE_DRIVER", "postgres")
	t.Setenv("MEMORIAL_DATABASE_URL", "postgres://localhost/memorial")
	t.Setenv("MEMORIAL_APP_PORT", "9090")
	t.Setenv("MEMORIAL_BILLING_CATALOG_RATE", "0.1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "postgres://localhost/memorial", cfg.Database.URL)
	assert.Equal(t, "0.1", cfg.Billing.CatalogRate.String())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memorial.yaml")
	content := "storage:\n  driver: memory\nbilling:\n  manual_rate: \"0.2\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "0.2", cfg.Billing.ManualRate.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"postgres without url": {"MEMORIAL_STORAGE_DRIVER": "postgres"},
		"unknown driver":       {"MEMORIAL_STORAGE_DRIVER": "mongo"},
		"zero rate":            {"MEMORIAL_STORAGE_DRIVER": "memory", "MEMORIAL_BILLING_MANUAL_RATE": "0"},
		"bad decimal":          {"MEMORIAL_STORAGE_DRIVER": "memory", "MEMORIAL_BILLING_LEGACY_RATE": "abc"},
		"commission over 100":  {"MEMORIAL_STORAGE_DRIVER": "memory", "MEMORIAL_BILLING_DEFAULT_COMMISSION_PERCENT": "150"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
