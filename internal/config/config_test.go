package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("SMTP_PORT", "")
		t.Setenv("CORS_ORIGINS", "")
		t.Setenv("SMTP_HOST", "")

		cfg := FromEnv()
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 587, cfg.SMTPPort)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
		assert.False(t, cfg.MailEnabled())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("SCYLLA_HOSTS", "10.0.0.1, 10.0.0.2,,")
		t.Setenv("MINIO_USE_SSL", "true")
		t.Setenv("AUTH_URL", "https://project.example.co/")
		t.Setenv("SMTP_HOST", "smtp.example.com")
		t.Setenv("SMTP_USERNAME", "shop")

		cfg := FromEnv()
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.ScyllaHosts)
		assert.True(t, cfg.MinioUseSSL)
		assert.Equal(t, "https://project.example.co", cfg.AuthURL)
		assert.True(t, cfg.MailEnabled())
	})
}

func TestLoadSettings(t *testing.T) {
	t.Run("missing file keeps defaults", func(t *testing.T) {
		settings, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.True(t, settings.FreeShippingThreshold.Equal(decimal.NewFromInt(999)))
		assert.True(t, settings.ShippingFee.Equal(decimal.NewFromInt(99)))
		assert.Equal(t, "0.18", settings.TaxRate.String())
	})

	t.Run("file overrides selected fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store_name: Atelier\nshipping_fee: 149\ntax_rate: 0.05\n"), 0o600))

		settings, err := LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, "Atelier", settings.StoreName)
		assert.Equal(t, "149", settings.ShippingFee.String())
		assert.Equal(t, "0.05", settings.TaxRate.String())
		assert.Equal(t, "INR", settings.Currency)
	})

	t.Run("negative values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tax_rate: -1\n"), 0o600))

		_, err := LoadSettings(path)
		assert.Error(t, err)
	})
}
