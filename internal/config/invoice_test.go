package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInvoiceConfigDefaultsWhenFileMissing(t *testing.T) {
	holder, err := NewInvoiceConfigHolder(Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultInvoiceConfig(), holder.Get())
}

func TestInvoiceConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.yml")
	body := "invoice:\n  provincialTaxRate: 0.08\n  dueDays: 15\n  writePolicy: compensate\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	holder, err := NewInvoiceConfigHolder(Config{InvoiceConfigPath: path}, zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 0.05, cfg.FederalTaxRate)
	assert.Equal(t, 0.08, cfg.ProvincialTaxRate)
	assert.Equal(t, 15, cfg.DueDays)
	assert.Equal(t, 4, cfg.NumberWidth)
	assert.Equal(t, WritePolicyCompensate, cfg.WritePolicy)
}

func TestInvoiceConfigRejectsUnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.yml")
	require.NoError(t, os.WriteFile(path, []byte("invoice:\n  writePolicy: maybe\n"), 0o600))

	_, err := NewInvoiceConfigHolder(Config{InvoiceConfigPath: path}, zap.NewNop())
	assert.Error(t, err)
}

func TestInvoiceConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.yml")
	require.NoError(t, os.WriteFile(path, []byte("invoice:\n  dueDays: 15\n"), 0o600))
	t.Setenv("SIINO_INVOICE_WRITEPOLICY", "compensate")
	t.Setenv("SIINO_INVOICE_DUEDAYS", "45")
	t.Setenv("SIINO_INVOICE_FEDERALTAXRATE", "0.06")

	holder, err := NewInvoiceConfigHolder(Config{InvoiceConfigPath: path}, zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, WritePolicyCompensate, cfg.WritePolicy)
	assert.Equal(t, 45, cfg.DueDays)
	assert.Equal(t, 0.06, cfg.FederalTaxRate)
	assert.Equal(t, 4, cfg.NumberWidth)
}

func TestDefaultRates(t *testing.T) {
	a, b := DefaultInvoiceConfig().DefaultRates()
	assert.Equal(t, "0.05", a.String())
	assert.Equal(t, "0.09975", b.String())
}

func TestLoadNormalizesDriverAndNumbering(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Supabase")
	t.Setenv("INVOICE_NUMBERING", "REDIS")
	t.Setenv("REST_URL", "https://example.test/rest/v1/")

	cfg := Load()
	assert.True(t, cfg.UsesRest())
	assert.Equal(t, NumberingRedis, cfg.Numbering)
	assert.Equal(t, "https://example.test/rest/v1", cfg.Rest.URL)
}

func TestLoadLogAndTelemetry(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "bad")

	cfg := Load()
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.True(t, cfg.Debug())
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http", cfg.Telemetry.Protocol)
	assert.Equal(t, 0.1, cfg.Telemetry.SamplingRatio)
}
