package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"APP_PORT", "LOG_LEVEL", "STORE_TIMEOUT", "STOCK_VALUATION_MODE", "VALIDATE_CONSUMPTION_EDITS",
	"AUDIT_LOG_CAPACITY", "WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN",
	"WHATSAPP_MANAGER_ID", "GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
	"REPORT_CRON_SCHEDULE", "TIMEZONE", "MONGODB_URI", "MONGODB_DB_NAME",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "accumulate", cfg.Inventory.ValuationMode)
	assert.False(t, cfg.Inventory.ValidateConsumptionEdits)
	assert.Equal(t, 1000, cfg.Inventory.AuditLogCapacity)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
	assert.Equal(t, "sitestock", cfg.MongoDB.DBName)
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9090\nSTORE_TIMEOUT=2s\nSTOCK_VALUATION_MODE=last_rate\nVALIDATE_CONSUMPTION_EDITS=true\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "last_rate", cfg.Inventory.ValuationMode)
	assert.True(t, cfg.Inventory.ValidateConsumptionEdits)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOCK_VALUATION_MODE", "fifo")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "STOCK_VALUATION_MODE")

	clearEnv(t)
	t.Setenv("STORE_TIMEOUT", "soon")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "STORE_TIMEOUT")
}

func TestValidate_OptionalIntegrations(t *testing.T) {
	cfg := validConfig()
	cfg.WhatsApp.AccessToken = "token"
	cfg.WhatsApp.PhoneNumberID = "123"
	assert.ErrorContains(t, cfg.Validate(), "META_VERIFY_TOKEN")

	cfg.WhatsApp.VerifyToken = "verify"
	assert.NoError(t, cfg.Validate())

	cfg.Sheets.CredentialsPath = "creds.json"
	assert.ErrorContains(t, cfg.Validate(), "GOOGLE_SHEET_DATABASE_ID")
}

func TestValidate_Timezone(t *testing.T) {
	cfg := validConfig()
	cfg.Reporting.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, cfg.Validate(), "TIMEZONE")
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080"},
		Store:     StoreConfig{Timeout: time.Second},
		Inventory: InventoryConfig{ValuationMode: "accumulate", AuditLogCapacity: 10},
		WhatsApp:  WhatsAppConfig{BaseURL: "https://graph.facebook.com", APIVersion: "v20.0"},
		Reporting: ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "UTC"},
		MongoDB:   MongoDBConfig{DBName: "sitestock"},
	}
}
