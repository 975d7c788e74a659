package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_leverage_bot/internal/config"
	"github.com/vitos/perp_leverage_bot/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
policy:
  endpoint: http://localhost:5000
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.ModePaper, cfg.Mode)
	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, 20.0, cfg.Trading.MaxLeverage)
	assert.Equal(t, 10000.0, cfg.Trading.InitialBalance)
	assert.Equal(t, 10000, cfg.Trading.CycleIntervalMs)
	assert.Equal(t, "data/paper_trades.json", cfg.Storage.HistoryFile)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadLiveModeDefaults(t *testing.T) {
	path := writeConfig(t, `
mode: live
policy:
  endpoint: http://localhost:5000
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/live_trades.json", cfg.Storage.HistoryFile)
}

func TestLoadRejectsBadMode(t *testing.T) {
	path := writeConfig(t, `
mode: dry-run
policy:
  endpoint: http://localhost:5000
`)

	_, err := config.Load(path)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "mode", cfgErr.Field)
}

func TestLoadRejectsLeverageOutOfRange(t *testing.T) {
	path := writeConfig(t, `
trading:
  max_leverage: 200
policy:
  endpoint: http://localhost:5000
`)

	_, err := config.Load(path)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "trading.max_leverage", cfgErr.Field)
}

func TestLoadRequiresPolicyEndpoint(t *testing.T) {
	path := writeConfig(t, `
mode: paper
`)

	_, err := config.Load(path)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "policy.endpoint", cfgErr.Field)
}

func TestCredentialsOptionalInPaperMode(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_SECRET_KEY", "")

	creds, err := config.LoadCredentials(config.ModePaper)
	require.NoError(t, err)
	assert.Empty(t, creds.APIKey)
}

func TestCredentialsRequiredInLiveMode(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_SECRET_KEY", "")

	_, err := config.LoadCredentials(config.ModeLive)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "credentials", cfgErr.Field)

	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_SECRET_KEY", "secret")
	creds, err := config.LoadCredentials(config.ModeLive)
	require.NoError(t, err)
	assert.Equal(t, "key", creds.APIKey)
}
