package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/vitos/perp_leverage_bot/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	ModePaper = "paper"
	ModeLive  = "live"
)

type Config struct {
	Mode   string `yaml:"mode"`
	Symbol string `yaml:"symbol"`

	Trading struct {
		MaxLeverage     float64 `yaml:"max_leverage"`
		InitialBalance  float64 `yaml:"initial_balance"`
		CycleIntervalMs int     `yaml:"cycle_interval_ms"`
	} `yaml:"trading"`

	Policy struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"policy"`

	Exchange struct {
		Testnet      bool   `yaml:"testnet"`
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
	} `yaml:"exchange"`

	Storage struct {
		HistoryFile string `yaml:"history_file"`
		SQLitePath  string `yaml:"sqlite_path"`
	} `yaml:"storage"`

	Logging struct {
		Level      string `yaml:"level"`
		WorkerFile string `yaml:"worker_file"`
	} `yaml:"logging"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// Credentials are read from the environment (or a .env file), never from the
// yaml config.
type Credentials struct {
	APIKey    string `envconfig:"BINANCE_API_KEY"`
	APISecret string `envconfig:"BINANCE_SECRET_KEY"`
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModePaper
	}
	if cfg.Symbol == "" {
		cfg.Symbol = "BTCUSDT"
	}
	if cfg.Trading.MaxLeverage == 0 {
		cfg.Trading.MaxLeverage = 20
	}
	if cfg.Trading.InitialBalance == 0 {
		cfg.Trading.InitialBalance = 10000
	}
	if cfg.Trading.CycleIntervalMs == 0 {
		cfg.Trading.CycleIntervalMs = 10000
	}
	if cfg.Storage.HistoryFile == "" {
		if cfg.Mode == ModeLive {
			cfg.Storage.HistoryFile = "data/live_trades.json"
		} else {
			cfg.Storage.HistoryFile = "data/paper_trades.json"
		}
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/bot.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
}

func validate(cfg *Config) error {
	if cfg.Mode != ModePaper && cfg.Mode != ModeLive {
		return &domain.ConfigError{Field: "mode", Msg: fmt.Sprintf("must be %q or %q", ModePaper, ModeLive)}
	}
	if cfg.Trading.MaxLeverage <= 0 || cfg.Trading.MaxLeverage > 125 {
		return &domain.ConfigError{Field: "trading.max_leverage", Msg: "must be in (0, 125]"}
	}
	if cfg.Policy.Endpoint == "" {
		return &domain.ConfigError{Field: "policy.endpoint", Msg: "policy sidecar endpoint is required"}
	}
	return nil
}

// LoadCredentials reads exchange credentials from the environment, loading a
// .env file first when present. Missing keys are fatal only in live mode;
// the paper backend only hits public endpoints.
func LoadCredentials(mode string) (*Credentials, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return nil, &domain.ConfigError{Field: "credentials", Msg: err.Error()}
	}

	if mode == ModeLive && (creds.APIKey == "" || creds.APISecret == "") {
		return nil, &domain.ConfigError{
			Field: "credentials",
			Msg:   "BINANCE_API_KEY and BINANCE_SECRET_KEY are required in live mode",
		}
	}
	return &creds, nil
}
