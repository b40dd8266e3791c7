package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultServerURL is the trading server a fresh install talks to.
	DefaultServerURL = "http://localhost:5000"

	// DefaultCurrencySymbol prefixes every rendered money value.
	DefaultCurrencySymbol = "₹"

	// EnvServerURL overrides the configured server URL.
	EnvServerURL = "TRADEDESK_SERVER_URL"

	// EnvEmail overrides the configured viewer identity.
	EnvEmail = "TRADEDESK_EMAIL"

	appName = "tradedesk"
)

// ErrTradingDisabled is returned when an order is attempted with trading_enabled set to false.
var ErrTradingDisabled = errors.New("trading is disabled (set trading_enabled: true in config)")

// Symbol is one row of the market board.
type Symbol struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// Symbols is the board in display order.
type Symbols []Symbol

// Name returns the display name configured for symbol, or the symbol itself.
func (s Symbols) Name(symbol string) string {
	for _, sym := range s {
		if sym.Symbol == symbol {
			return sym.Name
		}
	}
	return symbol
}

// Config holds the CLI configuration.
type Config struct {
	ServerURL      string   `yaml:"server_url"`
	Email          string   `yaml:"email"`
	CurrencySymbol string   `yaml:"currency_symbol"`
	TradingEnabled *bool    `yaml:"trading_enabled,omitempty"`
	Symbols        Symbols  `yaml:"symbols,omitempty"`
	LogFile        string   `yaml:"log_file,omitempty"`
}

// DefaultSymbols is the NSE board the demo server streams.
func DefaultSymbols() []Symbol {
	return []Symbol{
		{Symbol: "RELIANCE.NS", Name: "Reliance Industries"},
		{Symbol: "TCS.NS", Name: "Tata Consultancy Services"},
		{Symbol: "HDFCBANK.NS", Name: "HDFC Bank"},
		{Symbol: "INFY.NS", Name: "Infosys"},
		{Symbol: "WIPRO.NS", Name: "Wipro"},
		{Symbol: "ICICIBANK.NS", Name: "ICICI Bank"},
		{Symbol: "ITC.NS", Name: "ITC"},
		{Symbol: "SBIN.NS", Name: "State Bank of India"},
	}
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      DefaultServerURL,
		CurrencySymbol: DefaultCurrencySymbol,
		Symbols:        DefaultSymbols(),
	}
}

// IsTradingEnabled reports whether orders may be placed. Unset means enabled.
func (c *Config) IsTradingEnabled() bool {
	return c.TradingEnabled == nil || *c.TradingEnabled
}

// ConfigDir returns the directory holding tradedesk's files.
// Respects XDG_CONFIG_HOME and falls back to ~/.config/tradedesk.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultLogPath returns where logs go when nothing else is configured.
func DefaultLogPath() string {
	return filepath.Join(ConfigDir(), appName+".log")
}

// Load reads the config at path. A missing file yields defaults; fields
// absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = DefaultCurrencySymbol
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultSymbols()
	}
	cfg.ServerURL = strings.TrimSuffix(cfg.ServerURL, "/")

	return cfg, nil
}

// LoadWithEnv loads a .env file from the working directory if present, then
// the config at path, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	// Missing .env is the common case.
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg)
	return cfg, nil
}

// ApplyEnv overrides config fields from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.ServerURL = strings.TrimSuffix(v, "/")
	}
	if v := os.Getenv(EnvEmail); v != "" {
		cfg.Email = v
	}
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
