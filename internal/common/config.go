// Package common provides shared utilities for fundval
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Quote source identifiers
const (
	SourceTHS       = "ths"
	SourceEastmoney = "eastmoney"
)

// Config holds all configuration for fundval
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Clients     ClientsConfig   `toml:"clients"`
	Valuation   ValuationConfig `toml:"valuation"`
	Cache       CacheConfig     `toml:"cache"`
	Output      OutputConfig    `toml:"output"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	THS       THSConfig       `toml:"ths"`
	Eastmoney EastmoneyConfig `toml:"eastmoney"`
	Gemini    GeminiConfig    `toml:"gemini"`
}

// THSConfig holds 10jqka fund valuation endpoint configuration
type THSConfig struct {
	BaseURL   string `toml:"base_url"`
	Referer   string `toml:"referer"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *THSConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// EastmoneyConfig holds configuration for the Eastmoney family of endpoints
// (fundgz estimates, fund-suggest search, push2 quotes).
type EastmoneyConfig struct {
	FundGZURL     string `toml:"fundgz_url"`
	SearchURL     string `toml:"search_url"`
	PushURL       string `toml:"push_url"`
	UT            string `toml:"ut"`
	RateLimit     int    `toml:"rate_limit"`
	Timeout       string `toml:"timeout"`
	SearchTimeout string `toml:"search_timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EastmoneyConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetSearchTimeout parses and returns the fund search timeout duration
func (c *EastmoneyConfig) GetSearchTimeout() time.Duration {
	return parseDuration(c.SearchTimeout, 5*time.Second)
}

// GeminiConfig holds Gemini API configuration used for screenshot OCR
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ValuationConfig controls quote fan-out and source selection
type ValuationConfig struct {
	Workers       int      `toml:"workers"`
	PrimarySource string   `toml:"primary_source"` // "ths" or "eastmoney"
	Fallback      bool     `toml:"fallback"`       // try the other source when the primary fails
	MarketIndices []string `toml:"market_indices"` // push2 secids, e.g. "1.000001"
}

// CacheConfig holds fund-name cache configuration
type CacheConfig struct {
	SeedFile string `toml:"seed_file"` // optional TOML file of extra [[fund]] entries
}

// OutputConfig holds CLI output configuration
type OutputConfig struct {
	ResultsFile string `toml:"results_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Clients: ClientsConfig{
			THS: THSConfig{
				BaseURL:   "https://gz-fund.10jqka.com.cn",
				Referer:   "https://fund.10jqka.com.cn/",
				RateLimit: 20,
				Timeout:   "10s",
			},
			Eastmoney: EastmoneyConfig{
				FundGZURL:     "https://fundgz.1234567.com.cn",
				SearchURL:     "https://fundsuggest.eastmoney.com",
				PushURL:       "https://push2.eastmoney.com",
				UT:            "bd1d9ddb040897f350c061f0674230d7",
				RateLimit:     20,
				Timeout:       "10s",
				SearchTimeout: "5s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Valuation: ValuationConfig{
			Workers:       20,
			PrimarySource: SourceTHS,
			Fallback:      true,
			MarketIndices: []string{"1.000001", "0.399001", "0.399006", "1.000688", "0.899050"},
		},
		Output: OutputConfig{
			ResultsFile: "fund_valuation_results.txt",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"console"},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first if present.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateValuation(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FUNDVAL_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FUNDVAL_HOST"); host != "" {
		config.Server.Host = host
	}

	// PORT is honoured for PaaS deployments; FUNDVAL_PORT wins when both are set
	for _, name := range []string{"PORT", "FUNDVAL_PORT"} {
		if port := os.Getenv(name); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				config.Server.Port = p
			}
		}
	}

	if level := os.Getenv("FUNDVAL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if src := os.Getenv("FUNDVAL_QUOTE_SOURCE"); src != "" {
		config.Valuation.PrimarySource = strings.ToLower(strings.TrimSpace(src))
	}

	if workers := os.Getenv("FUNDVAL_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			config.Valuation.Workers = n
		}
	}

	if seed := os.Getenv("FUNDVAL_CACHE_SEED"); seed != "" {
		config.Cache.SeedFile = seed
	}

	for _, name := range []string{"GEMINI_API_KEY", "FUNDVAL_GEMINI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.Gemini.APIKey = v
		}
	}
}

// validateValuation clamps worker count and normalizes the primary source.
func validateValuation(config *Config) {
	if config.Valuation.Workers <= 0 {
		config.Valuation.Workers = 20
	}
	src := strings.ToLower(config.Valuation.PrimarySource)
	if src != SourceTHS && src != SourceEastmoney {
		src = SourceTHS
	}
	config.Valuation.PrimarySource = src
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
