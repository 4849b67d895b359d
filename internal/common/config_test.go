package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8000)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("FUNDVAL_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_FundvalPortWinsOverPORT(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("FUNDVAL_PORT", "7001")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want 7001", cfg.Server.Port)
	}
}

func TestConfig_PlainPORT(t *testing.T) {
	t.Setenv("PORT", "7000")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
}

func TestConfig_GeminiKeyEnvOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.Gemini.APIKey != "from-env" {
		t.Errorf("Gemini.APIKey = %q, want %q", cfg.Clients.Gemini.APIKey, "from-env")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fundval.toml")
	content := `
environment = "production"

[server]
port = 8123

[valuation]
workers = 4
primary_source = "EASTMONEY"

[clients.ths]
timeout = "3s"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.IsProduction() {
		t.Errorf("expected production environment, got %q", cfg.Environment)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("Server.Port = %d, want 8123", cfg.Server.Port)
	}
	if cfg.Valuation.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Valuation.Workers)
	}
	if cfg.Valuation.PrimarySource != SourceEastmoney {
		t.Errorf("PrimarySource = %q, want %q", cfg.Valuation.PrimarySource, SourceEastmoney)
	}
	if cfg.Clients.THS.GetTimeout() != 3*time.Second {
		t.Errorf("THS timeout = %v, want 3s", cfg.Clients.THS.GetTimeout())
	}
	// Untouched sections keep their defaults
	if cfg.Clients.Eastmoney.GetSearchTimeout() != 5*time.Second {
		t.Errorf("search timeout = %v, want 5s", cfg.Clients.Eastmoney.GetSearchTimeout())
	}
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Valuation.Workers != 20 {
		t.Errorf("Workers = %d, want default 20", cfg.Valuation.Workers)
	}
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error for invalid TOML")
	}
}

func TestValidateValuation_ClampsInvalidValues(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Valuation.Workers = -3
	cfg.Valuation.PrimarySource = "yahoo"
	validateValuation(cfg)

	if cfg.Valuation.Workers != 20 {
		t.Errorf("Workers = %d, want 20", cfg.Valuation.Workers)
	}
	if cfg.Valuation.PrimarySource != SourceTHS {
		t.Errorf("PrimarySource = %q, want %q", cfg.Valuation.PrimarySource, SourceTHS)
	}
}

func TestGetTimeout_InvalidFallsBack(t *testing.T) {
	c := THSConfig{Timeout: "soon"}
	if c.GetTimeout() != 10*time.Second {
		t.Errorf("GetTimeout = %v, want 10s fallback", c.GetTimeout())
	}
}

func TestConfig_DefaultResultsFile(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Output.ResultsFile != "fund_valuation_results.txt" {
		t.Errorf("Output.ResultsFile default = %q, want fund_valuation_results.txt", cfg.Output.ResultsFile)
	}
}
