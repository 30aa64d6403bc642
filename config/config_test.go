package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("default addr: %s", cfg.Server.Addr)
	}
	if cfg.Store.Backend != "firestore" {
		t.Fatalf("default backend: %s", cfg.Store.Backend)
	}
	if cfg.OpenAI.RPM != 30 || cfg.OpenAI.TimeoutSeconds != 20 {
		t.Fatalf("default openai limits: %+v", cfg.OpenAI)
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
server:
  addr: ":9090"
openai:
  model: gpt-4o
  rpm: 5
logging:
  level: debug
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(storeBackendEnv, "memory")

	cfg := Load()
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("file addr not applied: %s", cfg.Server.Addr)
	}
	if cfg.OpenAI.Model != "gpt-4o" || cfg.OpenAI.RPM != 5 {
		t.Fatalf("file openai not applied: %+v", cfg.OpenAI)
	}
	// File values merge over defaults without clobbering unset fields.
	if cfg.OpenAI.TimeoutSeconds != 20 {
		t.Fatalf("default timeout lost: %d", cfg.OpenAI.TimeoutSeconds)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("file log level not applied: %s", cfg.Logging.Level)
	}

	// Env beats file and defaults.
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("env api key not applied")
	}
	if cfg.Store.Backend != "memory" {
		t.Fatalf("env backend not applied: %s", cfg.Store.Backend)
	}
}

func TestNegativeRPMDisablesCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("openai:\n  rpm: -1\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	// 0 means "unset" in the file merge, so -1 is the way to switch the
	// rate cap off.
	cfg := Load()
	if cfg.OpenAI.RPM != -1 {
		t.Fatalf("negative rpm not applied: %d", cfg.OpenAI.RPM)
	}
}

func TestBrokenConfigFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected defaults on parse failure, got %s", cfg.Server.Addr)
	}
}
