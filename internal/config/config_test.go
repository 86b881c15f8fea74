package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Gateway.Port != 8000 {
		t.Errorf("Gateway.Port = %d, want 8000", cfg.Gateway.Port)
	}
	if cfg.Redis.URL != "redis://localhost:6379" {
		t.Errorf("Redis.URL = %q", cfg.Redis.URL)
	}
	if cfg.Agent.URL != "http://localhost:5000" {
		t.Errorf("Agent.URL = %q", cfg.Agent.URL)
	}
	if cfg.Agent.TimeoutSeconds != 10 {
		t.Errorf("Agent.TimeoutSeconds = %d, want 10", cfg.Agent.TimeoutSeconds)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 8000 {
		t.Errorf("Gateway.Port = %d, want default 8000", cfg.Gateway.Port)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		// relay settings
		gateway: { host: "127.0.0.1", port: 9000 },
		agent: { url: "http://agent:5000", timeout_seconds: 4 },
		twilio: { phone_number: "whatsapp:+14155238886" },
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Host != "127.0.0.1" || cfg.Gateway.Port != 9000 {
		t.Errorf("Gateway = %+v", cfg.Gateway)
	}
	if cfg.Agent.URL != "http://agent:5000" || cfg.Agent.TimeoutSeconds != 4 {
		t.Errorf("Agent = %+v", cfg.Agent)
	}
	if cfg.Twilio.PhoneNumber != "whatsapp:+14155238886" {
		t.Errorf("Twilio.PhoneNumber = %q", cfg.Twilio.PhoneNumber)
	}
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{gateway:`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load succeeded on malformed file")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{agent: {url: "http://from-file:5000"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WARELAY_AGENT_URL", "http://from-env:5000")
	t.Setenv("WARELAY_POSTGRES_DSN", "postgres://env/db")
	t.Setenv("WARELAY_PORT", "9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.URL != "http://from-env:5000" {
		t.Errorf("Agent.URL = %q, want env value", cfg.Agent.URL)
	}
	if cfg.Database.PostgresDSN != "postgres://env/db" {
		t.Errorf("Database.PostgresDSN = %q", cfg.Database.PostgresDSN)
	}
	if cfg.Gateway.Port != 9100 {
		t.Errorf("Gateway.Port = %d, want 9100", cfg.Gateway.Port)
	}
}

func TestLoad_BadPortEnvIgnored(t *testing.T) {
	t.Setenv("WARELAY_PORT", "not-a-port")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 8000 {
		t.Errorf("Gateway.Port = %d, want default 8000", cfg.Gateway.Port)
	}
}
