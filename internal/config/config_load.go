package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379",
		},
		Agent: AgentConfig{
			URL:            "http://localhost:5000",
			TimeoutSeconds: 10,
		},
	}
}

// Load reads config from a JSON file, then overlays env vars.
// A missing file is not an error; defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("WARELAY_POSTGRES_DSN", &c.Database.PostgresDSN)
	envStr("WARELAY_REDIS_URL", &c.Redis.URL)
	envStr("WARELAY_TWILIO_ACCOUNT_SID", &c.Twilio.AccountSID)
	envStr("WARELAY_TWILIO_AUTH_TOKEN", &c.Twilio.AuthToken)
	envStr("WARELAY_TWILIO_PHONE_NUMBER", &c.Twilio.PhoneNumber)
	envStr("WARELAY_AGENT_URL", &c.Agent.URL)
	envStr("WARELAY_OTLP_ENDPOINT", &c.Telemetry.Endpoint)

	if v := os.Getenv("WARELAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Gateway.Port = port
		}
	}
}
