package config

// Config is the root configuration for the warelay gateway.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Database  DatabaseConfig  `json:"database,omitempty"`
	Redis     RedisConfig     `json:"redis,omitempty"`
	Twilio    TwilioConfig    `json:"twilio,omitempty"`
	Agent     AgentConfig     `json:"agent"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// GatewayConfig configures the inbound HTTP listener.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DatabaseConfig configures the Postgres customer store.
// PostgresDSN is a secret and is never read from config.json, only from env.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"` // from env WARELAY_POSTGRES_DSN only
}

// RedisConfig configures the cache connection.
// The URL may carry a password, so it comes from env WARELAY_REDIS_URL only.
type RedisConfig struct {
	URL string `json:"-"`
}

// TwilioConfig holds the messaging-gateway credentials.
// Account SID and auth token are secrets and come from env only.
// PhoneNumber is the sending address, e.g. "whatsapp:+14155238886".
type TwilioConfig struct {
	AccountSID  string `json:"-"` // from env WARELAY_TWILIO_ACCOUNT_SID only
	AuthToken   string `json:"-"` // from env WARELAY_TWILIO_AUTH_TOKEN only
	PhoneNumber string `json:"phone_number,omitempty"`
}

// AgentConfig configures the agent service endpoint.
type AgentConfig struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// TelemetryConfig configures the optional OTLP trace exporter.
type TelemetryConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	Endpoint string `json:"endpoint,omitempty"` // OTLP HTTP endpoint URL
}
