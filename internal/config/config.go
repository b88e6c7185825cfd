// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Wizard    WizardConfig
	Inspector InspectorConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// WizardConfig holds wizard session settings.
type WizardConfig struct {
	// SessionTTL is how long an idle session survives (default: 2h)
	SessionTTL time.Duration `env:"WIZARD_SESSION_TTL" default:"2h"`

	// SweepInterval is how often expired sessions are swept (default: 10m)
	SweepInterval time.Duration `env:"WIZARD_SWEEP_INTERVAL" default:"10m"`

	// MaxSessions caps concurrently open sessions; 0 means unlimited (default: 1000)
	MaxSessions int `env:"WIZARD_MAX_SESSIONS" default:"1000"`

	// PolicyFile is an optional YAML file naming system-managed columns
	// and type overrides. Empty uses the built-in defaults.
	PolicyFile string `env:"WIZARD_POLICY_FILE"`
}

// InspectorConfig holds destination schema inspection settings.
type InspectorConfig struct {
	// ConnectTimeout is the per-connection dial timeout (default: 10s)
	ConnectTimeout time.Duration `env:"INSPECTOR_CONNECT_TIMEOUT" default:"10s"`

	// QueryTimeout is the per-query timeout (default: 30s)
	QueryTimeout time.Duration `env:"INSPECTOR_QUERY_TIMEOUT" default:"30s"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
