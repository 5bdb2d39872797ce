// Package config reads the process level configuration of the login
// handler from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Server captures process level configuration. Signing and identity
// provider settings live in the settings file instead, see
// internal/settings.
type Server struct {
	Addr         string `env:"LOGIN_HANDLER_ADDR"          envDefault:":8080"`
	DBPath       string `env:"LOGIN_HANDLER_DB_PATH"       envDefault:"loginhandler.db"`
	SettingsPath string `env:"LOGIN_HANDLER_SETTINGS_PATH"`
	LogLevel     string `env:"LOGIN_HANDLER_LOG_LEVEL"     envDefault:"info"`
	LogFormat    string `env:"LOGIN_HANDLER_LOG_FORMAT"    envDefault:"console"`

	// Tracing is off unless an OTLP/HTTP endpoint is given.
	OTelEndpoint string `env:"LOGIN_HANDLER_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"LOGIN_HANDLER_OTEL_ENABLED" envDefault:"true"`
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
