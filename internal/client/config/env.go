package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// EnvFile is read, if present, before the environment is consulted.
var EnvFile = ".env"

func parseEnv(cfg *Config) {
	_ = godotenv.Load(EnvFile)

	if v := os.Getenv("QB_SERVER_ADDR"); v != "" {
		cfg.ServerEndpointAddr = v
	}
	if v := os.Getenv("QB_SESSION_DB"); v != "" {
		cfg.SessionDBPath = v
	}
	if v := os.Getenv("QB_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("QB_EMAIL_DOMAIN"); v != "" {
		cfg.EmailDomain = v
	}
}
