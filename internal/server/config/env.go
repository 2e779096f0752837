package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// EnvFile is read, if present, before the environment is consulted.
// Variables already set in the process environment win over the file.
var EnvFile = ".env"

// parseEnv overlays QB_* environment variables. Malformed durations are
// ignored and leave the previous value.
func parseEnv(config *Config) {
	_ = godotenv.Load(EnvFile)

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(name); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str("QB_GRPC_ADDR", &config.EndpointAddrGRPC)
	str("QB_HTTP_ADDR", &config.EndpointAddrHTTP)
	str("QB_DATABASE_DSN", &config.DatabaseDSN)
	str("QB_SECRET_KEY", &config.SecretKey)
	dur("QB_ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	dur("QB_REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)
	str("QB_EMAIL_DOMAIN", &config.EmailDomain)
	dur("QB_PRESIGN_TTL", &config.PresignValidityDuration)
	str("QB_S3_USER", &config.S3RootUser)
	str("QB_S3_PASSWORD", &config.S3RootPassword)
	str("QB_S3_BUCKET", &config.S3Bucket)
	str("QB_S3_REGION", &config.S3Region)
	str("QB_S3_ENDPOINT", &config.S3BaseEndpoint)
	str("QB_LOG_LEVEL", &config.LogLevel)
}
