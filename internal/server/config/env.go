package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first if present; real environment
// variables win over .env entries.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString(&config.EndpointAddr, "ADDRESS")
	setString(&config.PublicBaseURL, "PUBLIC_BASE_URL")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.MasterKeyHex, "MASTER_KEY")
	setString(&config.SweepSecret, "CRON_SECRET")
	setDuration(&config.SweepInterval, "SWEEP_INTERVAL")
	setDuration(&config.SweepRunTimeout, "SWEEP_RUN_TIMEOUT")
	setDuration(&config.SweepTokenValidity, "SWEEP_TOKEN_VALIDITY")
	setString(&config.BlobBackend, "BLOB_BACKEND")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&config.FSRoot, "FS_ROOT")
	setInt64(&config.MaxUploadBytes, "MAX_UPLOAD_BYTES")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
