package config

import (
	"encoding/json"
	"os"

	"github.com/Barnamoyy/fileshare/internal/flagx"
	"github.com/Barnamoyy/fileshare/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. Interval fields use
// timex.Duration, which accepts both string values such as "30s" and integer
// nanoseconds. After unmarshalling, set fields are copied into the runtime
// Config.
type JsonConfig struct {
	EndpointAddr       *string         `json:"endpoint_addr"`
	PublicBaseURL      *string         `json:"public_base_url"`
	DatabaseDSN        *string         `json:"database_dsn"`
	MasterKeyHex       *string         `json:"master_key"`
	SweepSecret        *string         `json:"sweep_secret"`
	SweepInterval      *timex.Duration `json:"sweep_interval"`
	SweepRunTimeout    *timex.Duration `json:"sweep_run_timeout"`
	SweepTokenValidity *timex.Duration `json:"sweep_token_validity"`
	BlobBackend        *string         `json:"blob_backend"`
	S3RootUser         *string         `json:"s3_root_user"`
	S3RootPassword     *string         `json:"s3_root_password"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Region           *string         `json:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint"`
	FSRoot             *string         `json:"fs_root"`
	MaxUploadBytes     *int64          `json:"max_upload_bytes"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. Absent file path means nothing
// to load. An unreadable or invalid file panics: a config file that was
// explicitly requested must not be silently ignored.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != nil {
		config.EndpointAddr = *c.EndpointAddr
	}
	if c.PublicBaseURL != nil {
		config.PublicBaseURL = *c.PublicBaseURL
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.MasterKeyHex != nil {
		config.MasterKeyHex = *c.MasterKeyHex
	}
	if c.SweepSecret != nil {
		config.SweepSecret = *c.SweepSecret
	}
	if c.SweepInterval != nil {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.SweepRunTimeout != nil {
		config.SweepRunTimeout = c.SweepRunTimeout.Duration
	}
	if c.SweepTokenValidity != nil {
		config.SweepTokenValidity = c.SweepTokenValidity.Duration
	}
	if c.BlobBackend != nil {
		config.BlobBackend = *c.BlobBackend
	}
	if c.S3RootUser != nil {
		config.S3RootUser = *c.S3RootUser
	}
	if c.S3RootPassword != nil {
		config.S3RootPassword = *c.S3RootPassword
	}
	if c.S3Bucket != nil {
		config.S3Bucket = *c.S3Bucket
	}
	if c.S3Region != nil {
		config.S3Region = *c.S3Region
	}
	if c.S3BaseEndpoint != nil {
		config.S3BaseEndpoint = *c.S3BaseEndpoint
	}
	if c.FSRoot != nil {
		config.FSRoot = *c.FSRoot
	}
	if c.MaxUploadBytes != nil {
		config.MaxUploadBytes = *c.MaxUploadBytes
	}
}
