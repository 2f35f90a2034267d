package config

import (
	"flag"
	"os"
	"time"

	"github.com/Barnamoyy/fileshare/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-w string   public base URL for shareable links
//	-d string   PostgreSQL DSN
//	-m string   hex-encoded master key
//	-s string   sweep-trigger secret
//	-i int      sweep interval, seconds (0 disables the in-process sweeper)
//	-k string   blob backend ("s3", "fs" or "memory")
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-f string   blob directory for the "fs" backend
//	-l int      maximum upload size, bytes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-w", "-d", "-m", "-s", "-i", "-k", "-u", "-p", "-b", "-g", "-e", "-f", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.PublicBaseURL, "w", config.PublicBaseURL, "public base URL")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MasterKeyHex, "m", config.MasterKeyHex, "master key (hex)")
	fs.StringVar(&config.SweepSecret, "s", config.SweepSecret, "sweep secret")

	sweepIntervalSeconds := fs.Int("i", int(config.SweepInterval.Seconds()), "sweep interval (in seconds)")

	fs.StringVar(&config.BlobBackend, "k", config.BlobBackend, "blob backend (s3|fs|memory)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.FSRoot, "f", config.FSRoot, "fs backend blob directory")
	fs.Int64Var(&config.MaxUploadBytes, "l", config.MaxUploadBytes, "maximum upload size in bytes")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SweepInterval = time.Duration(*sweepIntervalSeconds) * time.Second
}
