package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags parses all configuration flags from the process arguments.
//
// Flags:
//
//	-d database file path
//	-remote-url remote vault service base URL
//	-request-timeout outbound request timeout (e.g., "15s")
//	-sync-interval background sync period (e.g., "5m")
//	-sync-max-attempts network retry attempt ceiling
//	-auto-lock-idle vault auto-lock idle window (e.g., "5m")
//	-log-level minimum log level
//	-c/-config json file path with configs
func ParseFlags() *StructuredConfig {
	cfg, _ := parseFlags(flag.CommandLine, os.Args[1:])
	return cfg
}

func parseFlags(fs *flag.FlagSet, args []string) (*StructuredConfig, error) {
	var (
		databaseDSN     string
		remoteURL       string
		requestTimeout  time.Duration
		syncInterval    time.Duration
		syncMaxAttempts int
		autoLockIdle    time.Duration
		logLevel        string
		jsonConfigPath  string
	)

	fs.StringVar(&databaseDSN, "d", "", "Database file path")
	fs.StringVar(&remoteURL, "remote-url", "", "Remote vault service base URL")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s)")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Background sync period (e.g., 5m)")
	fs.IntVar(&syncMaxAttempts, "sync-max-attempts", 0, "Network retry attempt ceiling")
	fs.DurationVar(&autoLockIdle, "auto-lock-idle", 0, "Vault auto-lock idle window (e.g., 5m)")
	fs.StringVar(&logLevel, "log-level", "", "Minimum log level")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	if err := fs.Parse(args); err != nil {
		return &StructuredConfig{}, err
	}

	return &StructuredConfig{
		Vault: Vault{
			AutoLockIdle: autoLockIdle,
		},
		Storage: Storage{
			DB: DB{DSN: databaseDSN},
		},
		Remote: Remote{
			BaseURL:        remoteURL,
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			Interval:    syncInterval,
			MaxAttempts: syncMaxAttempts,
		},
		Log: Log{Level: logLevel},

		JSONFilePath: jsonConfigPath,
	}, nil
}
