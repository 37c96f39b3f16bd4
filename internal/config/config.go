// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container. It is
// populated by merging values from environment variables, command-line
// flags, an optional JSON file, and built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Vault holds key lifecycle settings.
	Vault Vault `envPrefix:"VAULT_"`

	// Storage holds the local database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Remote holds the remote vault service endpoint. An empty base URL
	// means the device runs offline-only and sync is not configured.
	Remote Remote `envPrefix:"REMOTE_"`

	// Sync holds background sync cadence and retry tuning.
	Sync Sync `envPrefix:"SYNC_"`

	// Log holds logging settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged under the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Vault holds key lifecycle settings.
type Vault struct {
	// AutoLockIdle is how long the vault may sit unlocked without any
	// operation before it locks itself (e.g. "5m").
	// Env: VAULT_AUTO_LOCK_IDLE
	AutoLockIdle time.Duration `env:"AUTO_LOCK_IDLE"`
}

// Storage groups the local persistence settings.
type Storage struct {
	// DB holds the local database settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds the SQLite database settings.
type DB struct {
	// DSN is the SQLite database file path (e.g. "passvault.db").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Remote holds the remote vault service endpoint settings.
type Remote struct {
	// BaseURL is the remote service base URL (e.g. "https://vault.example.com").
	// Empty means sync is not configured.
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout is the per-request timeout for outbound calls
	// (e.g. "15s").
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Token is the bearer token for the remote service session. Usually
	// supplied via the environment rather than a file.
	// Env: REMOTE_TOKEN
	Token string `env:"TOKEN"`
}

// Sync holds background sync cadence and retry tuning.
type Sync struct {
	// Interval is the period between background sync passes (e.g. "5m").
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// MaxAttempts is how many times one network operation is attempted
	// before the sync pass records it as failed.
	// Env: SYNC_MAX_ATTEMPTS
	MaxAttempts int `env:"MAX_ATTEMPTS"`

	// BaseDelay is the first retry backoff delay (e.g. "500ms").
	// Env: SYNC_BASE_DELAY
	BaseDelay time.Duration `env:"BASE_DELAY"`

	// MaxDelay caps the exponential backoff (e.g. "30s").
	// Env: SYNC_MAX_DELAY
	MaxDelay time.Duration `env:"MAX_DELAY"`

	// JitterFraction is the random spread applied to each backoff delay,
	// as a fraction of the delay (e.g. 0.2). Must be in [0, 1).
	// Env: SYNC_JITTER_FRACTION
	JitterFraction float64 `env:"JITTER_FRACTION"`
}

// Log holds logging settings.
type Log struct {
	// Level is the minimum level emitted: trace, debug, info, warn, error.
	// Env: LOG_LEVEL
	Level string `env:"LEVEL"`
}

// GetConfig loads, merges, and validates the application configuration from
// all available sources. Earlier sources win for fields they set:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
