// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJSON_AllFields(t *testing.T) {
	path := writeJSONFile(t, `{
		"vault": {"auto_lock_idle": "10m"},
		"storage": {"db": {"dsn": "/var/lib/passvault/vault.db"}},
		"remote": {"base_url": "https://vault.example.com", "request_timeout": "20s"},
		"sync": {
			"interval": "2m",
			"max_attempts": 5,
			"base_delay": "250ms",
			"max_delay": "10s",
			"jitter_fraction": 0.3
		},
		"log": {"level": "debug"}
	}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Vault.AutoLockIdle)
	assert.Equal(t, "/var/lib/passvault/vault.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "https://vault.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Remote.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Sync.MaxDelay)
	assert.InDelta(t, 0.3, cfg.Sync.JitterFraction, 1e-9)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseJSON_DurationAsNanoseconds(t *testing.T) {
	// A raw number is interpreted as nanoseconds, matching time.Duration.
	path := writeJSONFile(t, `{"sync": {"interval": 60000000000}}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
}

func TestParseJSON_MissingFile(t *testing.T) {
	_, err := parseJSON("/no/such/file.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading a json file")
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	path := writeJSONFile(t, `{"storage": `)

	_, err := parseJSON(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding json configs")
}

func TestParseJSON_InvalidDurationString(t *testing.T) {
	path := writeJSONFile(t, `{"sync": {"interval": "sixty seconds"}}`)

	_, err := parseJSON(path)
	require.Error(t, err)
}

func TestParseJSON_EmptyObject(t *testing.T) {
	path := writeJSONFile(t, `{}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)
	assert.Equal(t, &StructuredConfig{}, cfg)
}
