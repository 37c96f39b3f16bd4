// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package config

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// A missing remote base URL is valid: the device then runs offline-only and
// sync stays unconfigured. Every other group must be complete.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Vault.AutoLockIdle < 0 {
		return ErrInvalidVaultConfigs
	}

	if cfg.Remote.BaseURL != "" && cfg.Remote.RequestTimeout <= 0 {
		return ErrInvalidRemoteConfigs
	}

	if cfg.Sync.Interval <= 0 || cfg.Sync.MaxAttempts < 1 {
		return ErrInvalidSyncConfigs
	}
	if cfg.Sync.JitterFraction < 0 || cfg.Sync.JitterFraction >= 1 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
