package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid local storage settings
	// (for example, an empty database path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidRemoteConfigs indicates invalid remote endpoint settings
	// (for example, a configured remote with no request timeout).
	ErrInvalidRemoteConfigs = errors.New("invalid remote configuration")
	// ErrInvalidSyncConfigs indicates invalid background sync settings
	// (for example, a zero sync interval or negative retry attempts).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidVaultConfigs indicates invalid vault lifecycle settings
	// (for example, a negative auto-lock window).
	ErrInvalidVaultConfigs = errors.New("invalid vault configuration")
)
