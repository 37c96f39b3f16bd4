package vault

import "errors"

var (
	// ErrVaultLocked reports an operation that needs the session key while no
	// unlocked session exists. Not retryable; the caller must unlock first.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrUnlockInProgress reports a second unlock attempt while a key
	// derivation is already in flight.
	ErrUnlockInProgress = errors.New("unlock already in progress")

	// ErrAuthRequired is returned by a SecureKeyStore when the hardware
	// demands user presence (e.g. a biometric prompt) before it will unwrap.
	ErrAuthRequired = errors.New("key store authorization required")

	// ErrUnlockCancelled is returned by a SecureKeyStore when the user
	// dismissed the authorization prompt. A distinct result, not a failure.
	ErrUnlockCancelled = errors.New("unlock cancelled")
)
