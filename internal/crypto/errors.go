package crypto

import "errors"

var (
	// ErrAuthenticationFailed reports an AEAD tag mismatch: wrong key, or a
	// tampered ciphertext, IV, or tag. Callers must treat it as terminal and
	// never retry; record-level callers quarantine instead of failing hard.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidKeySize reports a key that is not 32 bytes.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidInput reports malformed caller input, e.g. a too-short salt.
	ErrInvalidInput = errors.New("invalid input")
)
