package vault

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/secure_key_store_mock.go -package=mock

// SecureKeyStore is the hardware-backed collaborator that wraps and unwraps
// the vault key. The core treats it as a black box: it may be backed by a
// TPM, Android Keystore, Secure Enclave, or a software fallback. Biometric
// prompts happen entirely inside the implementation.
type SecureKeyStore interface {
	// WrapKey seals a plaintext vault key into an opaque blob that only this
	// device can open. The blob is safe to persist anywhere.
	WrapKey(ctx context.Context, key []byte) ([]byte, error)

	// UnwrapKey opens a blob produced by WrapKey. Returns ErrAuthRequired
	// when the hardware wants user presence first, ErrUnlockCancelled when
	// the user dismissed the prompt, or any other error on failure.
	UnwrapKey(ctx context.Context, blob []byte) ([]byte, error)
}
