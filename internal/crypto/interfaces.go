package crypto

import "github.com/okunev/passvault/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_engine_mock.go -package=mock

// Engine is the cryptographic core of the vault. It knows nothing about
// records, storage, or the network; its only job is deriving keys and
// performing authenticated encryption. Implementations are safe for
// concurrent use: the only shared state is the OS CSPRNG.
type Engine interface {
	// GenerateSalt returns 32 cryptographically random bytes for key
	// derivation. The salt is not a secret.
	GenerateSalt() ([]byte, error)

	// GenerateIV returns a fresh 12-byte AES-GCM nonce. Every encryption
	// operation must use its own IV.
	GenerateIV() ([]byte, error)

	// DeriveVaultKey stretches passphrase and salt into a 256-bit vault key
	// using Argon2id. Deterministic: the same inputs always yield the same
	// key. Returns ErrInvalidInput if salt is shorter than 16 bytes.
	DeriveVaultKey(passphrase string, salt []byte) ([]byte, error)

	// Encrypt seals plaintext with AES-256-GCM under key using a fresh
	// random IV. Empty plaintext is valid. Returns ErrInvalidKeySize if key
	// is not 32 bytes.
	Encrypt(plaintext, key []byte) (models.EncryptedBlob, error)

	// Decrypt opens blob with key. All-or-nothing: on any tag mismatch it
	// returns ErrAuthenticationFailed and no plaintext. Returns
	// ErrInvalidKeySize if key is not 32 bytes.
	Decrypt(blob models.EncryptedBlob, key []byte) ([]byte, error)

	// Wipe overwrites every byte of buf with zero. Safe on nil and empty
	// buffers. Callers invoke it on every exit path once a sensitive buffer
	// is no longer needed.
	Wipe(buf []byte)
}
