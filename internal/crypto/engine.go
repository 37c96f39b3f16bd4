// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/okunev/passvault/models"
)

const (
	saltSize    = 32
	keySize     = 32
	minSaltSize = 16
)

// engine is the private implementation of [Engine].
type engine struct {
	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target (e.g. mobile vs. desktop).
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// NewEngine constructs an [Engine] with Argon2id parameters equivalent in
// cost to well over 100k PBKDF2 iterations:
//   - time cost:   3 iterations
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewEngine() Engine {
	return &engine{
		argonTime:    3,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  keySize,
	}
}

// GenerateSalt implements [Engine]. It reads 32 random bytes from the OS
// CSPRNG. Returns an error if the random read fails.
func (e *engine) GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// GenerateIV implements [Engine]. It reads 12 random bytes from the OS
// CSPRNG. Returns an error if the random read fails.
func (e *engine) GenerateIV() ([]byte, error) {
	iv := make([]byte, models.IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}
	return iv, nil
}

// DeriveVaultKey implements [Engine]. The derived key exists only in memory
// and is never transmitted or persisted in plaintext.
func (e *engine) DeriveVaultKey(passphrase string, salt []byte) ([]byte, error) {
	if len(salt) < minSaltSize {
		return nil, fmt.Errorf("%w: salt must be at least %d bytes, got %d",
			ErrInvalidInput, minSaltSize, len(salt))
	}

	key := argon2.IDKey(
		[]byte(passphrase),
		salt,
		e.argonTime,
		e.argonMemory,
		e.argonThreads,
		e.argonKeyLen,
	)
	return key, nil
}

// Encrypt implements [Engine]. The GCM output is split so the blob carries
// the tag separately: seal produces ciphertext ‖ tag, the last 16 bytes of
// which become AuthTag.
func (e *engine) Encrypt(plaintext, key []byte) (models.EncryptedBlob, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return models.EncryptedBlob{}, err
	}

	iv, err := e.GenerateIV()
	if err != nil {
		return models.EncryptedBlob{}, err
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	cut := len(sealed) - models.AuthTagSize

	return models.EncryptedBlob{
		IV:         iv,
		Ciphertext: sealed[:cut],
		AuthTag:    sealed[cut:],
	}, nil
}

// Decrypt implements [Engine]. Any gcm.Open failure is reported as
// ErrAuthenticationFailed: GCM gives no way (and no reason) to distinguish
// a wrong key from a flipped bit.
func (e *engine) Decrypt(blob models.EncryptedBlob, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// gcm.Open panics on a wrong-length nonce; a malformed IV is tampering.
	if len(blob.IV) != gcm.NonceSize() {
		return nil, ErrAuthenticationFailed
	}

	sealed := make([]byte, 0, len(blob.Ciphertext)+len(blob.AuthTag))
	sealed = append(sealed, blob.Ciphertext...)
	sealed = append(sealed, blob.AuthTag...)

	plaintext, err := gcm.Open(nil, blob.IV, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Wipe implements [Engine].
func (e *engine) Wipe(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKeySize, keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
