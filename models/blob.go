// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package models

import "errors"

const (
	// IVSize is the AES-GCM nonce length in bytes.
	IVSize = 12
	// AuthTagSize is the AES-GCM authentication tag length in bytes.
	AuthTagSize = 16
	// minBlobSize is the shortest possible serialized blob: an IV and a tag
	// around an empty ciphertext.
	minBlobSize = IVSize + AuthTagSize
)

// ErrTooShort is returned by BlobFromBytes when the input cannot possibly
// contain an IV and an authentication tag.
var ErrTooShort = errors.New("encrypted blob too short")

// EncryptedBlob is the at-rest representation of a single AEAD encryption
// operation. The IV is unique per operation under a given key; the AuthTag
// must verify before Ciphertext is treated as trusted.
type EncryptedBlob struct {
	Ciphertext []byte
	IV         []byte
	AuthTag    []byte
}

// ToBytes serializes the blob to the flat layout iv ‖ authTag ‖ ciphertext.
func (b EncryptedBlob) ToBytes() []byte {
	out := make([]byte, 0, len(b.IV)+len(b.AuthTag)+len(b.Ciphertext))
	out = append(out, b.IV...)
	out = append(out, b.AuthTag...)
	out = append(out, b.Ciphertext...)
	return out
}

// BlobFromBytes parses the layout produced by [EncryptedBlob.ToBytes].
// Returns ErrTooShort if data is shorter than 28 bytes.
func BlobFromBytes(data []byte) (EncryptedBlob, error) {
	if len(data) < minBlobSize {
		return EncryptedBlob{}, ErrTooShort
	}

	blob := EncryptedBlob{
		IV:         make([]byte, IVSize),
		AuthTag:    make([]byte, AuthTagSize),
		Ciphertext: make([]byte, len(data)-minBlobSize),
	}
	copy(blob.IV, data[:IVSize])
	copy(blob.AuthTag, data[IVSize:minBlobSize])
	copy(blob.Ciphertext, data[minBlobSize:])

	return blob, nil
}
