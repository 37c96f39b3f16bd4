// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

// Package export produces and consumes the portable encrypted backup
// format. A backup is sealed under its own passphrase-derived key, never
// the vault key, so backups survive a vault-key rotation and can move
// between devices.
//
// File layout: salt(32) || iv(12) || ciphertext || authTag(16), where the
// ciphertext is the JSON envelope below.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/models"
)

const (
	// FormatVersion is the envelope version this build writes and the only
	// one it accepts.
	FormatVersion = 1

	saltSize = 32

	// minFileSize is salt + iv + authTag: the smallest well-formed file,
	// carrying an empty ciphertext.
	minFileSize = saltSize + models.IVSize + models.AuthTagSize
)

var (
	ErrMalformedFile       = errors.New("malformed export file")
	ErrUnsupportedVersion  = errors.New("unsupported export format version")
	ErrWrongPassphrase     = errors.New("wrong export passphrase or corrupted file")
	ErrEmptyPassphrase     = errors.New("export passphrase must not be empty")
	ErrQuarantinedIncluded = errors.New("quarantined records cannot be exported")
)

// ImportMode selects what happens to existing records on import.
type ImportMode string

const (
	// ModeReplace wipes the local records first.
	ModeReplace ImportMode = "replace"
	// ModeMerge keeps existing records and adds the imported ones.
	ModeMerge ImportMode = "merge"
)

// envelope is the JSON plaintext inside a backup.
type envelope struct {
	Version    int                     `json:"version"`
	ExportedAt time.Time               `json:"exported_at"`
	Passwords  []models.PasswordRecord `json:"passwords"`
}

// Exporter seals and opens backup files. Stateless; one per process is
// plenty.
type Exporter struct {
	engine crypto.Engine
}

func NewExporter(engine crypto.Engine) *Exporter {
	return &Exporter{engine: engine}
}

// Export seals the given decrypted records under passphrase. Quarantined
// records are rejected: their plaintext was never recovered, and silently
// exporting masked placeholders would corrupt the backup.
func (e *Exporter) Export(records []models.PasswordRecord, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	for _, rec := range records {
		if rec.Quarantined {
			return nil, fmt.Errorf("record %s: %w", rec.ID, ErrQuarantinedIncluded)
		}
	}

	plaintext, err := json.Marshal(envelope{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
		Passwords:  records,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal export envelope: %w", err)
	}
	defer e.engine.Wipe(plaintext)

	salt, err := e.engine.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate export salt: %w", err)
	}

	key, err := e.engine.DeriveVaultKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("derive export key: %w", err)
	}
	defer e.engine.Wipe(key)

	blob, err := e.engine.Encrypt(plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("seal export: %w", err)
	}

	out := make([]byte, 0, saltSize+len(blob.IV)+len(blob.AuthTag)+len(blob.Ciphertext))
	out = append(out, salt...)
	out = append(out, blob.IV...)
	out = append(out, blob.Ciphertext...)
	out = append(out, blob.AuthTag...)
	return out, nil
}

// Import opens a backup file. Every record comes back with a fresh ID:
// imported records are new local entries, never silent overwrites of
// entries that happen to share an ID with another vault.
func (e *Exporter) Import(data []byte, passphrase string) ([]models.PasswordRecord, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if len(data) < minFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedFile, len(data))
	}

	salt := data[:saltSize]
	rest := data[saltSize:]
	blob := models.EncryptedBlob{
		IV:         rest[:models.IVSize],
		Ciphertext: rest[models.IVSize : len(rest)-models.AuthTagSize],
		AuthTag:    rest[len(rest)-models.AuthTagSize:],
	}

	key, err := e.engine.DeriveVaultKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("derive import key: %w", err)
	}
	defer e.engine.Wipe(key)

	plaintext, err := e.engine.Decrypt(blob, key)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			return nil, ErrWrongPassphrase
		}
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer e.engine.Wipe(plaintext)

	var env envelope
	if err = json.Unmarshal(plaintext, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}

	now := time.Now().UTC()
	out := make([]models.PasswordRecord, len(env.Passwords))
	for i, rec := range env.Passwords {
		rec.ID = uuid.NewString()
		rec.Revision = ""
		rec.RemoteModifiedAt = nil
		rec.CreatedAt = now
		rec.UpdatedAt = now
		out[i] = rec
	}
	return out, nil
}
