// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

// Package codec converts between plaintext password records and their
// encrypted-at-rest representation. Only the password and notes fields are
// encrypted, each under its own IV; everything else passes through so the
// store can query and sort without a vault key.
package codec

import (
	"errors"
	"fmt"

	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/models"
)

// maskedSecret is the placeholder shown in place of a quarantined record's
// secret fields.
const maskedSecret = "••••••••"

type Codec struct {
	engine crypto.Engine
	log    *logger.Logger
}

func New(engine crypto.Engine, log *logger.Logger) *Codec {
	return &Codec{engine: engine, log: log}
}

// ToStorageForm encrypts the record's password and notes under key and
// returns the at-rest representation. Nil notes stay nil.
func (c *Codec) ToStorageForm(rec models.PasswordRecord, key []byte) (models.EncryptedRecord, error) {
	passwordBlob, err := c.engine.Encrypt([]byte(rec.Password), key)
	if err != nil {
		return models.EncryptedRecord{}, fmt.Errorf("encrypt password: %w", err)
	}

	enc := models.EncryptedRecord{
		ID:               rec.ID,
		Title:            rec.Title,
		Username:         rec.Username,
		Password:         passwordBlob.ToBytes(),
		URL:              rec.URL,
		FolderID:         rec.FolderID,
		Tags:             rec.Tags,
		PackageNames:     rec.PackageNames,
		Favorite:         rec.Favorite,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
		RemoteModifiedAt: rec.RemoteModifiedAt,
		Quarantined:      rec.Quarantined,
		Revision:         rec.Revision,
	}

	if rec.Notes != nil {
		notesBlob, err := c.engine.Encrypt([]byte(*rec.Notes), key)
		if err != nil {
			return models.EncryptedRecord{}, fmt.Errorf("encrypt notes: %w", err)
		}
		enc.Notes = notesBlob.ToBytes()
	}

	return enc, nil
}

// ToDomainForm decrypts an at-rest record. A failed authentication does not
// propagate as an error: the returned record carries Quarantined=true with
// masked secret fields, so one corrupted record never takes the vault down.
// Errors other than authentication failure (wrong key size, malformed blob
// layout) are still returned.
func (c *Codec) ToDomainForm(enc models.EncryptedRecord, key []byte) (models.PasswordRecord, error) {
	rec := models.PasswordRecord{
		ID:               enc.ID,
		Title:            enc.Title,
		Username:         enc.Username,
		URL:              enc.URL,
		FolderID:         enc.FolderID,
		Tags:             enc.Tags,
		PackageNames:     enc.PackageNames,
		Favorite:         enc.Favorite,
		CreatedAt:        enc.CreatedAt,
		UpdatedAt:        enc.UpdatedAt,
		RemoteModifiedAt: enc.RemoteModifiedAt,
		Quarantined:      enc.Quarantined,
		Revision:         enc.Revision,
	}

	hasNotes := enc.Notes != nil

	password, quarantined, err := c.decryptField(enc.Password, key)
	if err != nil {
		return models.PasswordRecord{}, fmt.Errorf("decrypt password: %w", err)
	}
	if quarantined {
		return c.quarantine(rec, hasNotes, "password"), nil
	}
	rec.Password = string(password)
	c.engine.Wipe(password)

	if hasNotes {
		notes, quarantined, err := c.decryptField(enc.Notes, key)
		if err != nil {
			return models.PasswordRecord{}, fmt.Errorf("decrypt notes: %w", err)
		}
		if quarantined {
			return c.quarantine(rec, hasNotes, "notes"), nil
		}
		s := string(notes)
		rec.Notes = &s
		c.engine.Wipe(notes)
	}

	return rec, nil
}

// ToStorageBatch encrypts records one by one. Unlike decryption there is no
// quarantine path here: an encryption failure is a caller error and aborts.
func (c *Codec) ToStorageBatch(recs []models.PasswordRecord, key []byte) ([]models.EncryptedRecord, error) {
	out := make([]models.EncryptedRecord, 0, len(recs))
	for _, rec := range recs {
		enc, err := c.ToStorageForm(rec, key)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		out = append(out, enc)
	}
	return out, nil
}

// ToDomainBatch decrypts records one by one. A record that fails decryption
// comes back quarantined; it never aborts the rest of the batch.
func (c *Codec) ToDomainBatch(encs []models.EncryptedRecord, key []byte) ([]models.PasswordRecord, error) {
	out := make([]models.PasswordRecord, 0, len(encs))
	for _, enc := range encs {
		rec, err := c.ToDomainForm(enc, key)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", enc.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// decryptField parses and decrypts one encrypted field. The quarantined
// return distinguishes tamper/wrong-key (recoverable by quarantine) from
// structural errors that must surface.
func (c *Codec) decryptField(data, key []byte) (plaintext []byte, quarantined bool, err error) {
	blob, err := models.BlobFromBytes(data)
	if err != nil {
		// A truncated blob is corruption of the stored bytes, handled the
		// same way as a tag mismatch: keep the record, mask the field.
		return nil, true, nil
	}

	plaintext, err = c.engine.Decrypt(blob, key)
	if err == nil {
		return plaintext, false, nil
	}
	if errors.Is(err, crypto.ErrAuthenticationFailed) {
		return nil, true, nil
	}
	return nil, false, err
}

func (c *Codec) quarantine(rec models.PasswordRecord, hasNotes bool, field string) models.PasswordRecord {
	c.log.Warn().Str("record_id", rec.ID).Str("field", field).
		Msg("decryption failed, record quarantined")

	rec.Quarantined = true
	rec.Password = maskedSecret
	if hasNotes {
		masked := maskedSecret
		rec.Notes = &masked
	}
	return rec
}
