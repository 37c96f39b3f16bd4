// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package models

import "time"

// PasswordRecord is the in-memory (decrypted) form of a vault entry.
// Password and Notes hold plaintext and must never leave the process in this
// form; every other field is stored and transmitted as-is.
type PasswordRecord struct {
	ID       string
	Title    string
	Username string
	Password string
	URL      string
	Notes    *string

	FolderID *string
	Tags     []string

	// PackageNames are device-local origin-matching hints (e.g. Android
	// package identifiers). They are never synced to the remote store.
	PackageNames []string

	Favorite bool

	CreatedAt        time.Time
	UpdatedAt        time.Time
	RemoteModifiedAt *time.Time

	// Quarantined marks that decryption of this record failed. The encrypted
	// bytes are retained for recovery; UI layers mask the secret fields.
	Quarantined bool

	// Revision is the remote store's opaque revision token, empty until the
	// record has completed at least one push.
	Revision string
}

// EncryptedRecord is the at-rest and on-the-wire form of a vault entry.
// Password and Notes carry serialized [EncryptedBlob] bytes; the remaining
// fields stay plaintext so the local store can query, sort, and filter
// without a vault key.
type EncryptedRecord struct {
	ID       string
	Title    string
	Username string
	Password []byte
	URL      string
	Notes    []byte

	FolderID *string
	Tags     []string

	PackageNames []string

	Favorite bool

	CreatedAt        time.Time
	UpdatedAt        time.Time
	RemoteModifiedAt *time.Time

	Quarantined bool
	Revision    string
}

// Folder groups records into a tree via a nullable parent reference. The
// reference is by ID only; deleting a folder never cascades to records.
type Folder struct {
	ID        string
	Name      string
	ParentID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag is a free-form label referenced by records with set semantics.
type Tag struct {
	ID   string
	Name string
}
