// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package models

import "time"

// Operation types of a queued local mutation.
const (
	OpCreate OperationType = "create"
	OpUpdate OperationType = "update"
	OpDelete OperationType = "delete"
)

// Entity types an operation can reference.
const (
	EntityPassword EntityType = "password"
	EntityFolder   EntityType = "folder"
	EntityTag      EntityType = "tag"
)

// Queue states of an operation. Pending operations (and failed ones with
// retries left, which are returned to pending) are picked up by the next
// sync pass; failed-exhausted operations persist for error reporting.
const (
	OpPending    OperationStatus = "pending"
	OpInProgress OperationStatus = "in_progress"
	OpCompleted  OperationStatus = "completed"
	OpFailed     OperationStatus = "failed"
)

type (
	OperationType   string
	EntityType      string
	OperationStatus string
)

// SyncOperation is one durable entry of the offline mutation queue. Payload
// is the serialized entity with secret fields already encrypted; the queue
// never holds plaintext.
type SyncOperation struct {
	ID         string
	Type       OperationType
	EntityID   string
	EntityType EntityType
	Payload    []byte

	QueuedAt   time.Time
	RetryCount int
	MaxRetries int

	Status        OperationStatus
	ErrorMessage  *string
	LastAttemptAt *time.Time
}

// RemoteRecord is one entry of a pull response: the encrypted record as the
// remote store knows it, plus its revision token and server-side edit time.
type RemoteRecord struct {
	Record   EncryptedRecord
	Revision string
	EditedAt time.Time
	Deleted  bool
}

// SyncReport summarizes one Synchronize round-trip.
type SyncReport struct {
	Pushed    int
	Pulled    int
	Merged    int
	Conflicts int
	Failed    int
	Duration  time.Duration
}
