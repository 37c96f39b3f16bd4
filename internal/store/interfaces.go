package store

import (
	"context"
	"time"

	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// RecordRepository persists encrypted password records. All secret fields
// in [models.EncryptedRecord] are serialized EncryptedBlob bytes.
type RecordRepository interface {
	// Save upserts records by ID.
	Save(ctx context.Context, recs ...models.EncryptedRecord) error

	// Get returns one record, or ErrNotFound.
	Get(ctx context.Context, id string) (models.EncryptedRecord, error)

	// GetAll returns every stored record.
	GetAll(ctx context.Context) ([]models.EncryptedRecord, error)

	// Delete removes one record. Deleting a missing record is a no-op.
	Delete(ctx context.Context, id string) error

	// DeleteAll wipes the record table (replace-mode import).
	DeleteAll(ctx context.Context) error

	// SetQuarantined flips the quarantine flag without touching anything
	// else, preserving the encrypted bytes for recovery.
	SetQuarantined(ctx context.Context, id string, quarantined bool) error

	// SetRevision updates the remote bookkeeping fields after a push.
	SetRevision(ctx context.Context, id, revision string, remoteModifiedAt time.Time) error
}

// QueueRepository is the durable offline mutation queue.
type QueueRepository interface {
	// Append adds an operation in status pending. Safe to call concurrently
	// with an in-progress sync pass; the operation joins the next one.
	Append(ctx context.Context, op models.SyncOperation) error

	// Pending returns up to limit pending operations, oldest first.
	// limit <= 0 means no limit.
	Pending(ctx context.Context, limit int) ([]models.SyncOperation, error)

	// MarkInProgress transitions pending -> in_progress.
	MarkInProgress(ctx context.Context, id string) error

	// MarkCompleted transitions in_progress -> completed.
	MarkCompleted(ctx context.Context, id string) error

	// MarkFailed records the failure, increments the retry counter and
	// either returns the operation to pending (retryable, retries left) or
	// parks it as failed for user-visible reporting.
	MarkFailed(ctx context.Context, id, errMsg string, returnToPending bool) error

	// Failed returns terminally failed operations for error reporting.
	Failed(ctx context.Context) ([]models.SyncOperation, error)

	// PurgeCompleted deletes completed operations finished before cutoff.
	PurgeCompleted(ctx context.Context, cutoff time.Time) error
}

// FolderRepository persists the folder tree. Parent references are weak:
// deleting a folder never cascades.
type FolderRepository interface {
	Save(ctx context.Context, folders ...models.Folder) error
	GetAll(ctx context.Context) ([]models.Folder, error)
	Delete(ctx context.Context, id string) error
}

// TagRepository persists tags.
type TagRepository interface {
	Save(ctx context.Context, tags ...models.Tag) error
	GetAll(ctx context.Context) ([]models.Tag, error)
	Delete(ctx context.Context, id string) error
}

// MetaRepository keeps sync bookkeeping, currently just the watermark of
// the last fully successful round-trip.
type MetaRepository interface {
	// LastSync returns the watermark, or the zero time when no sync has
	// completed yet.
	LastSync(ctx context.Context) (time.Time, error)
	SetLastSync(ctx context.Context, t time.Time) error
}

// Storages aggregates every repository over one database handle.
type Storages struct {
	DB      *DB
	Records RecordRepository
	Queue   QueueRepository
	Folders FolderRepository
	Tags    TagRepository
	Meta    MetaRepository
}

func NewStorages(db *DB, log *logger.Logger) *Storages {
	return &Storages{
		DB:      db,
		Records: NewRecordRepository(db, log),
		Queue:   NewQueueRepository(db, log),
		Folders: NewFolderRepository(db, log),
		Tags:    NewTagRepository(db, log),
		Meta:    NewMetaRepository(db, log),
	}
}
