// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

// Package syncer drives the offline-first two-way sync round-trip: drain
// the durable mutation queue to the remote store, pull remote changes since
// the last watermark, and resolve conflicts record by record. The engine
// only ever handles encrypted records; it needs no vault key and runs fine
// while the vault is locked.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okunev/passvault/internal/adapter"
	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/internal/retry"
	"github.com/okunev/passvault/internal/store"
	"github.com/okunev/passvault/models"
)

const (
	defaultMaxRetries = 3

	// Completed queue entries are kept around briefly for debugging, then
	// purged on the next pass.
	completedRetention = 24 * time.Hour
)

// Engine owns the sync queue and the round-trip. One Engine per database;
// Synchronize must not run concurrently with itself, which SyncJob and the
// CLI both guarantee by construction.
type Engine struct {
	storages *store.Storages
	remote   adapter.RemoteStore
	policy   retry.Policy
	logger   *logger.Logger

	now func() time.Time
}

func NewEngine(storages *store.Storages, remote adapter.RemoteStore, policy retry.Policy, log *logger.Logger) *Engine {
	return &Engine{
		storages: storages,
		remote:   remote,
		policy:   policy,
		logger:   log,
		now:      time.Now,
	}
}

// Enqueue appends a local mutation to the durable queue, filling in the
// bookkeeping fields. Safe to call while a sync pass is running; the
// operation joins the next pass.
func (e *Engine) Enqueue(ctx context.Context, opType models.OperationType, entityType models.EntityType, entityID string, payload []byte) error {
	op := models.SyncOperation{
		ID:         uuid.NewString(),
		Type:       opType,
		EntityID:   entityID,
		EntityType: entityType,
		Payload:    payload,
		QueuedAt:   e.now().UTC(),
		MaxRetries: defaultMaxRetries,
		Status:     models.OpPending,
	}
	if err := e.storages.Queue.Append(ctx, op); err != nil {
		return fmt.Errorf("enqueue %s %s: %w", opType, entityID, err)
	}
	return nil
}

// EnqueueRecord serializes an encrypted record and queues it. The common
// path for create/update mutations.
func (e *Engine) EnqueueRecord(ctx context.Context, opType models.OperationType, rec models.EncryptedRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}
	return e.Enqueue(ctx, opType, models.EntityPassword, rec.ID, payload)
}

// Synchronize runs one full round-trip: push the queue, pull since the last
// watermark, merge. The watermark only advances when every phase finished
// cleanly, so an interrupted pass is re-covered by the next one. Auth
// failures abort immediately: every remaining call would fail the same way.
func (e *Engine) Synchronize(ctx context.Context) (models.SyncReport, error) {
	var report models.SyncReport
	if e.remote == nil {
		return report, retry.ErrSyncNotConfigured
	}

	start := e.now()
	defer func() { report.Duration = e.now().Sub(start) }()

	if err := e.pushQueue(ctx, &report); err != nil {
		return report, err
	}
	if err := e.pullAndMerge(ctx, &report); err != nil {
		return report, err
	}

	if report.Failed == 0 {
		if err := e.storages.Meta.SetLastSync(ctx, start.UTC()); err != nil {
			return report, fmt.Errorf("advance sync watermark: %w", err)
		}
	}
	if err := e.storages.Queue.PurgeCompleted(ctx, e.now().UTC().Add(-completedRetention)); err != nil {
		e.logger.Err(err).Str("func", "Engine.Synchronize").Msg("failed to purge completed operations")
	}

	e.logger.Info().
		Int("pushed", report.Pushed).
		Int("pulled", report.Pulled).
		Int("merged", report.Merged).
		Int("conflicts", report.Conflicts).
		Int("failed", report.Failed).
		Msg("sync pass finished")
	return report, nil
}

func (e *Engine) pushQueue(ctx context.Context, report *models.SyncReport) error {
	ops, err := e.storages.Queue.Pending(ctx, 0)
	if err != nil {
		return fmt.Errorf("load pending operations: %w", err)
	}

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.pushOne(ctx, op, report); err != nil {
			return err
		}
	}
	return nil
}

// pushOne pushes a single queued operation through the retry policy and
// settles its queue status. Only auth failures propagate; everything else
// is recorded on the operation and the pass moves on.
func (e *Engine) pushOne(ctx context.Context, op models.SyncOperation, report *models.SyncReport) error {
	if err := e.storages.Queue.MarkInProgress(ctx, op.ID); err != nil {
		return fmt.Errorf("claim operation %s: %w", op.ID, err)
	}

	var revision string
	err := e.policy.Execute(ctx, func(ctx context.Context) error {
		var pushErr error
		revision, pushErr = e.remote.Push(ctx, op)
		return pushErr
	})

	switch {
	case err == nil:
		if err := e.storages.Queue.MarkCompleted(ctx, op.ID); err != nil {
			return fmt.Errorf("complete operation %s: %w", op.ID, err)
		}
		if op.EntityType == models.EntityPassword && op.Type != models.OpDelete {
			if err := e.storages.Records.SetRevision(ctx, op.EntityID, revision, e.now().UTC()); err != nil && !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("record revision after push %s: %w", op.EntityID, err)
			}
		}
		report.Pushed++
		return nil

	case errors.Is(err, adapter.ErrRevisionConflict):
		// The pull phase owns conflict resolution; the stale push is
		// superseded and a fresh operation is queued if local wins.
		if err := e.storages.Queue.MarkCompleted(ctx, op.ID); err != nil {
			return fmt.Errorf("supersede conflicted operation %s: %w", op.ID, err)
		}
		report.Conflicts++
		return nil

	case errors.Is(err, retry.ErrNetworkAuth):
		if markErr := e.storages.Queue.MarkFailed(ctx, op.ID, err.Error(), true); markErr != nil {
			e.logger.Err(markErr).Str("operation_id", op.ID).Msg("failed to return operation to pending")
		}
		return err

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if markErr := e.storages.Queue.MarkFailed(ctx, op.ID, err.Error(), true); markErr != nil {
			e.logger.Err(markErr).Str("operation_id", op.ID).Msg("failed to return operation to pending")
		}
		return err

	default:
		returnToPending := retry.Retryable(err) && op.RetryCount+1 < op.MaxRetries
		if markErr := e.storages.Queue.MarkFailed(ctx, op.ID, err.Error(), returnToPending); markErr != nil {
			return fmt.Errorf("record failure of operation %s: %w", op.ID, markErr)
		}
		e.logger.Err(err).
			Str("func", "Engine.pushOne").
			Str("operation_id", op.ID).
			Bool("requeued", returnToPending).
			Msg("push failed")
		report.Failed++
		return nil
	}
}

func (e *Engine) pullAndMerge(ctx context.Context, report *models.SyncReport) error {
	lastSync, err := e.storages.Meta.LastSync(ctx)
	if err != nil {
		return fmt.Errorf("load sync watermark: %w", err)
	}

	var remotes []models.RemoteRecord
	err = e.policy.Execute(ctx, func(ctx context.Context) error {
		var pullErr error
		remotes, pullErr = e.remote.Pull(ctx, lastSync)
		return pullErr
	})
	if err != nil {
		return fmt.Errorf("pull remote changes: %w", err)
	}

	for _, remote := range remotes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.applyRemote(ctx, remote, lastSync, report); err != nil {
			return err
		}
	}
	return nil
}

// applyRemote reconciles one pulled record against the local store.
//
// A record is in conflict when both sides changed it after the watermark;
// the newer edit wins. A remote win merges field-wise but never touches the
// device-local fields (folder, tags, package names, quarantine). A local
// win adopts the remote revision token and queues a fresh push.
func (e *Engine) applyRemote(ctx context.Context, remote models.RemoteRecord, lastSync time.Time, report *models.SyncReport) error {
	local, err := e.storages.Records.Get(ctx, remote.Record.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if remote.Deleted {
			return nil
		}
		rec := remote.Record
		rec.Revision = remote.Revision
		edited := remote.EditedAt
		rec.RemoteModifiedAt = &edited
		if err := e.storages.Records.Save(ctx, rec); err != nil {
			return fmt.Errorf("save pulled record %s: %w", rec.ID, err)
		}
		report.Pulled++
		return nil

	case err != nil:
		return fmt.Errorf("load local record %s: %w", remote.Record.ID, err)
	}

	localChanged := local.UpdatedAt.After(lastSync)
	remoteChanged := remote.EditedAt.After(lastSync)

	if localChanged && remoteChanged {
		report.Conflicts++
		if remote.EditedAt.After(local.UpdatedAt) {
			return e.acceptRemote(ctx, local, remote, report)
		}
		return e.keepLocal(ctx, local, remote, report)
	}

	if remoteChanged {
		return e.acceptRemote(ctx, local, remote, report)
	}
	// Remote replayed something we already have. Nothing to do.
	return nil
}

func (e *Engine) acceptRemote(ctx context.Context, local models.EncryptedRecord, remote models.RemoteRecord, report *models.SyncReport) error {
	if remote.Deleted {
		if err := e.storages.Records.Delete(ctx, local.ID); err != nil {
			return fmt.Errorf("delete record %s: %w", local.ID, err)
		}
		report.Merged++
		return nil
	}

	merged, err := mergeRemoteWins(local, remote)
	if err != nil {
		return fmt.Errorf("merge record %s: %w", local.ID, err)
	}
	if err := e.storages.Records.Save(ctx, merged); err != nil {
		return fmt.Errorf("save merged record %s: %w", local.ID, err)
	}
	report.Merged++
	return nil
}

// keepLocal is the local-wins arm: adopt the remote revision token so the
// follow-up push is based on it, then queue that push. A remote tombstone
// losing to a local edit means the record is re-created remotely.
func (e *Engine) keepLocal(ctx context.Context, local models.EncryptedRecord, remote models.RemoteRecord, report *models.SyncReport) error {
	if err := e.storages.Records.SetRevision(ctx, local.ID, remote.Revision, remote.EditedAt); err != nil {
		return fmt.Errorf("adopt remote revision for %s: %w", local.ID, err)
	}

	local.Revision = remote.Revision
	editedAt := remote.EditedAt
	local.RemoteModifiedAt = &editedAt
	opType := models.OpUpdate
	if remote.Deleted {
		opType = models.OpCreate
	}
	if err := e.EnqueueRecord(ctx, opType, local); err != nil {
		return err
	}
	report.Merged++
	return nil
}
