// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/models"
)

type queueRepository struct {
	*DB
	logger *logger.Logger
}

func NewQueueRepository(db *DB, log *logger.Logger) QueueRepository {
	return &queueRepository{DB: db, logger: log}
}

func (q *queueRepository) Append(ctx context.Context, op models.SyncOperation) error {
	_, err := q.DB.ExecContext(ctx, appendOperation,
		op.ID,
		string(op.Type),
		op.EntityID,
		string(op.EntityType),
		op.Payload,
		op.QueuedAt,
		op.RetryCount,
		op.MaxRetries,
		string(op.Status),
		op.ErrorMessage,
		nullTime(op.LastAttemptAt),
	)
	if err != nil {
		q.logger.Err(err).
			Str("func", "queueRepository.Append").
			Str("operation_id", op.ID).
			Msg("failed to append sync operation")
		return fmt.Errorf("append operation %s: %w", op.ID, mapSQLiteErr(err))
	}

	q.notifyChanged()
	return nil
}

func (q *queueRepository) Pending(ctx context.Context, limit int) ([]models.SyncOperation, error) {
	b := qb.Select(
		"id", "op_type", "entity_id", "entity_type", "payload",
		"queued_at", "retry_count", "max_retries", "status",
		"error_message", "last_attempt_at",
	).
		From("sync_queue").
		Where(sq.Eq{"status": string(models.OpPending)}).
		OrderBy("queued_at", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending query: %w", err)
	}
	return q.selectOperations(ctx, query, args...)
}

func (q *queueRepository) MarkInProgress(ctx context.Context, id string) error {
	return q.transition(ctx, id, map[string]any{
		"status":          string(models.OpInProgress),
		"last_attempt_at": time.Now().UTC(),
	}, string(models.OpPending))
}

func (q *queueRepository) MarkCompleted(ctx context.Context, id string) error {
	return q.transition(ctx, id, map[string]any{
		"status":        string(models.OpCompleted),
		"error_message": nil,
	}, string(models.OpInProgress))
}

func (q *queueRepository) MarkFailed(ctx context.Context, id, errMsg string, returnToPending bool) error {
	status := models.OpFailed
	if returnToPending {
		status = models.OpPending
	}

	query, args, err := qb.Update("sync_queue").
		Set("status", string(status)).
		Set("error_message", errMsg).
		Set("retry_count", sq.Expr("retry_count + 1")).
		Set("last_attempt_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build fail update: %w", err)
	}

	if _, err = q.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark operation %s failed: %w", id, mapSQLiteErr(err))
	}

	q.notifyChanged()
	return nil
}

func (q *queueRepository) Failed(ctx context.Context) ([]models.SyncOperation, error) {
	query, args, err := qb.Select(
		"id", "op_type", "entity_id", "entity_type", "payload",
		"queued_at", "retry_count", "max_retries", "status",
		"error_message", "last_attempt_at",
	).
		From("sync_queue").
		Where(sq.Eq{"status": string(models.OpFailed)}).
		OrderBy("queued_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build failed query: %w", err)
	}
	return q.selectOperations(ctx, query, args...)
}

func (q *queueRepository) PurgeCompleted(ctx context.Context, cutoff time.Time) error {
	query, args, err := qb.Delete("sync_queue").
		Where(sq.Eq{"status": string(models.OpCompleted)}).
		Where(sq.Lt{"last_attempt_at": cutoff}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build purge query: %w", err)
	}

	if _, err = q.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("purge completed operations: %w", mapSQLiteErr(err))
	}
	return nil
}

// transition applies set to the operation only when it is in fromStatus,
// making the pending -> in_progress -> completed hops race-safe against a
// concurrent Enqueue re-reading the queue.
func (q *queueRepository) transition(ctx context.Context, id string, set map[string]any, fromStatus string) error {
	query, args, err := qb.Update("sync_queue").
		SetMap(set).
		Where(sq.Eq{"id": id, "status": fromStatus}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build transition: %w", err)
	}

	res, err := q.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition operation %s: %w", id, mapSQLiteErr(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("operation %s not in status %s: %w", id, fromStatus, ErrNotFound)
	}
	return nil
}

func (q *queueRepository) selectOperations(ctx context.Context, query string, args ...any) ([]models.SyncOperation, error) {
	rows, err := q.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var out []models.SyncOperation
	for rows.Next() {
		var (
			op      models.SyncOperation
			opType  string
			entType string
			status  string
			errMsg  sql.NullString
			lastAtt sql.NullTime
		)
		err = rows.Scan(
			&op.ID, &opType, &op.EntityID, &entType, &op.Payload,
			&op.QueuedAt, &op.RetryCount, &op.MaxRetries, &status,
			&errMsg, &lastAtt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", mapSQLiteErr(err))
		}

		op.Type = models.OperationType(opType)
		op.EntityType = models.EntityType(entType)
		op.Status = models.OperationStatus(status)
		if errMsg.Valid {
			op.ErrorMessage = &errMsg.String
		}
		if lastAtt.Valid {
			t := lastAtt.Time
			op.LastAttemptAt = &t
		}
		out = append(out, op)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", mapSQLiteErr(err))
	}
	return out, nil
}
