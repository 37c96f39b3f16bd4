// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/models"
)

type recordRepository struct {
	*DB
	logger *logger.Logger
}

func NewRecordRepository(db *DB, log *logger.Logger) RecordRepository {
	return &recordRepository{DB: db, logger: log}
}

func (r *recordRepository) Save(ctx context.Context, recs ...models.EncryptedRecord) error {
	for _, rec := range recs {
		tags, err := json.Marshal(orEmpty(rec.Tags))
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		packages, err := json.Marshal(orEmpty(rec.PackageNames))
		if err != nil {
			return fmt.Errorf("encode package names: %w", err)
		}

		_, err = r.DB.ExecContext(ctx, upsertRecord,
			rec.ID,
			rec.Title,
			rec.Username,
			rec.Password,
			rec.URL,
			rec.Notes,
			rec.FolderID,
			string(tags),
			string(packages),
			rec.Favorite,
			rec.CreatedAt,
			rec.UpdatedAt,
			nullTime(rec.RemoteModifiedAt),
			rec.Quarantined,
			rec.Revision,
		)
		if err != nil {
			r.logger.Err(err).
				Str("func", "recordRepository.Save").
				Str("record_id", rec.ID).
				Msg("failed to upsert record")
			return fmt.Errorf("save record %s: %w", rec.ID, mapSQLiteErr(err))
		}
	}

	r.notifyChanged()
	return nil
}

func (r *recordRepository) Get(ctx context.Context, id string) (models.EncryptedRecord, error) {
	row := r.DB.QueryRowContext(ctx, getRecord, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EncryptedRecord{}, fmt.Errorf("record %s: %w", id, ErrNotFound)
		}
		return models.EncryptedRecord{}, fmt.Errorf("get record %s: %w", id, mapSQLiteErr(err))
	}
	return rec, nil
}

func (r *recordRepository) GetAll(ctx context.Context) ([]models.EncryptedRecord, error) {
	rows, err := r.DB.QueryContext(ctx, getAllRecords)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var out []models.EncryptedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", mapSQLiteErr(err))
		}
		out = append(out, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", mapSQLiteErr(err))
	}
	return out, nil
}

func (r *recordRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM passwords WHERE id = ?;`, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, mapSQLiteErr(err))
	}
	r.notifyChanged()
	return nil
}

func (r *recordRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM passwords;`); err != nil {
		return fmt.Errorf("delete all records: %w", mapSQLiteErr(err))
	}
	r.notifyChanged()
	return nil
}

func (r *recordRepository) SetQuarantined(ctx context.Context, id string, quarantined bool) error {
	return r.partialUpdate(ctx, id, map[string]any{"quarantined": quarantined})
}

func (r *recordRepository) SetRevision(ctx context.Context, id, revision string, remoteModifiedAt time.Time) error {
	return r.partialUpdate(ctx, id, map[string]any{
		"revision":           revision,
		"remote_modified_at": remoteModifiedAt,
	})
}

// partialUpdate builds the UPDATE with squirrel so each caller touches only
// its own columns.
func (r *recordRepository) partialUpdate(ctx context.Context, id string, set map[string]any) error {
	query, args, err := qb.Update("passwords").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, mapSQLiteErr(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}

	r.notifyChanged()
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.EncryptedRecord, error) {
	var (
		rec      models.EncryptedRecord
		tags     string
		packages string
		remote   sql.NullTime
		folder   sql.NullString
	)

	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Username,
		&rec.Password,
		&rec.URL,
		&rec.Notes,
		&folder,
		&tags,
		&packages,
		&rec.Favorite,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&remote,
		&rec.Quarantined,
		&rec.Revision,
	)
	if err != nil {
		return models.EncryptedRecord{}, err
	}

	if folder.Valid {
		rec.FolderID = &folder.String
	}
	if remote.Valid {
		t := remote.Time
		rec.RemoteModifiedAt = &t
	}
	if err = json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return models.EncryptedRecord{}, fmt.Errorf("decode tags: %w", err)
	}
	if err = json.Unmarshal([]byte(packages), &rec.PackageNames); err != nil {
		return models.EncryptedRecord{}, fmt.Errorf("decode package names: %w", err)
	}
	if len(rec.Tags) == 0 {
		rec.Tags = nil
	}
	if len(rec.PackageNames) == 0 {
		rec.PackageNames = nil
	}

	return rec, nil
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
