// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/models"
)

const lastSyncKey = "last_sync"

type folderRepository struct {
	*DB
	logger *logger.Logger
}

func NewFolderRepository(db *DB, log *logger.Logger) FolderRepository {
	return &folderRepository{DB: db, logger: log}
}

func (f *folderRepository) Save(ctx context.Context, folders ...models.Folder) error {
	for _, folder := range folders {
		_, err := f.DB.ExecContext(ctx, upsertFolder,
			folder.ID, folder.Name, folder.ParentID, folder.CreatedAt, folder.UpdatedAt)
		if err != nil {
			return fmt.Errorf("save folder %s: %w", folder.ID, mapSQLiteErr(err))
		}
	}
	f.notifyChanged()
	return nil
}

func (f *folderRepository) GetAll(ctx context.Context) ([]models.Folder, error) {
	rows, err := f.DB.QueryContext(ctx,
		`SELECT id, name, parent_id, created_at, updated_at FROM folders ORDER BY name, id;`)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var out []models.Folder
	for rows.Next() {
		var (
			folder models.Folder
			parent sql.NullString
		)
		if err = rows.Scan(&folder.ID, &folder.Name, &parent, &folder.CreatedAt, &folder.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", mapSQLiteErr(err))
		}
		if parent.Valid {
			folder.ParentID = &parent.String
		}
		out = append(out, folder)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", mapSQLiteErr(err))
	}
	return out, nil
}

func (f *folderRepository) Delete(ctx context.Context, id string) error {
	if _, err := f.DB.ExecContext(ctx, `DELETE FROM folders WHERE id = ?;`, id); err != nil {
		return fmt.Errorf("delete folder %s: %w", id, mapSQLiteErr(err))
	}
	f.notifyChanged()
	return nil
}

type tagRepository struct {
	*DB
	logger *logger.Logger
}

func NewTagRepository(db *DB, log *logger.Logger) TagRepository {
	return &tagRepository{DB: db, logger: log}
}

func (t *tagRepository) Save(ctx context.Context, tags ...models.Tag) error {
	for _, tag := range tags {
		if _, err := t.DB.ExecContext(ctx, upsertTag, tag.ID, tag.Name); err != nil {
			return fmt.Errorf("save tag %s: %w", tag.ID, mapSQLiteErr(err))
		}
	}
	t.notifyChanged()
	return nil
}

func (t *tagRepository) GetAll(ctx context.Context) ([]models.Tag, error) {
	rows, err := t.DB.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name, id;`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err = rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", mapSQLiteErr(err))
		}
		out = append(out, tag)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", mapSQLiteErr(err))
	}
	return out, nil
}

func (t *tagRepository) Delete(ctx context.Context, id string) error {
	if _, err := t.DB.ExecContext(ctx, `DELETE FROM tags WHERE id = ?;`, id); err != nil {
		return fmt.Errorf("delete tag %s: %w", id, mapSQLiteErr(err))
	}
	t.notifyChanged()
	return nil
}

type metaRepository struct {
	*DB
	logger *logger.Logger
}

func NewMetaRepository(db *DB, log *logger.Logger) MetaRepository {
	return &metaRepository{DB: db, logger: log}
}

func (m *metaRepository) LastSync(ctx context.Context) (time.Time, error) {
	var value string
	err := m.DB.QueryRowContext(ctx,
		`SELECT value FROM sync_meta WHERE key = ?;`, lastSyncKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get last sync: %w", mapSQLiteErr(err))
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed last sync timestamp %q", ErrStorageCorrupted, value)
	}
	return t, nil
}

func (m *metaRepository) SetLastSync(ctx context.Context, t time.Time) error {
	value := t.UTC().Format(time.RFC3339Nano)
	if _, err := m.DB.ExecContext(ctx, upsertMeta, lastSyncKey, value); err != nil {
		return fmt.Errorf("set last sync: %w", mapSQLiteErr(err))
	}
	return nil
}
