// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

// Package store is the durable device-local layer: encrypted password
// records, folders, tags, the offline sync queue, and sync bookkeeping, all
// in a single SQLite database. Secret fields arrive here already encrypted;
// the store never sees plaintext.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/okunev/passvault/internal/logger"
)

// DB wraps the SQLite handle together with the mutation notifier shared by
// all repositories.
type DB struct {
	*sql.DB
	logger   *logger.Logger
	notifier *notifier
}

// NewConnectSQLite opens (and creates, if necessary) the local database
// file. dsn ":memory:" yields a throwaway in-memory database for tests.
func NewConnectSQLite(ctx context.Context, dsn string, log *logger.Logger) (*DB, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	if dsn != ":memory:" {
		if err := createLocalDBFileIfNotExists(dsn); err != nil {
			log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
			return nil, fmt.Errorf("create database file: %w", mapSQLiteErr(err))
		}
	}

	conn, err := sql.Open("sqlite3", dsn+"?_loc=UTC&_busy_timeout=5000")
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("open local database: %w", mapSQLiteErr(err))
	}

	// The sync queue is appended to concurrently with a running sync pass; a
	// single writer connection sidesteps SQLITE_BUSY races.
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, fmt.Errorf("ping local database: %w", mapSQLiteErr(err))
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to local database")

	return &DB{
		DB:       conn,
		logger:   log,
		notifier: newNotifier(),
	}, nil
}

// Watch subscribes to local mutations. See [notifier.Watch].
func (db *DB) Watch(ctx context.Context) <-chan struct{} {
	return db.notifier.Watch(ctx)
}

func (db *DB) notifyChanged() {
	db.notifier.Broadcast()
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		if dir := filepath.Dir(dbFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create database dir: %w", err)
			}
		}
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("create database file: %w", err)
		}
		return f.Close()
	}
	return nil
}

// mapSQLiteErr folds driver errors into the storage taxonomy: corruption is
// terminal, everything else I/O-transient. sql.ErrNoRows stays ErrNotFound.
// The original error stays wrapped so context cancellation remains visible
// through the taxonomy sentinel.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		if se.Code == sqlite3.ErrCorrupt || se.Code == sqlite3.ErrNotADB {
			return fmt.Errorf("%w: %w", ErrStorageCorrupted, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrStorageIO, err)
}
