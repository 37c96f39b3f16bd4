// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okunev/passvault/internal/codec"
	"github.com/okunev/passvault/internal/config"
	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/internal/store"
	"github.com/okunev/passvault/internal/vault"
	"github.com/okunev/passvault/migrations"
	"github.com/okunev/passvault/models"
)

func TestCredentials_SaveLoadRoundTrip(t *testing.T) {
	// arrange
	a := &App{cfg: &config.StructuredConfig{}}
	a.cfg.Storage.DB.DSN = filepath.Join(t.TempDir(), "vault.db")

	creds := vault.Credentials{
		Salt:       []byte("salt-salt-salt-salt-salt-salt-32"),
		WrappedKey: []byte("sealed"),
	}
	creds.Canary.IV = []byte("twelve-bytes")
	creds.Canary.Ciphertext = []byte("canary-ciphertext")
	creds.Canary.AuthTag = []byte("sixteen-byte-tag")

	// act
	require.NoError(t, a.saveCredentials(creds))
	loaded, err := a.loadCredentials()

	// assert
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)
}

func TestCredentials_LoadMissingFile(t *testing.T) {
	a := &App{cfg: &config.StructuredConfig{}}
	a.cfg.Storage.DB.DSN = filepath.Join(t.TempDir(), "vault.db")

	_, err := a.loadCredentials()

	require.Error(t, err)
	assert.EqualError(t, err, MsgVaultNotProvisioned)
}

func TestPersistQuarantine_FlagSurvivesDecodeFailure(t *testing.T) {
	// arrange: a stored record whose password ciphertext got corrupted.
	ctx := context.Background()

	db, err := store.NewConnectSQLite(ctx, ":memory:", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Migrate(db.DB))

	engine := crypto.NewEngine()
	key := make([]byte, 32)
	cdc := codec.New(engine, logger.Nop())

	now := time.Now().UTC()
	enc, err := cdc.ToStorageForm(models.PasswordRecord{
		ID:        "rec-1",
		Title:     "Mail",
		Password:  "hunter2",
		CreatedAt: now,
		UpdatedAt: now,
	}, key)
	require.NoError(t, err)
	enc.Password[len(enc.Password)-1] ^= 0xFF

	a := &App{
		storages: store.NewStorages(db, logger.Nop()),
		codec:    cdc,
		log:      logger.Nop(),
	}
	require.NoError(t, a.storages.Records.Save(ctx, enc))

	// act: decode the batch and persist the quarantine outcome.
	encs, err := a.storages.Records.GetAll(ctx)
	require.NoError(t, err)
	recs, err := a.codec.ToDomainBatch(encs, key)
	require.NoError(t, err)
	a.persistQuarantine(ctx, encs, recs)

	// assert: the flag is durable, not just an in-memory decode result.
	require.True(t, recs[0].Quarantined)
	stored, err := a.storages.Records.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.True(t, stored.Quarantined, "quarantine must survive in the store")
}

func TestPickMatch(t *testing.T) {
	recs := []models.PasswordRecord{
		{ID: "1", Title: "GitHub", Username: "dev", URL: "https://github.com"},
		{ID: "2", Title: "Bank", Username: "payer", URL: "https://mybank.example"},
	}

	tests := []struct {
		name   string
		query  string
		wantID string
		found  bool
	}{
		{name: "domain match", query: "https://github.com/login", wantID: "1", found: true},
		{name: "title fallback", query: "bank", wantID: "2", found: true},
		{name: "username fallback", query: "payer", wantID: "2", found: true},
		{name: "no match", query: "unknown-service", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickMatch(recs, tt.query)

			require.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}
