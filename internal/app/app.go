// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/okunev/passvault/internal/adapter"
	"github.com/okunev/passvault/internal/codec"
	"github.com/okunev/passvault/internal/config"
	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/internal/export"
	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/internal/retry"
	"github.com/okunev/passvault/internal/store"
	"github.com/okunev/passvault/internal/syncer"
	"github.com/okunev/passvault/internal/vault"
	"github.com/okunev/passvault/migrations"
)

// App owns every long-lived component: the local store, the vault key
// manager, the sync engine, and the background workers.
type App struct {
	cfg *config.StructuredConfig
	log *logger.Logger

	storages *store.Storages
	manager  *vault.Manager
	codec    *codec.Codec
	exporter *export.Exporter
	remote   adapter.RemoteStore
	engine   *syncer.Engine
	autoLock *vault.AutoLock
	job      *syncer.Job
}

// New wires the application together: database (with migrations applied),
// crypto engine, vault manager, remote adapter when configured, and the
// sync engine on top.
func New(ctx context.Context, cfg *config.StructuredConfig, log *logger.Logger) (*App, error) {
	db, err := store.NewConnectSQLite(ctx, cfg.Storage.DB.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	if err := migrations.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	storages := store.NewStorages(db, log)
	engine := crypto.NewEngine()

	// No hardware key store on this platform; passphrase unlock only.
	manager := vault.NewManager(engine, nil, log)

	var remote adapter.RemoteStore
	if cfg.Remote.BaseURL != "" {
		remote = adapter.NewHTTPRemoteStore(adapter.HTTPClientConfig{
			BaseURL: cfg.Remote.BaseURL,
			Timeout: cfg.Remote.RequestTimeout,
		}, log)
		remote.SetToken(cfg.Remote.Token)
	}

	policy := retry.Policy{
		MaxAttempts:    cfg.Sync.MaxAttempts,
		BaseDelay:      cfg.Sync.BaseDelay,
		MaxDelay:       cfg.Sync.MaxDelay,
		JitterFraction: cfg.Sync.JitterFraction,
	}
	syncEngine := syncer.NewEngine(storages, remote, policy, log)

	a := &App{
		cfg:      cfg,
		log:      log,
		storages: storages,
		manager:  manager,
		codec:    codec.New(engine, log),
		exporter: export.NewExporter(engine),
		remote:   remote,
		engine:   syncEngine,
		autoLock: vault.NewAutoLock(manager, cfg.Vault.AutoLockIdle, log),
	}
	if remote != nil {
		a.job = syncer.NewJob(syncEngine, cfg.Sync.Interval, db.Watch(ctx), log)
	}
	return a, nil
}

// Close locks the vault, stops background workers, and closes the database.
func (a *App) Close() error {
	if a.job != nil {
		a.job.Stop()
	}
	a.autoLock.Stop()
	a.manager.Lock()
	return a.storages.DB.Close()
}

// credentialsPath places the unlock material next to the database file.
func (a *App) credentialsPath() string {
	return a.cfg.Storage.DB.DSN + ".credentials.json"
}

// credentialsFile is the JSON form of [vault.Credentials]. None of it is
// secret, but the file must survive intact: losing the salt or canary means
// losing the vault.
type credentialsFile struct {
	Salt       []byte `json:"salt"`
	CanaryIV   []byte `json:"canary_iv"`
	CanaryCT   []byte `json:"canary_ciphertext"`
	CanaryTag  []byte `json:"canary_auth_tag"`
	WrappedKey []byte `json:"wrapped_key,omitempty"`
}

func (a *App) loadCredentials() (vault.Credentials, error) {
	data, err := os.ReadFile(a.credentialsPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return vault.Credentials{}, errors.New(MsgVaultNotProvisioned)
		}
		return vault.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var f credentialsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return vault.Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}

	creds := vault.Credentials{Salt: f.Salt, WrappedKey: f.WrappedKey}
	creds.Canary.IV = f.CanaryIV
	creds.Canary.Ciphertext = f.CanaryCT
	creds.Canary.AuthTag = f.CanaryTag
	return creds, nil
}

func (a *App) saveCredentials(creds vault.Credentials) error {
	f := credentialsFile{
		Salt:       creds.Salt,
		CanaryIV:   creds.Canary.IV,
		CanaryCT:   creds.Canary.Ciphertext,
		CanaryTag:  creds.Canary.AuthTag,
		WrappedKey: creds.WrappedKey,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(a.credentialsPath(), data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
