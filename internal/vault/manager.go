// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

// Package vault owns the in-memory session key. Exactly one Manager exists
// per running process; it is the only component that holds the vault key,
// and every dependent receives the key as an explicit parameter via
// SessionKey rather than reaching into shared state.
package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/models"
)

// State of the key manager. Locked is both the initial state and the state
// re-entered on every Lock call.
type State int

const (
	StateLocked State = iota
	StateUnlocking
	StateUnlocked
)

// canaryPlaintext is the known value encrypted under the vault key at
// provisioning time. Decrypting it successfully proves a freshly derived
// key is correct before any record is touched.
const canaryPlaintext = "passvault-canary-v1"

// Credentials is the persisted, non-secret unlock material: without the
// passphrase (or the device hardware) none of it recovers the vault key.
type Credentials struct {
	Salt   []byte
	Canary models.EncryptedBlob

	// WrappedKey is the vault key sealed by the SecureKeyStore. Empty when
	// the device offers no hardware-backed unlock path.
	WrappedKey []byte
}

// Manager is the single owner of the session key. Lock/unlock transitions
// are serialized by mu; the slow Argon2id derivation runs outside the lock
// so reads (IsUnlocked, SessionKey) never stall behind it.
type Manager struct {
	engine   crypto.Engine
	keyStore SecureKeyStore // nil when no hardware path exists
	log      *logger.Logger

	mu             sync.Mutex
	state          State
	key            []byte
	failedAttempts int
}

func NewManager(engine crypto.Engine, keyStore SecureKeyStore, log *logger.Logger) *Manager {
	return &Manager{
		engine:   engine,
		keyStore: keyStore,
		log:      log,
	}
}

// Provision creates a brand-new vault: fresh salt, key derived from
// passphrase, canary encrypted under the key, and (when a SecureKeyStore is
// available) the key wrapped for hardware unlock. On success the manager is
// Unlocked. The returned credentials must be persisted by the caller.
func (m *Manager) Provision(ctx context.Context, passphrase string) (Credentials, error) {
	if err := m.beginUnlock(); err != nil {
		return Credentials{}, err
	}

	salt, err := m.engine.GenerateSalt()
	if err != nil {
		m.abortUnlock(nil, false)
		return Credentials{}, fmt.Errorf("provision vault: %w", err)
	}

	key, err := m.engine.DeriveVaultKey(passphrase, salt)
	if err != nil {
		m.abortUnlock(nil, false)
		return Credentials{}, fmt.Errorf("derive vault key: %w", err)
	}

	canary, err := m.engine.Encrypt([]byte(canaryPlaintext), key)
	if err != nil {
		m.abortUnlock(key, false)
		return Credentials{}, fmt.Errorf("encrypt canary: %w", err)
	}

	creds := Credentials{Salt: salt, Canary: canary}
	if m.keyStore != nil {
		wrapped, err := m.keyStore.WrapKey(ctx, key)
		if err != nil {
			// Hardware wrap is best-effort at provisioning time; the
			// passphrase path still works without it.
			m.log.Warn().Err(err).Msg("secure key store wrap failed, passphrase unlock only")
		} else {
			creds.WrappedKey = wrapped
		}
	}

	if err := m.promote(key); err != nil {
		return Credentials{}, err
	}

	m.log.Info().Msg("vault provisioned and unlocked")
	return creds, nil
}

// UnlockWithPassphrase derives the key from passphrase and the stored salt,
// validates it against the canary, and promotes to Unlocked. On a canary
// mismatch the manager stays Locked, the failed-attempt counter increments,
// and crypto.ErrAuthenticationFailed is returned. Returns nil immediately
// when already unlocked.
func (m *Manager) UnlockWithPassphrase(_ context.Context, passphrase string, creds Credentials) error {
	if err := m.beginUnlock(); err != nil {
		if errors.Is(err, errAlreadyUnlocked) {
			return nil
		}
		return err
	}

	key, err := m.engine.DeriveVaultKey(passphrase, creds.Salt)
	if err != nil {
		m.abortUnlock(nil, false)
		return fmt.Errorf("derive vault key: %w", err)
	}

	return m.validateAndPromote(key, creds)
}

// UnlockWithKeyStore asks the SecureKeyStore to unwrap the sealed vault key.
// ErrAuthRequired and ErrUnlockCancelled from the store pass through
// unchanged. The unwrapped key is still validated against the canary before
// the manager trusts it.
func (m *Manager) UnlockWithKeyStore(ctx context.Context, creds Credentials) error {
	if m.keyStore == nil {
		return errors.New("no secure key store configured")
	}
	if len(creds.WrappedKey) == 0 {
		return errors.New("no wrapped key in credentials")
	}

	if err := m.beginUnlock(); err != nil {
		if errors.Is(err, errAlreadyUnlocked) {
			return nil
		}
		return err
	}

	key, err := m.keyStore.UnwrapKey(ctx, creds.WrappedKey)
	if err != nil {
		m.abortUnlock(nil, false)
		return fmt.Errorf("unwrap vault key: %w", err)
	}

	return m.validateAndPromote(key, creds)
}

// ChangePassphrase verifies oldPassphrase against the current credentials,
// then re-derives everything under newPassphrase: new salt, new canary, new
// hardware wrap. The session key changes, so an unlocked manager is
// re-keyed in place.
func (m *Manager) ChangePassphrase(ctx context.Context, oldPassphrase, newPassphrase string, creds Credentials) (Credentials, error) {
	oldKey, err := m.engine.DeriveVaultKey(oldPassphrase, creds.Salt)
	if err != nil {
		return Credentials{}, fmt.Errorf("derive old vault key: %w", err)
	}
	defer m.engine.Wipe(oldKey)

	if err := m.checkCanary(creds.Canary, oldKey); err != nil {
		m.mu.Lock()
		m.failedAttempts++
		m.mu.Unlock()
		return Credentials{}, err
	}

	salt, err := m.engine.GenerateSalt()
	if err != nil {
		return Credentials{}, fmt.Errorf("generate salt: %w", err)
	}
	newKey, err := m.engine.DeriveVaultKey(newPassphrase, salt)
	if err != nil {
		return Credentials{}, fmt.Errorf("derive new vault key: %w", err)
	}

	canary, err := m.engine.Encrypt([]byte(canaryPlaintext), newKey)
	if err != nil {
		m.engine.Wipe(newKey)
		return Credentials{}, fmt.Errorf("encrypt canary: %w", err)
	}

	out := Credentials{Salt: salt, Canary: canary}
	if m.keyStore != nil {
		wrapped, err := m.keyStore.WrapKey(ctx, newKey)
		if err != nil {
			m.log.Warn().Err(err).Msg("secure key store rewrap failed")
		} else {
			out.WrappedKey = wrapped
		}
	}

	m.mu.Lock()
	if m.state == StateUnlocked {
		m.engine.Wipe(m.key)
		m.key = newKey
	} else {
		m.engine.Wipe(newKey)
	}
	m.mu.Unlock()

	m.log.Info().Msg("vault passphrase changed")
	return out, nil
}

// Lock wipes the session key and returns to Locked. Idempotent. A Lock
// racing an in-flight unlock wins: the unlock notices the state change and
// abandons its freshly derived key.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key != nil {
		m.engine.Wipe(m.key)
		m.key = nil
	}
	m.state = StateLocked
}

func (m *Manager) IsUnlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateUnlocked
}

// FailedAttempts returns the number of failed passphrase validations since
// the last successful unlock. Lockout policy is the caller's business.
func (m *Manager) FailedAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failedAttempts
}

// SessionKey returns the active vault key, or ErrVaultLocked. The slice is
// the manager's own buffer: callers must not retain or modify it. A Lock
// concurrent with an in-flight decrypt wipes the buffer and the decrypt
// surfaces crypto.ErrAuthenticationFailed; that race is accepted by design
// of the lock semantics.
func (m *Manager) SessionKey() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUnlocked {
		return nil, ErrVaultLocked
	}
	return m.key, nil
}

var errAlreadyUnlocked = errors.New("already unlocked")

func (m *Manager) beginUnlock() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateUnlocking:
		return ErrUnlockInProgress
	case StateUnlocked:
		return errAlreadyUnlocked
	}
	m.state = StateUnlocking
	return nil
}

// validateAndPromote checks the derived key against the canary and installs
// it. Called with state == StateUnlocking and mu released.
func (m *Manager) validateAndPromote(key []byte, creds Credentials) error {
	if err := m.checkCanary(creds.Canary, key); err != nil {
		m.abortUnlock(key, errors.Is(err, crypto.ErrAuthenticationFailed))
		return err
	}
	return m.promote(key)
}

func (m *Manager) checkCanary(canary models.EncryptedBlob, key []byte) error {
	plaintext, err := m.engine.Decrypt(canary, key)
	if err != nil {
		return err
	}
	defer m.engine.Wipe(plaintext)

	if !bytes.Equal(plaintext, []byte(canaryPlaintext)) {
		return crypto.ErrAuthenticationFailed
	}
	return nil
}

func (m *Manager) promote(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUnlocking {
		// Lock() raced the unlock; discard the key.
		m.engine.Wipe(key)
		return ErrVaultLocked
	}
	m.key = key
	m.state = StateUnlocked
	m.failedAttempts = 0
	return nil
}

// abortUnlock wipes key (if any), returns to Locked unless a concurrent
// Lock already did, and optionally counts a failed attempt.
func (m *Manager) abortUnlock(key []byte, authFailure bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key != nil {
		m.engine.Wipe(key)
	}
	if m.state == StateUnlocking {
		m.state = StateLocked
	}
	if authFailure {
		m.failedAttempts++
		m.log.Warn().Int("failed_attempts", m.failedAttempts).Msg("vault unlock rejected")
	}
}
