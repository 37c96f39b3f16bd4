package vault

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/internal/mock"
)

func newUnlockedManager(t *testing.T) (*Manager, Credentials) {
	t.Helper()
	m := NewManager(crypto.NewEngine(), nil, logger.Nop())
	creds, err := m.Provision(context.Background(), "correct horse battery staple")
	require.NoError(t, err)
	require.True(t, m.IsUnlocked())
	return m, creds
}

func TestProvision_UnlocksAndReturnsCredentials(t *testing.T) {
	m, creds := newUnlockedManager(t)

	assert.Len(t, creds.Salt, 32)
	assert.NotEmpty(t, creds.Canary.Ciphertext)
	assert.Empty(t, creds.WrappedKey, "no key store configured")

	key, err := m.SessionKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestUnlockWithPassphrase_RightAndWrong(t *testing.T) {
	m, creds := newUnlockedManager(t)
	m.Lock()
	require.False(t, m.IsUnlocked())

	err := m.UnlockWithPassphrase(context.Background(), "wrong passphrase", creds)
	require.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
	assert.False(t, m.IsUnlocked())
	assert.Equal(t, 1, m.FailedAttempts())

	_, err = m.SessionKey()
	require.ErrorIs(t, err, ErrVaultLocked)

	require.NoError(t, m.UnlockWithPassphrase(context.Background(), "correct horse battery staple", creds))
	assert.True(t, m.IsUnlocked())
	assert.Zero(t, m.FailedAttempts(), "counter resets on success")
}

func TestUnlockWithPassphrase_AlreadyUnlockedIsNoop(t *testing.T) {
	m, creds := newUnlockedManager(t)

	before, err := m.SessionKey()
	require.NoError(t, err)

	// Even a wrong passphrase is a no-op while unlocked.
	require.NoError(t, m.UnlockWithPassphrase(context.Background(), "whatever", creds))

	after, err := m.SessionKey()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLock_IdempotentAndWipes(t *testing.T) {
	m, _ := newUnlockedManager(t)

	key, err := m.SessionKey()
	require.NoError(t, err)
	saved := make([]byte, len(key))
	copy(saved, key)

	m.Lock()
	m.Lock() // second Lock is a no-op

	assert.False(t, m.IsUnlocked())
	// The manager's buffer was zeroed in place.
	assert.NotEqual(t, saved, key)
	for _, b := range key {
		assert.Zero(t, b)
	}
}

func TestFailedAttempts_Accumulate(t *testing.T) {
	m, creds := newUnlockedManager(t)
	m.Lock()

	for i := 1; i <= 3; i++ {
		err := m.UnlockWithPassphrase(context.Background(), "nope", creds)
		require.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
		assert.Equal(t, i, m.FailedAttempts())
	}
}

func TestChangePassphrase_RekeysInPlace(t *testing.T) {
	m, creds := newUnlockedManager(t)

	newCreds, err := m.ChangePassphrase(context.Background(), "correct horse battery staple", "new passphrase", creds)
	require.NoError(t, err)

	assert.NotEqual(t, creds.Salt, newCreds.Salt, "fresh salt on every change")
	assert.True(t, m.IsUnlocked(), "manager stays unlocked across the change")

	// Old passphrase is dead, new one works.
	m.Lock()
	err = m.UnlockWithPassphrase(context.Background(), "correct horse battery staple", newCreds)
	require.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
	require.NoError(t, m.UnlockWithPassphrase(context.Background(), "new passphrase", newCreds))
}

func TestChangePassphrase_WrongOldPassphrase(t *testing.T) {
	m, creds := newUnlockedManager(t)

	_, err := m.ChangePassphrase(context.Background(), "wrong", "new passphrase", creds)
	require.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
	assert.Equal(t, 1, m.FailedAttempts())

	// Existing session is untouched.
	assert.True(t, m.IsUnlocked())
}

func TestChangePassphrase_WhileLocked(t *testing.T) {
	m, creds := newUnlockedManager(t)
	m.Lock()

	newCreds, err := m.ChangePassphrase(context.Background(), "correct horse battery staple", "new passphrase", creds)
	require.NoError(t, err)

	// The change itself does not unlock.
	assert.False(t, m.IsUnlocked())
	require.NoError(t, m.UnlockWithPassphrase(context.Background(), "new passphrase", newCreds))
}

func TestUnlockWithKeyStore_HappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ks := mock.NewMockSecureKeyStore(ctrl)
	engine := crypto.NewEngine()
	m := NewManager(engine, ks, logger.Nop())

	var sealed []byte
	ks.EXPECT().WrapKey(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, key []byte) ([]byte, error) {
			sealed = make([]byte, len(key))
			copy(sealed, key)
			return []byte("wrapped-blob"), nil
		})

	creds, err := m.Provision(context.Background(), "pass")
	require.NoError(t, err)
	require.Equal(t, []byte("wrapped-blob"), creds.WrappedKey)

	m.Lock()

	ks.EXPECT().UnwrapKey(gomock.Any(), []byte("wrapped-blob")).Return(sealed, nil)
	require.NoError(t, m.UnlockWithKeyStore(context.Background(), creds))
	assert.True(t, m.IsUnlocked())
}

func TestUnlockWithKeyStore_AuthRequiredPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ks := mock.NewMockSecureKeyStore(ctrl)
	m := NewManager(crypto.NewEngine(), ks, logger.Nop())

	creds := Credentials{WrappedKey: []byte("blob")}
	ks.EXPECT().UnwrapKey(gomock.Any(), gomock.Any()).Return(nil, ErrAuthRequired)

	err := m.UnlockWithKeyStore(context.Background(), creds)
	require.ErrorIs(t, err, ErrAuthRequired)
	assert.False(t, m.IsUnlocked())
	assert.Zero(t, m.FailedAttempts(), "hardware refusal is not a passphrase failure")
}

func TestUnlockWithKeyStore_TamperedUnwrapFailsCanary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ks := mock.NewMockSecureKeyStore(ctrl)
	m := NewManager(crypto.NewEngine(), ks, logger.Nop())

	ks.EXPECT().WrapKey(gomock.Any(), gomock.Any()).Return([]byte("wrapped-blob"), nil)
	creds, err := m.Provision(context.Background(), "pass")
	require.NoError(t, err)
	m.Lock()

	// The store returns a wrong key; the canary must catch it.
	ks.EXPECT().UnwrapKey(gomock.Any(), gomock.Any()).Return(make([]byte, 32), nil)
	err = m.UnlockWithKeyStore(context.Background(), creds)
	require.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
	assert.False(t, m.IsUnlocked())
	assert.Equal(t, 1, m.FailedAttempts())
}

func TestUnlockWithKeyStore_NotConfigured(t *testing.T) {
	m := NewManager(crypto.NewEngine(), nil, logger.Nop())

	err := m.UnlockWithKeyStore(context.Background(), Credentials{WrappedKey: []byte("blob")})
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m2 := NewManager(crypto.NewEngine(), mock.NewMockSecureKeyStore(ctrl), logger.Nop())
	err = m2.UnlockWithKeyStore(context.Background(), Credentials{})
	require.Error(t, err)
}

func TestProvision_WrapFailureFallsBackToPassphraseOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ks := mock.NewMockSecureKeyStore(ctrl)
	m := NewManager(crypto.NewEngine(), ks, logger.Nop())

	ks.EXPECT().WrapKey(gomock.Any(), gomock.Any()).Return(nil, errors.New("tpm unavailable"))

	creds, err := m.Provision(context.Background(), "pass")
	require.NoError(t, err, "wrap failure is not fatal")
	assert.Empty(t, creds.WrappedKey)
	assert.True(t, m.IsUnlocked())
}

func TestLock_WinsRaceAgainstUnlock(t *testing.T) {
	m, creds := newUnlockedManager(t)
	m.Lock()

	// Reach in and simulate the window between beginUnlock and promote.
	require.NoError(t, m.beginUnlock())
	m.Lock()

	key, err := m.engine.DeriveVaultKey("correct horse battery staple", creds.Salt)
	require.NoError(t, err)
	err = m.promote(key)
	require.ErrorIs(t, err, ErrVaultLocked)
	assert.False(t, m.IsUnlocked())
}

func TestBeginUnlock_RejectsConcurrentUnlock(t *testing.T) {
	m, creds := newUnlockedManager(t)
	m.Lock()

	require.NoError(t, m.beginUnlock())
	err := m.UnlockWithPassphrase(context.Background(), "correct horse battery staple", creds)
	require.ErrorIs(t, err, ErrUnlockInProgress)
}
