// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

// Package retry is the single point deciding retry-vs-surface for every
// retryable operation in the sync path.
package retry

import (
	"context"
	"errors"

	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/internal/store"
	"github.com/okunev/passvault/internal/vault"
)

// Retryable classifies err per the error taxonomy: connectivity, timeouts,
// rate limits and transient storage I/O retry; authentication, vault-locked,
// crypto, validation and corruption failures surface immediately. Unknown
// errors default to not retryable: retrying a failure we cannot name risks
// repeating a non-idempotent side effect.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false

	// Retryable classes.
	case errors.Is(err, ErrNetworkTransient),
		errors.Is(err, store.ErrStorageIO):
		return true

	// Terminal classes.
	case errors.Is(err, ErrNetworkAuth),
		errors.Is(err, ErrSyncNotConfigured),
		errors.Is(err, crypto.ErrAuthenticationFailed),
		errors.Is(err, crypto.ErrInvalidKeySize),
		errors.Is(err, crypto.ErrInvalidInput),
		errors.Is(err, vault.ErrVaultLocked),
		errors.Is(err, store.ErrStorageCorrupted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false

	default:
		return false
	}
}
