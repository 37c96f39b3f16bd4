// Package adapter is the HTTP client for the remote vault service. It
// translates transport and status-code failures into the network error
// taxonomy consumed by the retry policy; nothing above this package ever
// inspects an HTTP response.
package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/okunev/passvault/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// ErrRevisionConflict reports that a push was rejected because the record
// changed on the remote since the revision the operation was based on. The
// sync engine resolves it by pulling and merging, never by retrying the
// push as-is.
var ErrRevisionConflict = errors.New("revision conflict")

// RemoteStore is the remote half of a sync round-trip. Implementations must
// classify every failure as one of the retry-package sentinels, as
// ErrRevisionConflict, or leave it terminal.
type RemoteStore interface {
	// Push uploads one queued mutation and returns the revision the remote
	// assigned to the entity afterwards.
	Push(ctx context.Context, op models.SyncOperation) (string, error)

	// Pull returns every remote record modified after since, tombstones
	// included. The zero time means everything.
	Pull(ctx context.Context, since time.Time) ([]models.RemoteRecord, error)

	// SetToken installs the bearer token used on subsequent calls.
	SetToken(token string)
}
