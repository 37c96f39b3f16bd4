package retry

import (
	"errors"
	"fmt"
	"time"
)

// Network-side taxonomy sentinels. The transport adapter wraps raw HTTP and
// socket errors into these; everything above the adapter classifies with
// errors.Is instead of inspecting status codes.
var (
	// ErrNetworkTransient covers timeouts, lost connectivity, rate limiting
	// and unknown network failures. Retryable with backoff.
	ErrNetworkTransient = errors.New("transient network error")

	// ErrNetworkAuth means the remote store rejected our credentials. Not
	// retryable without user re-entry.
	ErrNetworkAuth = errors.New("remote authentication rejected")

	// ErrSyncNotConfigured means no remote store is configured at all.
	ErrSyncNotConfigured = errors.New("sync not configured")
)

// RetryAfterError wraps a transient error that carries a server-supplied
// retry-after hint (e.g. from rate limiting). Execute sleeps the hinted
// duration instead of the computed backoff.
type RetryAfterError struct {
	After time.Duration
	Err   error
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%v (retry after %s)", e.Err, e.After)
}

func (e *RetryAfterError) Unwrap() error { return e.Err }
