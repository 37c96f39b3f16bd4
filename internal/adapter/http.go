// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/internal/retry"
	"github.com/okunev/passvault/models"
)

type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpRemoteStore struct {
	client *resty.Client
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

func NewHTTPRemoteStore(cfg HTTPClientConfig, log *logger.Logger) RemoteStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpRemoteStore{client: cli, logger: log}
}

func (h *httpRemoteStore) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token returns the current bearer token, empty when none is installed.
func (h *httpRemoteStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// pushResponse is the remote's answer to an accepted mutation.
type pushResponse struct {
	Revision string `json:"revision"`
}

func (h *httpRemoteStore) Push(ctx context.Context, op models.SyncOperation) (string, error) {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return "", err
	}

	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(op).
		Post("/api/v1/ops")
	if err != nil {
		return "", fmt.Errorf("push operation %s: %w", op.ID, wrapTransportErr(err))
	}
	if err = mapHTTPError(resp); err != nil {
		h.logger.Err(err).
			Str("func", "httpRemoteStore.Push").
			Str("operation_id", op.ID).
			Int("status", resp.StatusCode()).
			Msg("push rejected")
		return "", err
	}

	var pr pushResponse
	if err = json.Unmarshal(resp.Body(), &pr); err != nil {
		return "", fmt.Errorf("decode push response: %w", err)
	}
	return pr.Revision, nil
}

func (h *httpRemoteStore) Pull(ctx context.Context, since time.Time) ([]models.RemoteRecord, error) {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return nil, err
	}
	if !since.IsZero() {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339Nano))
	}

	resp, err := req.Get("/api/v1/records")
	if err != nil {
		return nil, fmt.Errorf("pull records: %w", wrapTransportErr(err))
	}
	if err = mapHTTPError(resp); err != nil {
		h.logger.Err(err).
			Str("func", "httpRemoteStore.Pull").
			Int("status", resp.StatusCode()).
			Msg("pull rejected")
		return nil, err
	}

	var items []models.RemoteRecord
	if err = json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("decode pull response: %w", err)
	}
	return items, nil
}

// authedRequest builds a request carrying the bearer token. A missing or
// expired token fails fast with ErrNetworkAuth instead of burning a
// round-trip on a guaranteed 401.
func (h *httpRemoteStore) authedRequest(ctx context.Context) (*resty.Request, error) {
	token := h.Token()
	if token == "" {
		return nil, fmt.Errorf("no session token: %w", retry.ErrNetworkAuth)
	}
	if expired, err := tokenExpired(token, time.Now()); err == nil && expired {
		return nil, fmt.Errorf("session token expired: %w", retry.ErrNetworkAuth)
	}

	return h.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token), nil
}

// tokenExpired inspects the exp claim without verifying the signature; the
// remote is the authority on validity, this is only a cheap local check.
func tokenExpired(tokenString string, now time.Time) (bool, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return false, err
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, err
	}
	return exp.Before(now), nil
}

// mapHTTPError folds status codes into the network taxonomy. Unknown 4xx
// codes stay terminal: retrying a request the remote has decided is bad
// only delays the user-visible failure.
func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(code)
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("http %d: %s: %w", code, body, retry.ErrNetworkAuth)
	case code == http.StatusConflict:
		return fmt.Errorf("http %d: %s: %w", code, body, ErrRevisionConflict)
	case code == http.StatusTooManyRequests:
		err := fmt.Errorf("http %d: %s: %w", code, body, retry.ErrNetworkTransient)
		if after, ok := parseRetryAfter(resp.Header().Get("Retry-After")); ok {
			return &retry.RetryAfterError{After: after, Err: err}
		}
		return err
	case code == http.StatusRequestTimeout || code >= http.StatusInternalServerError:
		return fmt.Errorf("http %d: %s: %w", code, body, retry.ErrNetworkTransient)
	default:
		return fmt.Errorf("http %d: %s", code, body)
	}
}

// wrapTransportErr classifies errors raised before any response arrived:
// DNS failures, refused connections, client-side timeouts. All transient,
// except a cancelled context which must abort the sync pass.
func wrapTransportErr(err error) error {
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%v: %w", err, retry.ErrNetworkTransient)
}

func contextError(err error) error {
	for _, ctxErr := range []error{context.Canceled, context.DeadlineExceeded} {
		if errors.Is(err, ctxErr) {
			return ctxErr
		}
	}
	return nil
}

// parseRetryAfter handles both forms the header allows: delay seconds and
// an HTTP date.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d, true
		}
	}
	return 0, false
}
