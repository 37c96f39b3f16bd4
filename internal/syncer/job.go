// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/okunev/passvault/internal/logger"
	"github.com/okunev/passvault/models"
)

// Synchronizer is the part of [Engine] the background job drives.
type Synchronizer interface {
	Synchronize(ctx context.Context) (models.SyncReport, error)
}

// Job periodically runs Synchronize in the background. It also listens to
// local mutation signals from the store and fires an extra pass shortly
// after a change, so edits do not wait a full interval to reach the remote.
type Job struct {
	engine   Synchronizer
	interval time.Duration
	changes  <-chan struct{}
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// debounce delays the change-triggered pass so a burst of edits syncs once.
const debounce = 3 * time.Second

func NewJob(engine Synchronizer, interval time.Duration, changes <-chan struct{}, log *logger.Logger) *Job {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Job{engine: engine, interval: interval, changes: changes, logger: log}
}

// Run implements workers.Worker. It is idempotent across restarts: a second
// Run stops the previous goroutine first.
func (j *Job) Run() {
	j.Start(context.Background())
}

// Start launches the background loop. It exits when ctx is cancelled or
// Stop is called.
func (j *Job) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		j.loop(jobCtx)
	}()
}

// Stop cancels the background goroutine and blocks until it has exited.
// No-op when the job is not running.
func (j *Job) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *Job) loop(ctx context.Context) {
	t := time.NewTicker(j.interval)
	defer t.Stop()

	var pending *time.Timer
	var pendingC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return

		case <-t.C:
			j.runOnce(ctx)

		case _, ok := <-j.changes:
			if !ok {
				j.changes = nil
				continue
			}
			if pending == nil {
				pending = time.NewTimer(debounce)
				pendingC = pending.C
			} else {
				if !pending.Stop() {
					select {
					case <-pending.C:
					default:
					}
				}
				pending.Reset(debounce)
			}

		case <-pendingC:
			pending = nil
			pendingC = nil
			j.runOnce(ctx)
		}
	}
}

func (j *Job) runOnce(ctx context.Context) {
	if _, err := j.engine.Synchronize(ctx); err != nil {
		j.logger.Err(err).Str("func", "Job.runOnce").Msg("background sync pass failed")
	}
}
