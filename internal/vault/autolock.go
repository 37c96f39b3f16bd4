package vault

import (
	"sync"
	"time"

	"github.com/okunev/passvault/internal/logger"
)

// AutoLock locks the vault after a period without activity. It implements
// workers.Worker; Run spawns the ticking goroutine and returns. Callers feed
// it via Touch on every user interaction.
type AutoLock struct {
	manager *Manager
	idle    time.Duration
	log     *logger.Logger

	mu      sync.Mutex
	last    time.Time
	started bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewAutoLock(manager *Manager, idle time.Duration, log *logger.Logger) *AutoLock {
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	return &AutoLock{
		manager: manager,
		idle:    idle,
		log:     log,
		last:    time.Now(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Touch records user activity, postponing the next auto-lock.
func (a *AutoLock) Touch() {
	a.mu.Lock()
	a.last = time.Now()
	a.mu.Unlock()
}

// Run implements workers.Worker. The check period is a quarter of the idle
// deadline so a lock fires at most 1.25x the configured idle time.
func (a *AutoLock) Run() {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.mu.Unlock()

	go func() {
		defer close(a.done)
		t := time.NewTicker(a.idle / 4)
		defer t.Stop()

		for {
			select {
			case <-a.stop:
				return
			case <-t.C:
				a.mu.Lock()
				expired := time.Since(a.last) >= a.idle
				a.mu.Unlock()

				if expired && a.manager.IsUnlocked() {
					a.manager.Lock()
					a.log.Info().Dur("idle", a.idle).Msg("vault auto-locked")
				}
			}
		}
	}()
}

// Stop terminates the background goroutine and blocks until it has exited.
// Safe to call more than once, and a no-op when Run was never called.
func (a *AutoLock) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })

	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	if started {
		<-a.done
	}
}
