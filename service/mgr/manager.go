package mgr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/safing/bufrng/base/rng"
)

// Manager manages workers. Every worker runs in its own goroutine and gets
// its own rng.Local, built from the manager's entropy source and config.
type Manager struct {
	name   string
	logger *slog.Logger

	ctx       context.Context
	cancelCtx context.CancelFunc

	entropy   rng.EntropySource
	rngConfig rng.Config

	workerCnt   atomic.Int32
	workersDone chan struct{}
}

// New returns a new manager whose workers draw from the operating system.
func New(name string) *Manager {
	return NewWithContext(context.Background(), name, nil, rng.DefaultConfig())
}

// NewWithContext returns a new manager that uses the given context. The
// entropy source is shared by all workers and must be safe for concurrent
// use; nil selects the operating system. Workers never close it, Close does.
func NewWithContext(ctx context.Context, name string, entropy rng.EntropySource, cfg rng.Config) *Manager {
	m := &Manager{
		name:        name,
		logger:      slog.Default().With("manager", name),
		entropy:     entropy,
		rngConfig:   cfg.WithDefaults(),
		workersDone: make(chan struct{}),
	}
	m.ctx, m.cancelCtx = context.WithCancel(ctx)
	return m
}

// Name returns the manager name.
func (m *Manager) Name() string {
	return m.name
}

// Ctx returns the manager context.
func (m *Manager) Ctx() context.Context {
	return m.ctx
}

// Cancel cancels the manager context.
func (m *Manager) Cancel() {
	m.cancelCtx()
}

// Close cancels the manager, waits up to maxWait for its workers and then
// closes the entropy source, if it can be closed. The source stays open if
// workers are still running.
func (m *Manager) Close(maxWait time.Duration) error {
	m.Cancel()
	if !m.WaitForWorkers(maxWait) {
		return fmt.Errorf("%d workers of %s still running", m.Workers(), m.name)
	}
	if closer, ok := m.entropy.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Done returns the context Done channel.
func (m *Manager) Done() <-chan struct{} {
	return m.ctx.Done()
}

// IsDone checks whether the manager context is done.
func (m *Manager) IsDone() bool {
	return m.ctx.Err() != nil
}

// Info logs at LevelInfo.
// The manager context is automatically supplied.
func (m *Manager) Info(msg string, args ...any) {
	m.logger.InfoContext(m.ctx, msg, args...)
}

// Warn logs at LevelWarn.
// The manager context is automatically supplied.
func (m *Manager) Warn(msg string, args ...any) {
	m.logger.WarnContext(m.ctx, msg, args...)
}

// Error logs at LevelError.
// The manager context is automatically supplied.
func (m *Manager) Error(msg string, args ...any) {
	m.logger.ErrorContext(m.ctx, msg, args...)
}

// Workers returns the number of running workers.
func (m *Manager) Workers() int {
	return int(m.workerCnt.Load())
}

// WaitForWorkers waits for all workers of this manager to be done.
// The default maximum waiting time is one minute.
func (m *Manager) WaitForWorkers(max time.Duration) (done bool) {
	// Return immediately if there are no workers.
	if m.workerCnt.Load() == 0 {
		return true
	}

	// Setup timers.
	reCheckDuration := 100 * time.Millisecond
	if max <= 0 {
		max = time.Minute
	}
	reCheck := time.NewTimer(reCheckDuration)
	maxWait := time.NewTimer(max)
	defer reCheck.Stop()
	defer maxWait.Stop()

	// Wait for workers to finish, plus check the count in intervals.
	for {
		if m.workerCnt.Load() == 0 {
			return true
		}

		select {
		case <-m.workersDone:
			return true

		case <-reCheck.C:
			// Check worker count again.
			// This is a dead simple and effective way to avoid all the channel race conditions.
			reCheckDuration *= 2
			reCheck.Reset(reCheckDuration)

		case <-maxWait.C:
			return m.workerCnt.Load() == 0
		}
	}
}

func (m *Manager) workerStart() {
	m.workerCnt.Add(1)
}

func (m *Manager) workerDone() {
	if m.workerCnt.Add(-1) == 0 {
		// Notify all waiters.
		for {
			select {
			case m.workersDone <- struct{}{}:
			default:
				return
			}
		}
	}
}
