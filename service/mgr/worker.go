package mgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/safing/bufrng/base/rng"
)

// workerContextKey is a key used for the context key/value storage.
type workerContextKey struct{}

// WorkerCtxContextKey is the key used to add the WorkerCtx to a context.
var WorkerCtxContextKey = workerContextKey{}

// WorkerCtx provides workers with the necessary environment for flow control,
// logging and randomness.
type WorkerCtx struct {
	name string

	ctx       context.Context
	cancelCtx context.CancelFunc

	local  *rng.Local
	logger *slog.Logger
}

// AddToCtx adds the WorkerCtx to the given context.
func (w *WorkerCtx) AddToCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, WorkerCtxContextKey, w)
}

// WorkerFromCtx returns the WorkerCtx from the given context.
func WorkerFromCtx(ctx context.Context) *WorkerCtx {
	v := ctx.Value(WorkerCtxContextKey)
	if w, ok := v.(*WorkerCtx); ok {
		return w
	}
	return nil
}

// Name returns the worker name.
func (w *WorkerCtx) Name() string {
	return w.name
}

// Ctx returns the worker context. It carries the worker's rng.Local, see
// rng.GeneratorFrom.
// Is automatically canceled after the worker stops/returns, regardless of error.
func (w *WorkerCtx) Ctx() context.Context {
	return w.ctx
}

// Cancel cancels the worker context.
// Is automatically called after the worker stops/returns, regardless of error.
func (w *WorkerCtx) Cancel() {
	w.cancelCtx()
}

// Done returns the context Done channel.
func (w *WorkerCtx) Done() <-chan struct{} {
	return w.ctx.Done()
}

// IsDone checks whether the worker context is done.
func (w *WorkerCtx) IsDone() bool {
	return w.ctx.Err() != nil
}

// Local returns the worker's own rng.Local. It must not be handed to other
// goroutines.
func (w *WorkerCtx) Local() *rng.Local {
	return w.local
}

// SeedSource returns a clone of the worker's seed source.
func (w *WorkerCtx) SeedSource() *rng.SeedSource {
	return w.local.SeedSource()
}

// Generator returns a clone of the worker's generator.
func (w *WorkerCtx) Generator() (*rng.Generator, error) {
	return w.local.TryGenerator()
}

// Logger returns the logger used by the worker context.
func (w *WorkerCtx) Logger() *slog.Logger {
	return w.logger
}

// Debug logs at LevelDebug.
// The worker context is automatically supplied.
func (w *WorkerCtx) Debug(msg string, args ...any) {
	w.writeLog(slog.LevelDebug, msg, args...)
}

// Info logs at LevelInfo.
// The worker context is automatically supplied.
func (w *WorkerCtx) Info(msg string, args ...any) {
	w.writeLog(slog.LevelInfo, msg, args...)
}

// Warn logs at LevelWarn.
// The worker context is automatically supplied.
func (w *WorkerCtx) Warn(msg string, args ...any) {
	w.writeLog(slog.LevelWarn, msg, args...)
}

// Error logs at LevelError.
// The worker context is automatically supplied.
func (w *WorkerCtx) Error(msg string, args ...any) {
	w.writeLog(slog.LevelError, msg, args...)
}

func (w *WorkerCtx) writeLog(level slog.Level, msg string, args ...any) {
	if !w.logger.Enabled(w.ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip "Callers", "writeLog" and the calling function.
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = w.logger.Handler().Handle(w.ctx, r)
}

func (m *Manager) newWorker(name string) *WorkerCtx {
	w := &WorkerCtx{
		name:   name,
		local:  rng.NewLocal(m.entropy, m.rngConfig),
		logger: m.logger.With("worker", name),
	}
	w.ctx, w.cancelCtx = context.WithCancel(rng.NewContext(m.ctx, w.local))
	w.ctx = w.AddToCtx(w.ctx)
	return w
}

// Go starts the given function in a goroutine (as a "worker").
// The worker context has
// - A separate context which is canceled when the functions returns.
// - Its own rng.Local, released when the function returns.
// - Access to named structure logging.
// - Panic catching.
// Failed workers are logged and not restarted: a worker that hit an entropy
// source failure would only fail again.
func (m *Manager) Go(name string, fn func(w *WorkerCtx) error) {
	m.workerStart()
	go func() {
		defer m.workerDone()
		_ = m.run(m.newWorker(name), fn)
	}()
}

// Do directly executes the given function (as a "worker") and returns its
// error. The worker context is the same as with Go.
func (m *Manager) Do(name string, fn func(w *WorkerCtx) error) error {
	m.workerStart()
	defer m.workerDone()

	return m.run(m.newWorker(name), fn)
}

func (m *Manager) run(w *WorkerCtx, fn func(w *WorkerCtx) error) error {
	defer func() {
		if err := w.local.Release(); err != nil {
			w.Warn("failed to release rng local", "err", err)
		}
	}()

	panicInfo, err := runWorker(w, fn)
	switch {
	case err == nil:
		// No error means that the worker is finished.
		return nil

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// A canceled context or exceeded deadline also means that the worker is finished.
		return err

	default:
		if panicInfo != "" {
			w.Error(
				"worker failed",
				"err", err,
				"file", panicInfo,
			)
		} else {
			w.Error(
				"worker failed",
				"err", err,
			)
		}
		return err
	}
}

func runWorker(w *WorkerCtx, fn func(w *WorkerCtx) error) (panicInfo string, err error) {
	defer w.Cancel()

	// Recover from panic.
	defer func() {
		panicVal := recover()
		if panicVal != nil {
			if panicErr, ok := panicVal.(error); ok {
				err = fmt.Errorf("panic: %w", panicErr)
			} else {
				err = fmt.Errorf("panic: %s", panicVal)
			}

			// Print panic to stderr.
			stackTrace := string(debug.Stack())
			fmt.Fprintf(
				os.Stderr,
				"===== PANIC =====\n%s\n\n%s=====  END  =====\n",
				panicVal,
				stackTrace,
			)

			// Find the line in the stack trace that refers to where the panic occurred.
			stackLines := strings.Split(stackTrace, "\n")
			foundPanic := false
			for i, line := range stackLines {
				if !foundPanic {
					if strings.Contains(line, "panic(") {
						foundPanic = true
					}
				} else if strings.Contains(line, "bufrng") {
					if i+1 < len(stackLines) {
						panicInfo = strings.SplitN(strings.TrimSpace(stackLines[i+1]), " ", 2)[0]
					}
					break
				}
			}
		}
	}()

	err = fn(w)
	return //nolint
}
