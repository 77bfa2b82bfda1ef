package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/safing/structures/container"
	"github.com/spf13/cobra"

	"github.com/safing/bufrng/base/log"
	"github.com/safing/bufrng/base/rng"
	"github.com/safing/bufrng/service/mgr"
)

// Dump sources.
const (
	sourceGenerator = "generator"
	sourceSeeder    = "seeder"
	sourceOS        = "os"
)

// flushSize is the amount of buffered output after which a worker writes.
const flushSize = 1 << 16

var (
	dumpSize    uint64
	dumpWorkers int
	dumpSource  string
	dumpChunk   int
)

func init() {
	rootCmd.AddCommand(dumpCmd)

	flags := dumpCmd.Flags()
	flags.Uint64VarP(&dumpSize, "size", "s", 1, "output size in MB")
	flags.IntVarP(&dumpWorkers, "workers", "w", 1, "number of parallel workers, each with its own generator")
	flags.StringVar(&dumpSource, "source", sourceGenerator, "read from the generator, the seeder or the os")
	flags.IntVar(&dumpChunk, "chunk", 64, "size of a single request in bytes")
}

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Write random data to a file, or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  dump,
}

type filler interface {
	TryFillBytes(p []byte) error
}

// output serializes the writes of all workers.
type output struct {
	lock    sync.Mutex
	w       io.Writer
	written uint64
}

func (o *output) write(c *container.Container) error {
	o.lock.Lock()
	defer o.lock.Unlock()

	n, err := o.w.Write(c.CompileData())
	o.written += uint64(n) //nolint:gosec
	return err
}

func (o *output) Written() uint64 {
	o.lock.Lock()
	defer o.lock.Unlock()

	return o.written
}

func dump(cmd *cobra.Command, args []string) error {
	switch {
	case dumpWorkers < 1:
		return errors.New("at least one worker is required")
	case dumpChunk < 1:
		return errors.New("chunk size must be at least one byte")
	}

	out := os.Stdout
	if len(args) == 1 {
		f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o0644) //nolint:gosec
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	total := dumpSize * 1000000
	o := &output{w: out}
	m := mgr.NewWithContext(cmd.Context(), "dump", nil, cfg)
	defer m.Cancel()

	log.Infof("rngtool: writing %dMB from %s with %d workers", dumpSize, dumpSource, dumpWorkers)
	m.Go("progress", func(w *mgr.WorkerCtx) error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-w.Done():
				return nil
			case <-ticker.C:
				w.Info("progress", "written", o.Written(), "total", total)
			}
		}
	})

	// Every worker gets its own share and its own generator.
	results := make(chan error, dumpWorkers)
	share := total / uint64(dumpWorkers) //nolint:gosec
	for i := range dumpWorkers {
		size := share
		if i == 0 {
			size += total % uint64(dumpWorkers) //nolint:gosec
		}
		go func() {
			results <- m.Do(fmt.Sprintf("dump-%d", i), func(w *mgr.WorkerCtx) error {
				return dumpWorker(w, o, size)
			})
		}()
	}

	var result *multierror.Error
	for range dumpWorkers {
		if err := <-results; err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := m.Close(time.Second); err != nil {
		result = multierror.Append(result, err)
	}
	log.Infof("rngtool: wrote %d bytes", o.Written())
	return result.ErrorOrNil()
}

func dumpWorker(w *mgr.WorkerCtx, o *output, size uint64) error {
	src, release, err := openSource(w)
	if err != nil {
		return err
	}
	defer release()

	c := container.New()
	for size > 0 {
		if w.IsDone() {
			return w.Ctx().Err()
		}

		b := make([]byte, min(uint64(dumpChunk), size)) //nolint:gosec
		if err := src.TryFillBytes(b); err != nil {
			return err
		}
		c.Append(b)
		size -= uint64(len(b))

		if c.Length() >= flushSize {
			if err := o.write(c); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			c = container.New()
		}
	}

	if c.Length() > 0 {
		if err := o.write(c); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func openSource(w *mgr.WorkerCtx) (filler, func(), error) {
	releaseWith := func(fn func() error) func() {
		return func() {
			if err := fn(); err != nil {
				w.Warn("failed to release source", "err", err)
			}
		}
	}

	switch dumpSource {
	case sourceGenerator:
		g, err := w.Generator()
		if err != nil {
			return nil, nil, err
		}
		return g, releaseWith(g.Release), nil

	case sourceSeeder:
		s := w.SeedSource()
		return s, releaseWith(s.Release), nil

	case sourceOS:
		return rng.OSSource{}, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown source %q, use %s, %s or %s", dumpSource, sourceGenerator, sourceSeeder, sourceOS)
	}
}
