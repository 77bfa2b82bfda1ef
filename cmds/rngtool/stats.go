package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/safing/bufrng/base/rng"
)

var (
	statsRequests    int
	statsRequestSize int
	statsMetrics     bool
)

func init() {
	rootCmd.AddCommand(statsCmd)

	flags := statsCmd.Flags()
	flags.IntVarP(&statsRequests, "requests", "n", 10000, "number of requests")
	flags.IntVar(&statsRequestSize, "request-size", 32, "size of a single request in bytes")
	flags.BoolVar(&statsMetrics, "metrics", false, "also print all counters in the prometheus format")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run requests against a seed source and a generator and show the raw source usage",
	Args:  cobra.NoArgs,
	RunE:  stats,
}

func stats(cmd *cobra.Command, args []string) (err error) {
	if statsRequests < 1 || statsRequestSize < 1 {
		return errors.New("requests and request size must be at least one")
	}

	seeder := rng.NewSeedSource(rng.OSSource{}, cfg.BufferWords)
	g, err := rng.NewGenerator(seeder.Clone(), cfg)
	if err != nil {
		_ = seeder.Release()
		return err
	}
	defer func() {
		var result *multierror.Error
		if releaseErr := g.Release(); releaseErr != nil {
			result = multierror.Append(result, releaseErr)
		}
		if releaseErr := seeder.Release(); releaseErr != nil {
			result = multierror.Append(result, releaseErr)
		}
		if err == nil {
			err = result.ErrorOrNil()
		}
	}()

	p := make([]byte, statsRequestSize)

	start := rng.GetStats()
	for range statsRequests {
		if err := seeder.TryFillBytes(p); err != nil {
			return err
		}
	}
	seeded := rng.GetStats()
	for range statsRequests {
		if err := g.TryFillBytes(p); err != nil {
			return err
		}
	}
	generated := rng.GetStats()

	total := statsRequests * statsRequestSize
	fmt.Printf("%d requests of %d bytes (%d bytes in total)\n\n", statsRequests, statsRequestSize, total)
	fmt.Printf(
		"seed source (%d byte buffer):\n  raw source calls: %d (unbuffered: %d)\n  refills: %d\n  bypasses: %d\n",
		cfg.BufferWords*8,
		seeded.RawSourceCalls-start.RawSourceCalls,
		statsRequests,
		seeded.CacheRefills-start.CacheRefills,
		seeded.CacheBypasses-start.CacheBypasses,
	)
	fmt.Printf(
		"generator (%s, reseed after %d bytes):\n  reseeds: %d\n  raw source calls: %d\n",
		cfg.Stream,
		cfg.ReseedThreshold,
		generated.Reseeds-seeded.Reseeds,
		generated.RawSourceCalls-seeded.RawSourceCalls,
	)

	if statsMetrics {
		fmt.Println()
		rng.WriteMetrics(os.Stdout)
	}
	return nil
}
