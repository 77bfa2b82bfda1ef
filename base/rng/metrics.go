package rng

import (
	"io"

	vm "github.com/VictoriaMetrics/metrics"
)

var (
	metricsSet = vm.NewSet()

	rawCalls        = metricsSet.NewCounter("rng_raw_source_calls_total")
	refills         = metricsSet.NewCounter("rng_cache_refills_total")
	bypasses        = metricsSet.NewCounter("rng_cache_bypasses_total")
	reseeds         = metricsSet.NewCounter("rng_reseeds_total")
	entropyFailures = metricsSet.NewCounter("rng_entropy_source_failures_total")
)

// Stats is a snapshot of the process wide rng counters.
type Stats struct {
	RawSourceCalls        uint64
	CacheRefills          uint64
	CacheBypasses         uint64
	Reseeds               uint64
	EntropySourceFailures uint64
}

// GetStats returns the current counter values.
func GetStats() Stats {
	return Stats{
		RawSourceCalls:        rawCalls.Get(),
		CacheRefills:          refills.Get(),
		CacheBypasses:         bypasses.Get(),
		Reseeds:               reseeds.Get(),
		EntropySourceFailures: entropyFailures.Get(),
	}
}

// WriteMetrics writes the rng counters in the Prometheus text format.
func WriteMetrics(w io.Writer) {
	metricsSet.WritePrometheus(w)
}
