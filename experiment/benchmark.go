package experiment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// LatencyReport latency summary of a benchmark
type LatencyReport struct {
	Count  int
	Failed int
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	Median time.Duration
}

func (r LatencyReport) String() string {
	return fmt.Sprintf("count = %d\nfailed = %d\nmin = %s\nmax = %s\nmean = %s\nmedian = %s",
		r.Count, r.Failed, r.Min, r.Max, r.Mean, r.Median)
}

// Benchmark measures n uncached resolutions of domain. Failed queries are counted but not measured.
func (r *Runner) Benchmark(ctx context.Context, domain string, n int) (LatencyReport, error) {
	latencies := make([]time.Duration, 0, n)
	failed := 0

	for i := 1; i <= n; i++ {
		if err := r.target.FlushCache(ctx, domain); err != nil {
			return LatencyReport{}, fmt.Errorf("can't flush cache: %w", err)
		}

		start := now()

		res, err := r.target.Query(ctx, domain)
		if err == nil && res.Error != "" {
			err = errors.New(res.Error)
		}

		if err != nil {
			r.logger.Warnf("query %d/%d failed: %v", i, n, err)

			failed++

			continue
		}

		latency := now().Sub(start)
		latencies = append(latencies, latency)

		r.logger.Debugf("query %d/%d: %s", i, n, latency)

		if ctx.Err() != nil {
			return LatencyReport{}, ctx.Err()
		}
	}

	report := SummarizeLatencies(latencies)
	report.Failed = failed

	return report, nil
}

// SummarizeLatencies computes count, min, max, mean and median of latencies
func SummarizeLatencies(latencies []time.Duration) LatencyReport {
	if len(latencies) == 0 {
		return LatencyReport{}
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var total time.Duration
	for _, l := range sorted {
		total += l
	}

	mid := len(sorted) / 2
	median := sorted[mid]

	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return LatencyReport{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   total / time.Duration(len(sorted)),
		Median: median,
	}
}
