// Package stats summarises operation latencies for the benchmark tools.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"
)

// Summary aggregates timing results for one operation.
type Summary struct {
	Op             string
	Samples        int
	Total          time.Duration
	Min, Max, Mean time.Duration
	Median         time.Duration
	P90, P95, P99  time.Duration
	StdDev         time.Duration
}

// Summarize computes a Summary over the given samples. The input is not modified.
func Summarize(op string, samples []time.Duration) Summary {
	s := Summary{Op: op, Samples: len(samples)}
	if len(samples) == 0 {
		return s
	}
	d := append([]time.Duration(nil), samples...)
	sort.Slice(d, func(i, j int) bool { return d[i] < d[j] })
	s.Min = d[0]
	s.Max = d[len(d)-1]
	for _, v := range d {
		s.Total += v
	}
	s.Mean = time.Duration(int64(s.Total) / int64(len(d)))
	s.Median = Percentile(d, 50)
	s.P90 = Percentile(d, 90)
	s.P95 = Percentile(d, 95)
	s.P99 = Percentile(d, 99)

	var variance float64
	meanFloat := float64(s.Mean)
	for _, v := range d {
		diff := float64(v) - meanFloat
		variance += diff * diff
	}
	variance /= float64(len(d))
	s.StdDev = time.Duration(math.Sqrt(variance))
	return s
}

// OpsPerSecond is the throughput implied by the summed sample time.
func (s Summary) OpsPerSecond() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Samples) / s.Total.Seconds()
}

// Percentile uses the nearest-rank method over an ascending slice.
func Percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := (len(sorted)*p + 99) / 100 // ceiling
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[idx-1]
}

// Fprint writes a human readable block for s.
func (s Summary) Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s (%d samples)\n", s.Op, s.Samples)
	fmt.Fprintf(w, "  Min    : %v\n", s.Min)
	fmt.Fprintf(w, "  Median : %v\n", s.Median)
	fmt.Fprintf(w, "  Mean   : %v\n", s.Mean)
	fmt.Fprintf(w, "  P90    : %v\n", s.P90)
	fmt.Fprintf(w, "  P99    : %v\n", s.P99)
	fmt.Fprintf(w, "  Max    : %v\n", s.Max)
	fmt.Fprintf(w, "  StdDev : %v\n", s.StdDev)
	fmt.Fprintf(w, "  Ops/s  : %.2f\n", s.OpsPerSecond())
}

// Millis converts d to fractional milliseconds.
func Millis(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }

// Micros converts d to fractional microseconds.
func Micros(d time.Duration) float64 { return float64(d.Nanoseconds()) / 1000.0 }
