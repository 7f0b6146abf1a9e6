// Package workers splits index ranges across goroutines.
package workers

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Serial is the range length below which Range runs inline; goroutine
// overhead dominates for small inputs.
const Serial = 32

// Count returns the worker count to use for n items given a configured limit.
// A non-positive limit means GOMAXPROCS.
func Count(limit, n int) int {
	w := limit
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Range calls fn over contiguous chunks [start, end) covering [0, n).
// Chunks run concurrently when n >= Serial. The first error returned by any
// chunk is returned; remaining chunks still run to completion.
func Range(n, limit int, fn func(start, end int) error) error {
	if n <= 0 {
		return nil
	}
	if n < Serial {
		return fn(0, n)
	}

	w := Count(limit, n)
	chunk := (n + w - 1) / w
	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		s, e := start, end
		g.Go(func() error { return fn(s, e) })
	}
	return g.Wait()
}
