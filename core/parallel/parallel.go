// Package parallel provides small helpers for splitting row-wise loops
// across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits the range [0, items) across the available CPU cores and
// runs fn on each sub-range concurrently. fn must be safe to call with
// disjoint ranges from multiple goroutines.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > items {
		workers = items
	}

	// Spread the remainder over the first chunks so no worker carries more
	// than one extra row.
	base := items / workers
	extra := items % workers

	var wg sync.WaitGroup
	start := 0
	for w := 0; w < workers; w++ {
		size := base
		if w < extra {
			size++
		}
		end := start + size

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
		start = end
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items is at or below
// threshold, and in parallel otherwise. Goroutine startup dominates for
// small row counts.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}
