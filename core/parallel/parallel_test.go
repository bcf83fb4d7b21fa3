package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversRangeExactlyOnce(t *testing.T) {
	for _, n := range []int{1, 3, 7, 1000} {
		hits := make([]int32, n)
		Parallelize(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestParallelizeEmptyRange(t *testing.T) {
	Parallelize(0, func(start, end int) {
		t.Fatal("fn called for empty range")
	})
}

func TestParallelizeWithThreshold(t *testing.T) {
	// At or below the threshold the whole range arrives as one chunk.
	calls := 0
	ParallelizeWithThreshold(10, 10, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Fatalf("chunk = [%d, %d), want [0, 10)", start, end)
		}
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	ParallelizeWithThreshold(0, 4, func(start, end int) {
		t.Fatal("fn called for empty range")
	})

	// Above the threshold every index is still covered exactly once.
	const n = 64
	hits := make([]int32, n)
	ParallelizeWithThreshold(n, 8, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}
