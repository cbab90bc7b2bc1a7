package solver

import "sync"

// minGravityChunk is the smallest body range worth a goroutine.
const minGravityChunk = 64

// parallelFor runs fn over [0, n) split into at most workers contiguous
// chunks of at least minChunk items.
func parallelFor(n, workers, minChunk int, fn func(start, end int)) {
	if workers > n/minChunk {
		workers = n / minChunk
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
