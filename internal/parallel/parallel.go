// Package parallel runs loops and tasks on a bounded set of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool `json:"enabled"`        // Whether parallel execution is enabled.
	NumWorkers   int  `json:"num_workers"`    // Number of worker goroutines to use.
	MinChunkSize int  `json:"min_chunk_size"` // Minimum items per goroutine.
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096, // pixels; a row of a typical image
	}
}

// Sequential returns a Config that runs everything on the calling goroutine.
func Sequential() Config { return Config{NumWorkers: 1} }

func (c Config) workers() int {
	if !c.Enabled || c.NumWorkers < 1 {
		return 1
	}
	return c.NumWorkers
}

// Chunks splits [0, n) into at most NumWorkers contiguous ranges of at least
// MinChunkSize items each. A disabled config yields a single range.
func (c Config) Chunks(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	size := n
	if w := c.workers(); w > 1 && n >= c.MinChunkSize {
		size = max((n+w-1)/w, c.MinChunkSize, 1)
	}
	out := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}

// For executes f(i) for i in [0, n), chunked per Chunks.
func For(n int, f func(i int), cfg Config) {
	chunks := cfg.Chunks(n)
	if len(chunks) == 1 {
		for i := range n {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	for _, c := range chunks {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(c[0], c[1])
	}
	wg.Wait()
}

// ForEach runs task(ctx, i) for i in [0, n) with at most NumWorkers tasks in
// flight. The first error cancels ctx for the remaining tasks and is
// returned; tasks not yet started are skipped.
func ForEach(ctx context.Context, n int, task func(ctx context.Context, i int) error, cfg Config) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
