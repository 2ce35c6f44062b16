package warm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds warmer configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel fetches.
	MaxConcurrency int

	// Timeout applies to each individual fetch.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
		Timeout:        15 * time.Second,
	}
}

// Fetcher issues a single warming fetch and reports the cache status
// the proxy answered with ("HIT", "MISS", or empty for uncached paths).
type Fetcher interface {
	Fetch(ctx context.Context, path string) (status string, err error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, path string) (string, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Result is the outcome of warming a single path.
type Result struct {
	Path   string
	Status string
	Err    error
}

// Summary aggregates a warming run.
type Summary struct {
	Total    int
	Hits     int
	Misses   int
	Uncached int
	Failed   int
}

// Warmer fetches batches of paths with bounded concurrency.
type Warmer struct {
	fetcher Fetcher
	config  Config
}

// NewWarmer creates a warmer backed by the given fetcher. Zero config
// values fall back to DefaultConfig.
func NewWarmer(fetcher Fetcher, config Config) *Warmer {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &Warmer{
		fetcher: fetcher,
		config:  config,
	}
}

// WarmAll fetches every path once using a worker pool. A failed path is
// recorded in the results and the batch keeps going; the run only stops
// early when the context is cancelled.
func (w *Warmer) WarmAll(ctx context.Context, paths []string) (Summary, []Result) {
	start := time.Now()

	log.Info().
		Int("paths", len(paths)).
		Int("workers", w.config.MaxConcurrency).
		Msg("Starting cache warm")

	queue := make(chan string, len(paths))
	results := make(chan Result, len(paths))

	for _, path := range paths {
		queue <- path
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < w.config.MaxConcurrency; i++ {
		wg.Add(1)
		go w.worker(ctx, queue, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var summary Summary
	collected := make([]Result, 0, len(paths))

	for result := range results {
		collected = append(collected, result)
		summary.Total++

		switch {
		case result.Err != nil:
			summary.Failed++
		case result.Status == "HIT":
			summary.Hits++
		case result.Status == "MISS":
			summary.Misses++
		default:
			summary.Uncached++
		}

		if summary.Total%50 == 0 {
			log.Info().
				Int("done", summary.Total).
				Int("total", len(paths)).
				Msg("Warm progress")
		}
	}

	log.Info().
		Int("paths", summary.Total).
		Int("hits", summary.Hits).
		Int("misses", summary.Misses).
		Int("uncached", summary.Uncached).
		Int("failed", summary.Failed).
		Dur("duration", time.Since(start)).
		Msg("Cache warm complete")

	return summary, collected
}

// worker drains the queue until it is empty or the context ends.
func (w *Warmer) worker(ctx context.Context, queue <-chan string, results chan<- Result, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for path := range queue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		status, err := w.fetcher.Fetch(fetchCtx, path)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Str("path", path).
				Msg("Warm fetch failed")
		}

		results <- Result{Path: path, Status: status, Err: err}
	}
}
