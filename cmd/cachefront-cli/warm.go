package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cachefront/cachefront/pkg/warm"
)

var warmConcurrency int

var warmCmd = &cobra.Command{
	Use:   "warm <paths-file>",
	Short: "Prefetch a list of paths through the edge cache",
	Long: `Warm reads resource paths from a file (one per line, # starts a
comment) and fetches each through the deployment so cacheable responses
are stored before real traffic needs them.`,
	Args: cobra.ExactArgs(1),
	RunE: runWarm,
}

func init() {
	warmCmd.Flags().IntVar(&warmConcurrency, "concurrency", 8, "parallel fetches")
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	paths, err := readPaths(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no paths found in %s", args[0])
	}

	c, err := newEdgeClient("")
	if err != nil {
		return err
	}

	fetcher := warm.FetcherFunc(func(ctx context.Context, path string) (string, error) {
		resp, err := c.Get(ctx, path)
		if err != nil {
			return "", err
		}
		if edgeErr := resp.EdgeError(); edgeErr != nil {
			return "", edgeErr
		}
		return string(resp.CacheStatus), nil
	})

	warmer := warm.NewWarmer(fetcher, warm.Config{
		MaxConcurrency: warmConcurrency,
		Timeout:        timeout,
	})

	summary, results := warmer.WarmAll(context.Background(), paths)

	for _, result := range results {
		if result.Err != nil {
			fmt.Printf("  failed: %s: %v\n", result.Path, result.Err)
		}
	}
	fmt.Printf("Warmed %d paths: %d hits, %d misses, %d uncached, %d failed\n",
		summary.Total, summary.Hits, summary.Misses, summary.Uncached, summary.Failed)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d paths failed", summary.Failed, summary.Total)
	}
	return nil
}

// readPaths reads one path per line; blank lines and # comments are skipped.
func readPaths(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	return paths, scanner.Err()
}
