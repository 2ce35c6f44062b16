// Package warm fetches batches of resource paths through a running edge
// proxy so the cache is populated before real traffic arrives.
//
// A worker pool issues the fetches with bounded concurrency. Each path
// is tried once; failures are collected and never abort the batch. The
// per-path cache status reported by the proxy is aggregated so callers
// can tell how much of the batch was already warm.
//
// Example usage:
//
//	warmer := warm.NewWarmer(fetcher, warm.DefaultConfig())
//	summary, results := warmer.WarmAll(ctx, paths)
package warm
