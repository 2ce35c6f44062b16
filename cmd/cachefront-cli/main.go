// Command cachefront-cli is the operator tool for a running cachefront
// deployment.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cachefront/cachefront/pkg/client"
)

var (
	edgeURL string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "cachefront-cli",
	Short: "Operator CLI for a running cachefront deployment",
	Long: `cachefront-cli talks to a running cachefront edge proxy.

It can purge cached entries, prefetch paths into the cache, validate
classification rules files, and report the deployment status.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&edgeURL, "edge-url", envOr("EDGE_URL", "http://localhost:8080"), "base URL of the deployment")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newEdgeClient builds the client shared by the remote commands.
func newEdgeClient(purgeSecret string) (*client.Client, error) {
	cfg := client.DefaultConfig(edgeURL)
	cfg.PurgeSecret = purgeSecret
	cfg.Timeout = timeout
	return client.New(cfg)
}
