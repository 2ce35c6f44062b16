package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var purgeSecret string

var purgeCmd = &cobra.Command{
	Use:   "purge <path>",
	Short: "Remove a cached GET response from the edge cache",
	Long: `Purge removes the cached entry for the given resource path (with
optional query). The path is matched the way the proxy keys its cache,
so query parameter order does not matter.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().StringVar(&purgeSecret, "purge-secret", os.Getenv("PURGE_SECRET"), "purge secret (defaults to PURGE_SECRET)")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	c, err := newEdgeClient(purgeSecret)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := c.Purge(ctx, args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if result.StatusCode != http.StatusOK {
		return fmt.Errorf("purge failed with status %d", result.StatusCode)
	}
	return nil
}
