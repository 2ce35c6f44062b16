package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the deployment",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := newEdgeClient("")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	status, err := c.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Service: %s\n", status.Service)
	fmt.Printf("Version: %s\n", status.Version)
	fmt.Printf("Environment: %s\n", status.Environment)
	fmt.Printf("Timestamp: %s\n", status.Timestamp)
	return nil
}
