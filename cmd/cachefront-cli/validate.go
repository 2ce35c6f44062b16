package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cachefront/cachefront/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <rules-file>",
	Short: "Validate a classification rules file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	rules, err := config.LoadRules(path)
	if err != nil {
		return err
	}
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("%s is valid\n", path)
	fmt.Printf("  Master data resources: %d\n", len(rules.MasterData))
	fmt.Printf("  Transactional resources: %d\n", len(rules.Transactional))
	fmt.Printf("  Allowed origins: %d\n", len(rules.AllowedOrigins))
	if rules.MasterDataTTLSeconds > 0 {
		fmt.Printf("  Master data TTL: %s\n", time.Duration(rules.MasterDataTTLSeconds)*time.Second)
	}
	return nil
}
