package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Napiersnotes/Dandelions/internal/config"
	"github.com/Napiersnotes/Dandelions/internal/llm"
	"github.com/Napiersnotes/Dandelions/internal/llm/factory"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connections to all enabled providers",
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	manager := llm.NewManager(cfg.ProviderConfigs(), factory.New, zap.NewNop())
	if err := manager.Initialize(cmd.Context()); err != nil {
		if errors.Is(err, llm.ErrNoProvidersAvailable) {
			fmt.Println("No providers are usable. Run `dandelion setup` first.")
			return nil
		}
		return err
	}
	defer func() { _ = manager.Shutdown() }()

	results := manager.TestConnections(cmd.Context())

	vendors := make([]string, 0, len(results))
	for vendor := range results {
		vendors = append(vendors, vendor)
	}
	sort.Strings(vendors)

	for _, vendor := range vendors {
		if results[vendor] {
			fmt.Printf("  %-10s %s\n", vendor, color.GreenString("reachable"))
		} else {
			fmt.Printf("  %-10s %s\n", vendor, color.RedString("unreachable"))
		}
	}

	return nil
}
