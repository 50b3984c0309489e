package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Napiersnotes/Dandelions/internal/config"
	"github.com/Napiersnotes/Dandelions/internal/llm/factory"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	configs := cfg.ProviderConfigs()
	if len(configs) == 0 {
		fmt.Println("No providers configured. Run `dandelion setup` first.")
		return nil
	}

	bold := color.New(color.Bold)
	_, _ = bold.Printf("%-10s %-24s %-9s %-8s %-12s %s\n",
		"VENDOR", "MODEL", "PRIORITY", "ENABLED", "CREDENTIAL", "USD/1M IN : OUT")

	for _, pc := range configs {
		credential := color.RedString("missing")
		if pc.APIKey != "" {
			credential = color.GreenString("set")
		}

		rates := "-"
		if adapter, err := factory.New(pc, zap.NewNop()); err == nil {
			pricing := adapter.Pricing()
			rates = fmt.Sprintf("%.2f : %.2f", pricing.InputPerToken*1e6, pricing.OutputPerToken*1e6)
		}

		fmt.Printf("%-10s %-24s %-9d %-8v %-12s %s\n",
			pc.Vendor, pc.Model, pc.Priority, pc.Enabled, credential, rates)
	}

	return nil
}
