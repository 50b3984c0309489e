// Command dandelion runs the multi-LLM bot: a provider manager with
// priority failover behind an HTTP surface, plus the setup and diagnostics
// commands around it.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dandelion",
	Short: "Multi-LLM bot with priority failover and cost tracking",
	Long: `Dandelion routes generation requests across multiple LLM vendors
behind one uniform interface. Providers are tried in priority order; per-call
token usage and cost are tracked per vendor.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to settings file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
