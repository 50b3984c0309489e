package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Napiersnotes/Dandelions/internal/wizard"
)

var setupDir string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the interactive setup wizard",
	Long: `Walk through provider and server configuration interactively.

The wizard writes settings.yaml and a .env file with credentials into the
configuration directory. Re-running it overwrites both files.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return wizard.New(os.Stdin, os.Stdout, setupDir).Run()
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().StringVar(&setupDir, "dir", "config", "directory to write configuration into")
}
