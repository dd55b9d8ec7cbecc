package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "animanga",
		Short:        "Anime/manga site backend",
		Long:         "animanga serves the site's login, signup and session API and its show catalogue.",
		SilenceUsage: true,
		Version:      version,
		RunE:         runServe,
	}
	root.PersistentFlags().String("config", "", "Path to an optional config file (yaml, json or toml)")
	root.Flags().String("static", "", "Directory of static pages to serve at /")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	return root
}
