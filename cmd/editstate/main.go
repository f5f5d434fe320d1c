package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	entitiesPath string
)

func main() {
	root := &cobra.Command{
		Use:           "editstate",
		Short:         "Entity records with pending edits, undo and dirty tracking",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "editstate.yaml", "Project config file")
	root.PersistentFlags().StringVar(&entitiesPath, "entities", "entities.yaml", "Entity registry file")
	root.AddCommand(initCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
