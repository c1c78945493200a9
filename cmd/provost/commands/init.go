package commands

import (
	"github.com/spf13/cobra"

	"github.com/provost-dev/provost/cmd/provost/handlers"
)

// Init returns the command that interactively creates starter files.
func Init() *cobra.Command {
	var inventoryPath, configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create inventory and configuration files",
		Long: `Walk through a short interactive wizard and write a starter
inventory.yaml and provost.yaml for a domain-lab deployment. Existing
files are never overwritten.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), inventoryPath, configPath)
		},
	}

	cmd.Flags().StringVar(&inventoryPath, "inventory", "inventory.yaml", "Inventory file to write")
	cmd.Flags().StringVar(&configPath, "config", "provost.yaml", "Configuration file to write")

	return cmd
}
