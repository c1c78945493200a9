package commands

import (
	"github.com/spf13/cobra"

	"github.com/provost-dev/provost/cmd/provost/handlers"
)

// Validate returns the command that checks inventory and plan without
// executing anything.
func Validate() *cobra.Command {
	var configPath, inventoryPath, planPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate inventory, plan, and dependency ordering",
		Long: `Load the inventory and plan, resolve the role dependency graph, and
print the execution order. Nothing is executed; cyclic dependencies and
malformed declarations are reported as errors.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Validate(cmd.Context(), configPath, inventoryPath, planPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: provost.yaml)")
	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "inventory.yaml", "Path to inventory file")
	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "Path to plan file (default: built-in plan)")

	return cmd
}
