package commands

import (
	"github.com/spf13/cobra"

	"github.com/provost-dev/provost/cmd/provost/handlers"
)

// Run returns the command that executes the full provisioning run.
//
// Optional flags:
//
//	--config, -c: Path to engine configuration YAML (default: auto-detect provost.yaml)
//	--inventory, -i: Path to inventory YAML (default: inventory.yaml)
//	--plan, -p: Path to plan YAML (default: built-in domain-lab plan)
func Run() *cobra.Command {
	var configPath, inventoryPath, planPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute all role pipelines",
		Long: `Execute every role pipeline declared in the plan.

Pipelines for independent roles run concurrently; a dependent role stays
pending until the checkpoint it waits on is reached. The exit code is 0
only when every pipeline completes.

Credentials are resolved from opaque references at invocation time; with
the default env resolver a reference "env:LAB" reads LAB_USER,
LAB_PASSWORD, and LAB_KEY_FILE from the environment.

Examples:
  # Run with inventory.yaml and the built-in domain-lab plan
  provost run

  # Run a custom plan against a specific inventory
  provost run -i lab-inventory.yaml -p lab-plan.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), configPath, inventoryPath, planPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: provost.yaml)")
	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "inventory.yaml", "Path to inventory file")
	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "Path to plan file (default: built-in plan)")

	return cmd
}
