package handlers

import (
	"context"
	"fmt"

	"github.com/provost-dev/provost/internal/composer"
	"github.com/provost-dev/provost/internal/observe"
	"github.com/provost-dev/provost/internal/registry"
)

// Validate loads the inventory and plan, resolves the dependency order, and
// prints what a run would execute. Nothing is invoked against any target.
func Validate(_ context.Context, configPath, inventoryPath, planPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	targets, err := loadInventoryFile(inventoryPath)
	if err != nil {
		return err
	}

	reg, err := registry.Load(targets)
	if err != nil {
		return err
	}

	runPlan, err := loadPlan(planPath, cfg, targets)
	if err != nil {
		return err
	}

	comp := composer.New(nil, runPlan, reg, observe.NopObserver{})
	order, err := comp.Order()
	if err != nil {
		return err
	}

	fmt.Printf("inventory: %d target(s)\n", len(targets))
	fmt.Println("execution order:")
	for i, role := range order {
		pl, _ := runPlan.PipelineFor(role)
		fmt.Printf("  %d. %-12s %d stage(s), %d target(s)\n",
			i+1, role, len(pl.Stages), len(reg.ByRole(role)))
	}
	return nil
}
