package handlers

import (
	"context"
	"fmt"

	"github.com/provost-dev/provost/internal/wizard"
)

// runWizard is a factory variable for test injection.
var runWizard = wizard.Run

// Init walks the interactive wizard and writes starter inventory and
// configuration files.
func Init(ctx context.Context, inventoryPath, configPath string) error {
	result, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard aborted: %w", err)
	}

	if err := wizard.WriteFiles(result, inventoryPath, configPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", inventoryPath, configPath)
	fmt.Println("next: export credentials (e.g. LAB_USER/LAB_PASSWORD) and run `provost run`")
	return nil
}
