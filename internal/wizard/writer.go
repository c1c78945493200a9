package wizard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/provost-dev/provost/internal/config"
	"github.com/provost-dev/provost/internal/inventory"
)

// BuildInventory converts wizard answers into target declarations.
func BuildInventory(result *Result) []inventory.Target {
	var targets []inventory.Target

	if result.AddDeployNode {
		targets = append(targets, inventory.Target{
			Name:          "deploy1",
			Role:          inventory.Deploy,
			Address:       result.DeployAddress,
			User:          result.SSHUser,
			CredentialRef: result.CredentialRef,
		})
	}

	targets = append(targets, inventory.Target{
		Name:          result.ControllerName,
		Role:          inventory.Controller,
		Address:       result.ControllerAddress,
		User:          result.SSHUser,
		CredentialRef: result.CredentialRef,
	})

	for i, addr := range result.MemberAddresses {
		targets = append(targets, inventory.Target{
			Name:          fmt.Sprintf("member%d", i+1),
			Role:          inventory.Member,
			Address:       addr,
			User:          result.SSHUser,
			CredentialRef: result.CredentialRef,
		})
	}

	return targets
}

// BuildConfig converts wizard answers into engine configuration.
func BuildConfig(result *Result) *config.Config {
	cfg := config.Default()
	cfg.Lab.Domain = result.Domain
	cfg.Lab.DNSServer = result.DNSServer
	cfg.Lab.AdminUsers = result.AdminUsers
	return cfg
}

// WriteFiles persists the generated inventory and config. Existing files
// are never overwritten; init refuses rather than clobbering a deployment.
func WriteFiles(result *Result, inventoryPath, configPath string) error {
	for _, path := range []string{inventoryPath, configPath} {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", path)
		}
	}

	invData, err := yaml.Marshal(inventory.File{Targets: BuildInventory(result)})
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}
	if err := os.WriteFile(inventoryPath, invData, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", inventoryPath, err)
	}

	cfgData, err := yaml.Marshal(BuildConfig(result))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, cfgData, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	return nil
}
