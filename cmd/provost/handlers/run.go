// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/provost-dev/provost/internal/composer"
	"github.com/provost-dev/provost/internal/config"
	"github.com/provost-dev/provost/internal/creds"
	"github.com/provost-dev/provost/internal/executor"
	"github.com/provost-dev/provost/internal/inventory"
	"github.com/provost-dev/provost/internal/metrics"
	"github.com/provost-dev/provost/internal/observe"
	"github.com/provost-dev/provost/internal/plan"
	"github.com/provost-dev/provost/internal/poller"
	"github.com/provost-dev/provost/internal/provider"
	"github.com/provost-dev/provost/internal/registry"
	"github.com/provost-dev/provost/internal/workflow"
)

const defaultConfigFile = "provost.yaml"

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads engine configuration from file.
	loadConfigFile = config.LoadFile

	// loadInventoryFile loads target declarations from file.
	loadInventoryFile = inventory.LoadFile

	// loadPlanFile loads a plan declaration from file.
	loadPlanFile = plan.LoadFile

	// newProvider creates the remote action provider.
	newProvider = func(cfg *config.Config) provider.Provider {
		p := provider.NewSSHProvider()
		p.DialTimeout = cfg.SSH.DialTimeout()
		p.DialAttempts = cfg.SSH.DialAttempts
		return p
	}

	// newResolver creates the credential resolver.
	newResolver = func() creds.Resolver {
		return creds.EnvResolver{}
	}

	// newObserver creates the run observer.
	newObserver = func() observe.Observer {
		return observe.NewConsoleObserver()
	}

	// renderTo receives the rendered run report.
	renderTo = func(s string) {
		fmt.Print(s)
	}
)

// Run executes every role pipeline and renders the run report.
//
// The exit contract is the CLI's whole surface: a nil return (exit 0) only
// when every pipeline completed; otherwise an error naming the failed
// pipelines. Cancellation (Ctrl+C) propagates into in-progress polls and
// marks outstanding pipelines failed with a cancelled diagnostic.
func Run(ctx context.Context, configPath, inventoryPath, planPath string) error {
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

	obs := newObserver()
	exec := executor.New(reg, newResolver(), newProvider(cfg), obs)
	poll := poller.New(exec, obs)
	engine := workflow.New(exec, poll, obs, workflow.Config{
		Probe:  plan.ProbeAction(),
		Reboot: plan.RebootAction(),
		RebootWait: workflow.Budget{
			MaxAttempts: cfg.Reboot.MaxAttempts,
			Delay:       cfg.Reboot.Delay(),
		},
		ReadyWait: workflow.Budget{
			MaxAttempts: cfg.Readiness.MaxAttempts,
			Delay:       cfg.Readiness.Delay(),
		},
	})

	if cfg.MetricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsListen); err != nil {
				obs.Printf("metrics listener failed: %v", err)
			}
		}()
	}

	comp := composer.New(engine, runPlan, reg, obs)
	rep, err := comp.Run(ctx)
	if err != nil {
		return err
	}

	renderTo(rep.Render(stdoutIsTerminal()))

	if !rep.Succeeded() {
		return fmt.Errorf("provisioning failed: %d pipeline(s) did not complete", len(rep.FailedPipelines()))
	}
	return nil
}

// loadConfig resolves the configuration: an explicit path must exist, the
// default file is used when present, and built-in defaults apply otherwise.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return loadConfigFile(configPath)
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return loadConfigFile(defaultConfigFile)
	}
	return config.Default(), nil
}

// loadPlan resolves the plan: an explicit file wins, otherwise the built-in
// domain-lab plan parameterized from config. When no DNS server is
// configured the first controller's address is used, matching the usual
// lab topology where the controller hosts DNS.
func loadPlan(planPath string, cfg *config.Config, targets []inventory.Target) (*plan.Plan, error) {
	if planPath != "" {
		return loadPlanFile(planPath)
	}

	lab := plan.DomainLab{
		Domain:     cfg.Lab.Domain,
		DNSServer:  cfg.Lab.DNSServer,
		AdminUsers: cfg.Lab.AdminUsers,
		Packages:   cfg.Lab.Packages,
	}
	if lab.DNSServer == "" {
		for _, t := range targets {
			if t.Role == inventory.Controller {
				lab.DNSServer = t.Address
				break
			}
		}
	}

	p := plan.Default(lab)
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("built-in plan validation failed: %w", err)
	}
	return p, nil
}

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
