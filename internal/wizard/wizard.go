// Package wizard implements the interactive `provost init` flow: a short
// sequence of prompt groups that produces a starter inventory and config.
package wizard

import (
	"context"
	"fmt"
)

// Result holds all the answers from the interactive wizard.
type Result struct {
	// Domain identity
	Domain    string
	DNSServer string

	// Controller node
	ControllerName    string
	ControllerAddress string

	// Member nodes, parsed from a comma-separated address list
	MemberAddresses []string

	// Optional deploy-bootstrap node
	AddDeployNode bool
	DeployAddress string

	// Connection defaults
	SSHUser       string
	CredentialRef string

	// Admin users created on the controller
	AdminUsers []string
}

// Run walks through the prompt groups. The context is used for
// cancellation support (Ctrl+C).
func Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	if err := runDomainGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("domain identity: %w", err)
	}
	if err := runNodesGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("node layout: %w", err)
	}
	if err := runAccessGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("access settings: %w", err)
	}

	if result.DNSServer == "" {
		result.DNSServer = result.ControllerAddress
	}
	return result, nil
}
