package wizard

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"
)

// domainRegex accepts dotted lowercase DNS names, e.g. "corp.example.com".
var domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// runDomainGroup prompts for the domain to create and its DNS server.
func runDomainGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Domain Name").
				Description("Fully qualified domain the controller will create").
				Placeholder("lab.local").
				Value(&result.Domain).
				Validate(validateDomain),
			huh.NewInput().
				Title("DNS Server (Optional)").
				Description("Address members point their resolvers at. Leave empty to use the controller.").
				Value(&result.DNSServer),
		).Title("Domain Identity"),
	).RunWithContext(ctx)
}

// runNodesGroup prompts for the controller, members, and the optional
// deploy-bootstrap node.
func runNodesGroup(ctx context.Context, result *Result) error {
	var memberInput string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Controller Name").
				Placeholder("dc1").
				Value(&result.ControllerName).
				Validate(requireValue("controller name")),
			huh.NewInput().
				Title("Controller Address").
				Value(&result.ControllerAddress).
				Validate(validateAddress),
			huh.NewInput().
				Title("Member Addresses").
				Description("Comma-separated addresses of member nodes").
				Placeholder("10.0.0.11, 10.0.0.12").
				Value(&memberInput),
			huh.NewConfirm().
				Title("Add a deploy-bootstrap node?").
				Value(&result.AddDeployNode),
		).Title("Node Layout"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	result.MemberAddresses = splitList(memberInput)

	if result.AddDeployNode {
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Deploy Node Address").
					Value(&result.DeployAddress).
					Validate(validateAddress),
			).Title("Deploy Bootstrap"),
		).RunWithContext(ctx)
	}
	return nil
}

// runAccessGroup prompts for connection defaults and admin users.
func runAccessGroup(ctx context.Context, result *Result) error {
	var adminInput string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SSH User").
				Placeholder("provisioner").
				Value(&result.SSHUser).
				Validate(requireValue("ssh user")),
			huh.NewInput().
				Title("Credential Reference").
				Description("Opaque reference resolved at run time, e.g. env:LAB").
				Placeholder("env:LAB").
				Value(&result.CredentialRef).
				Validate(requireValue("credential reference")),
			huh.NewInput().
				Title("Admin Users (Optional)").
				Description("Comma-separated users created once the domain exists").
				Value(&adminInput),
		).Title("Access"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	result.AdminUsers = splitList(adminInput)
	return nil
}

func validateDomain(s string) error {
	if !domainRegex.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("must be a dotted lowercase domain name")
	}
	return nil
}

func validateAddress(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("address is required")
	}
	if net.ParseIP(s) == nil && !domainRegex.MatchString(s) {
		return fmt.Errorf("must be an IP address or hostname")
	}
	return nil
}

func requireValue(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
