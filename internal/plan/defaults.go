package plan

import (
	"github.com/provost-dev/provost/internal/action"
	"github.com/provost-dev/provost/internal/inventory"
	"github.com/provost-dev/provost/internal/provider"
)

// ProbeAction is the canonical readiness probe: a query that succeeds once
// the target accepts connections and can run catalog operations.
func ProbeAction() action.Action {
	return action.Action{
		Name:  provider.ActionProbe,
		Class: action.Query,
	}
}

// RebootAction is the reboot operation issued by the reboot-if-flagged
// post-condition.
func RebootAction() action.Action {
	return action.Action{
		Name:     provider.ActionReboot,
		Class:    action.Mutating,
		Critical: true,
	}
}

func defaultClass(name string) action.Class {
	if name == provider.ActionProbe {
		return action.Query
	}
	return action.Mutating
}

// DomainLab describes the built-in default deployment: one directory
// controller, members that join it, and a deploy-bootstrap node carrying
// the deployment tooling.
type DomainLab struct {
	// Domain is the fully qualified domain to create and join.
	Domain string
	// DNSServer is the address members point their resolvers at, normally
	// the controller.
	DNSServer string
	// AdminUsers are created on the controller once the domain exists.
	AdminUsers []string
	// Packages are installed on members after the join.
	Packages []string
}

// Default returns the built-in plan for a domain-lab deployment. Used when
// no plan file is given.
func Default(lab DomainLab) *Plan {
	users := lab.AdminUsers
	if len(users) == 0 {
		users = []string{"labadmin"}
	}
	packages := lab.Packages
	if len(packages) == 0 {
		packages = []string{"deployment-agent"}
	}

	controllerStages := []Stage{
		{
			Name: "directory-services",
			Actions: []action.Action{
				{
					Name:     provider.ActionInstallFeature,
					Params:   map[string]string{"name": "directory-services"},
					Class:    action.Mutating,
					Critical: true,
				},
			},
			Post: PostRebootIfFlagged,
		},
		{
			Name: "create-domain",
			Actions: []action.Action{
				{
					Name:     provider.ActionCreateDomain,
					Params:   map[string]string{"domain": lab.Domain},
					Class:    action.Mutating,
					Critical: true,
				},
			},
			Post: PostWaitUntilReady,
		},
		{
			Name:    "create-users",
			Actions: userActions(lab.Domain, users),
		},
	}

	memberStages := []Stage{
		{
			Name: "point-dns",
			Actions: []action.Action{
				{
					Name:     provider.ActionSetDNS,
					Params:   map[string]string{"servers": lab.DNSServer},
					Class:    action.Mutating,
					Critical: true,
				},
			},
		},
		{
			Name: "join-domain",
			Actions: []action.Action{
				{
					Name:     provider.ActionJoinDomain,
					Params:   map[string]string{"domain": lab.Domain},
					Class:    action.Mutating,
					Critical: true,
				},
			},
			Post: PostRebootIfFlagged,
		},
		{
			Name:    "install-software",
			Actions: packageActions(packages),
		},
	}

	deployStages := []Stage{
		{
			Name: "bootstrap-tooling",
			Actions: []action.Action{
				{
					Name:     provider.ActionInstallPackage,
					Params:   map[string]string{"name": "deploy-toolchain"},
					Class:    action.Mutating,
					Critical: true,
				},
			},
		},
	}

	return &Plan{
		Pipelines: []Pipeline{
			{Role: inventory.Deploy, Stages: deployStages},
			{Role: inventory.Controller, Stages: controllerStages},
			{Role: inventory.Member, Stages: memberStages},
		},
		Dependencies: []Dependency{
			{
				Role:      inventory.Controller,
				DependsOn: inventory.Deploy,
			},
			{
				Role:       inventory.Member,
				DependsOn:  inventory.Controller,
				Checkpoint: CheckpointName(inventory.Controller, "create-domain"),
			},
		},
	}
}

// userActions expands the declared admin users into one independent,
// order-insensitive action per user.
func userActions(domain string, users []string) []action.Action {
	actions := make([]action.Action, 0, len(users))
	for _, user := range users {
		actions = append(actions, action.Action{
			Name:   provider.ActionCreateUser,
			Params: map[string]string{"name": user, "domain": domain},
			Class:  action.Mutating,
		})
	}
	return actions
}

// packageActions expands the declared packages the same way.
func packageActions(packages []string) []action.Action {
	actions := make([]action.Action, 0, len(packages))
	for _, pkg := range packages {
		actions = append(actions, action.Action{
			Name:   provider.ActionInstallPackage,
			Params: map[string]string{"name": pkg},
			Class:  action.Mutating,
		})
	}
	return actions
}
