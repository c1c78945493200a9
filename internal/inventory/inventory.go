// Package inventory declares the target set for a run: which nodes exist,
// what role each plays, and how to reach them. The inventory is a static
// YAML file in the real deployment; anything that can populate the registry
// at start-of-run is an acceptable source.
package inventory

import "fmt"

// Role classifies a node in the pipeline. Each role has a distinct stage
// sequence in the plan.
type Role string

const (
	// Controller is the node the member role depends on, e.g. the domain
	// controller in a domain lab.
	Controller Role = "controller"
	// Member is a node that joins whatever the controller establishes.
	Member Role = "member"
	// Deploy is the deployment-bootstrap node.
	Deploy Role = "deploy"
)

// Roles lists all valid roles in a stable order.
var Roles = []Role{Deploy, Controller, Member}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case Controller, Member, Deploy:
		return true
	}
	return false
}

// Target is one declared node. Credentials are carried as an opaque
// reference and resolved at invocation time; plaintext secrets never enter
// the data model.
type Target struct {
	Name          string `yaml:"name"`
	Role          Role   `yaml:"role"`
	Address       string `yaml:"address"`
	Port          int    `yaml:"port,omitempty"`
	User          string `yaml:"user,omitempty"`
	CredentialRef string `yaml:"credential_ref"`
}

// Validate checks a single target declaration.
func (t Target) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("target name is required")
	}
	if !t.Role.Valid() {
		return fmt.Errorf("target %q: unknown role %q", t.Name, t.Role)
	}
	if t.Address == "" {
		return fmt.Errorf("target %q: address is required", t.Name)
	}
	if t.CredentialRef == "" {
		return fmt.Errorf("target %q: credential_ref is required", t.Name)
	}
	return nil
}
