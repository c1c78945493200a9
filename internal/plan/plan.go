// Package plan declares what a run executes: the ordered stages per role,
// each stage's actions and optional post-condition, and the dependency
// edges between roles. Plans are loaded from YAML or taken from the
// built-in domain-lab default.
package plan

import (
	"fmt"

	"github.com/provost-dev/provost/internal/action"
	"github.com/provost-dev/provost/internal/inventory"
	"github.com/provost-dev/provost/internal/provider"
)

// PostCondition is an optional gate evaluated after a stage's actions.
type PostCondition string

const (
	// PostNone means the next stage starts immediately.
	PostNone PostCondition = ""
	// PostRebootIfFlagged reboots every target whose actions flagged a
	// reboot, then waits for each to answer the readiness probe.
	PostRebootIfFlagged PostCondition = "reboot-if-flagged"
	// PostWaitUntilReady waits for every target of the role to answer the
	// readiness probe before the next stage.
	PostWaitUntilReady PostCondition = "wait-until-ready"
)

// Stage is an atomic, ordered group of actions within a role's pipeline.
// From the workflow's perspective it either completes (possibly with
// recorded failures for informational actions) or the pipeline halts.
type Stage struct {
	Name    string          `yaml:"name"`
	Actions []action.Action `yaml:"actions"`
	Post    PostCondition   `yaml:"post,omitempty"`
}

// Pipeline is the ordered stage sequence for one role.
type Pipeline struct {
	Role   inventory.Role `yaml:"role"`
	Stages []Stage        `yaml:"stages"`
}

// Dependency declares that Role may not start until DependsOn has reached
// Checkpoint. An empty checkpoint means full completion of the upstream
// pipeline.
type Dependency struct {
	Role       inventory.Role `yaml:"role"`
	DependsOn  inventory.Role `yaml:"depends_on"`
	Checkpoint string         `yaml:"checkpoint,omitempty"`
}

// Plan is the complete run declaration.
type Plan struct {
	Pipelines    []Pipeline   `yaml:"pipelines"`
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
}

// CheckpointName is the canonical name of a stage-completion checkpoint.
func CheckpointName(role inventory.Role, stage string) string {
	return string(role) + "/" + stage
}

// PipelineFor returns the pipeline declared for role, if any.
func (p *Plan) PipelineFor(role inventory.Role) (Pipeline, bool) {
	for _, pl := range p.Pipelines {
		if pl.Role == role {
			return pl, true
		}
	}
	return Pipeline{}, false
}

// Validate checks structural soundness: known roles, unique stage names per
// role, catalog actions only, and dependency edges that reference declared
// pipelines and existing checkpoints. Cycle detection is the composer's
// job.
func (p *Plan) Validate() error {
	if len(p.Pipelines) == 0 {
		return fmt.Errorf("plan declares no pipelines")
	}

	seenRole := make(map[inventory.Role]bool)
	for _, pl := range p.Pipelines {
		if !pl.Role.Valid() {
			return fmt.Errorf("plan declares unknown role %q", pl.Role)
		}
		if seenRole[pl.Role] {
			return fmt.Errorf("plan declares role %q twice", pl.Role)
		}
		seenRole[pl.Role] = true

		if len(pl.Stages) == 0 {
			return fmt.Errorf("role %q declares no stages", pl.Role)
		}
		seenStage := make(map[string]bool)
		for _, st := range pl.Stages {
			if st.Name == "" {
				return fmt.Errorf("role %q has a stage without a name", pl.Role)
			}
			if seenStage[st.Name] {
				return fmt.Errorf("role %q declares stage %q twice", pl.Role, st.Name)
			}
			seenStage[st.Name] = true

			switch st.Post {
			case PostNone, PostRebootIfFlagged, PostWaitUntilReady:
			default:
				return fmt.Errorf("stage %s/%s: unknown post-condition %q", pl.Role, st.Name, st.Post)
			}
			if len(st.Actions) == 0 {
				return fmt.Errorf("stage %s/%s declares no actions", pl.Role, st.Name)
			}
			for _, act := range st.Actions {
				if !provider.InCatalog(act.Name) {
					return fmt.Errorf("stage %s/%s: action %q is not in the remote catalog", pl.Role, st.Name, act.Name)
				}
			}
		}
	}

	for _, dep := range p.Dependencies {
		if !seenRole[dep.Role] {
			return fmt.Errorf("dependency references undeclared role %q", dep.Role)
		}
		if !seenRole[dep.DependsOn] {
			return fmt.Errorf("dependency of %q references undeclared role %q", dep.Role, dep.DependsOn)
		}
		if dep.Role == dep.DependsOn {
			return fmt.Errorf("role %q depends on itself", dep.Role)
		}
		if dep.Checkpoint != "" {
			upstream, _ := p.PipelineFor(dep.DependsOn)
			found := false
			for _, st := range upstream.Stages {
				if CheckpointName(dep.DependsOn, st.Name) == dep.Checkpoint {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("dependency of %q names unknown checkpoint %q", dep.Role, dep.Checkpoint)
			}
		}
	}

	return nil
}
