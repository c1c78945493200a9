package plan

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and validates a plan YAML file.
func LoadFile(path string) (*Plan, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates plan YAML.
func Parse(data []byte) (*Plan, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan yaml: %w", err)
	}

	var p Plan
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &p,
		TagName: "yaml",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}

	applyDefaults(&p)

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}
	return &p, nil
}

// applyDefaults fills in omitted action classes. Plan authors rarely spell
// out "mutating"; only probes need an explicit query class.
func applyDefaults(p *Plan) {
	for pi := range p.Pipelines {
		for si := range p.Pipelines[pi].Stages {
			stage := &p.Pipelines[pi].Stages[si]
			for ai := range stage.Actions {
				if stage.Actions[ai].Class == "" {
					stage.Actions[ai].Class = defaultClass(stage.Actions[ai].Name)
				}
			}
		}
	}
}
