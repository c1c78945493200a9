package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk inventory document.
type File struct {
	Targets []Target `yaml:"targets"`
}

const defaultSSHPort = 22

// LoadFile reads and validates an inventory YAML file. Declaration order is
// preserved; the registry relies on it for ByRole ordering.
func LoadFile(path string) ([]Target, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates inventory YAML.
func Parse(data []byte) ([]Target, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inventory yaml: %w", err)
	}

	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("inventory declares no targets")
	}

	seen := make(map[string]bool, len(file.Targets))
	for i := range file.Targets {
		t := &file.Targets[i]
		if t.Port == 0 {
			t.Port = defaultSSHPort
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("inventory validation failed: %w", err)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("inventory declares target %q twice", t.Name)
		}
		seen[t.Name] = true
	}

	return file.Targets, nil
}
