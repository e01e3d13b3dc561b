package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteScenario writes a timeline to a YAML file, creating its directory
func WriteScenario(scenario *Scenario, path string) error {
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create timeline dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadScenario reads a timeline from a YAML file
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse timeline %s: %w", path, err)
	}
	if scenario.Version != Version {
		return nil, fmt.Errorf("timeline %s: unsupported version %q", path, scenario.Version)
	}

	return &scenario, nil
}
