// Package workflow defines workflow step descriptors.
package workflow

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FilenamePlaceholder in template values is replaced with the map item's
// filename when the step fans out over a map location.
const FilenamePlaceholder = "${filename}"

// Execution describes how and where a step's jobs run.
type Execution struct {
	// Context selects the step variant, e.g. "gridengine" or "local".
	Context string `yaml:"context"`
	// Method is forwarded to the application script via --exec_method.
	Method string `yaml:"method"`
	// Parameters is the scheduler-native resource request string, passed
	// through verbatim.
	Parameters string `yaml:"parameters"`
}

// MapSpec addresses the location whose entries become map items.
type MapSpec struct {
	URI string `yaml:"uri"`
}

// Step is a workflow step descriptor.
type Step struct {
	Name      string            `yaml:"name"`
	App       string            `yaml:"app"`
	Map       MapSpec           `yaml:"map"`
	Template  map[string]string `yaml:"template"`
	Execution Execution         `yaml:"execution"`
}

// LoadStep reads a step descriptor from a YAML file.
func LoadStep(path string) (*Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read step definition %s: %w", path, err)
	}
	var s Step
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("cannot parse step definition %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("step definition %s is missing a name", path)
	}
	return &s, nil
}

// TemplateFor resolves the step template for one map item, substituting the
// item's filename for every placeholder occurrence.
func (s *Step) TemplateFor(filename string) map[string]string {
	resolved := make(map[string]string, len(s.Template))
	for key, value := range s.Template {
		resolved[key] = strings.ReplaceAll(value, FilenamePlaceholder, filename)
	}
	return resolved
}
