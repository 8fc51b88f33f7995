// Package app loads application definitions: the declared input and parameter
// schemas plus per-context execution definitions.
package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Param is one declared input or parameter with its default value.
type Param struct {
	Name    string
	Default string
}

// ParamList preserves the declaration order of the YAML mapping it was
// decoded from. Command construction iterates it in that order.
type ParamList []Param

func (pl *ParamList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping for param schema, got %s", nodeKind(node))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var spec struct {
			Default string `yaml:"default"`
		}
		if err := node.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("invalid schema entry %q: %w", node.Content[i].Value, err)
		}
		*pl = append(*pl, Param{Name: node.Content[i].Value, Default: spec.Default})
	}
	return nil
}

// Get returns the declared default for name.
func (pl ParamList) Get(name string) (string, bool) {
	for _, p := range pl {
		if p.Name == name {
			return p.Default, true
		}
	}
	return "", false
}

// Definition is one execution-context definition of an application.
type Definition struct {
	Script string `yaml:"script"`
}

// Application is a loaded application definition.
type Application struct {
	Name        string                `yaml:"name"`
	Inputs      ParamList             `yaml:"inputs"`
	Parameters  ParamList             `yaml:"parameters"`
	Definitions map[string]Definition `yaml:"definition"`
}

// Load reads an application definition from a YAML file.
func Load(path string) (*Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read app definition %s: %w", path, err)
	}
	var a Application
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("cannot parse app definition %s: %w", path, err)
	}
	return &a, nil
}

// LocalDefinition returns the app's "local" definition. Remote scheduler
// contexts also require it: the scheduler invokes the same script remotely.
func (a *Application) LocalDefinition() (Definition, bool) {
	def, ok := a.Definitions["local"]
	return def, ok
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "unknown"
	}
}
