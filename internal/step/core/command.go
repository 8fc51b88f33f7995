package core

import (
	"fmt"
	"path"
	"strings"

	"github.com/gridflow/gridflow/internal/app"
	"github.com/gridflow/gridflow/internal/uri"
)

// The output parameter is joined under the step's own output location
// instead of being passed through verbatim.
const outputParam = "output"

// CommandBuilder constructs the executable command for a map item by merging
// the application's declared defaults with the item's template overrides.
// Build is a pure function: identical schema and template always produce a
// byte-identical command, with flags emitted in declaration order.
type CommandBuilder struct {
	App        *app.Application
	Script     string
	OutputPath string
	Method     string
}

// Build returns the command string for one map item.
func (b CommandBuilder) Build(item *MapItem) string {
	var sb strings.Builder
	sb.WriteString(b.Script)

	for _, input := range b.App.Inputs {
		value := input.Default
		if override, ok := item.Template[input.Name]; ok {
			value = override
		}
		if value == "" {
			continue
		}
		fmt.Fprintf(&sb, " --%s=%q", input.Name, uri.ChopPath(value))
	}

	for _, param := range b.App.Parameters {
		value := param.Default
		if override, ok := item.Template[param.Name]; ok {
			value = override
		}
		if param.Name == outputParam {
			value = path.Join(b.OutputPath, value)
		}
		fmt.Fprintf(&sb, " --%s=%q", param.Name, value)
	}

	fmt.Fprintf(&sb, " --exec_method=%q", b.Method)
	return sb.String()
}
