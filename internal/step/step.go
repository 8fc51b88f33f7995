// Package step selects and constructs workflow step variants by execution
// context.
package step

import (
	"fmt"

	"github.com/gridflow/gridflow/internal/app"
	"github.com/gridflow/gridflow/internal/shared/logging"
	"github.com/gridflow/gridflow/internal/step/core"
	"github.com/gridflow/gridflow/internal/step/gridengine"
	"github.com/gridflow/gridflow/internal/step/local"
	"github.com/gridflow/gridflow/internal/storage"
	"github.com/gridflow/gridflow/internal/workflow"
)

// Deps are the collaborators injected into step variants. Driver is only
// required for scheduler-backed contexts.
type Deps struct {
	Driver      gridengine.Driver
	Storage     storage.Manager
	StatusStore core.StatusStore
	Logger      logging.Logger
}

// New builds the step variant matching the descriptor's execution context.
func New(descriptor *workflow.Step, application *app.Application, outputURI string, clean bool, deps Deps) (core.Runner, error) {
	switch descriptor.Execution.Context {
	case gridengine.Context:
		if deps.Driver == nil {
			return nil, fmt.Errorf("%w: gridengine step requires a scheduler driver", core.ErrConfiguration)
		}
		cfg := gridengine.Config{Step: descriptor, App: application, OutputURI: outputURI, Clean: clean}
		return gridengine.New(cfg, deps.Driver, deps.Storage, deps.StatusStore, deps.Logger), nil
	case local.Context:
		cfg := local.Config{Step: descriptor, App: application, OutputURI: outputURI, Clean: clean}
		return local.New(cfg, deps.Storage, deps.StatusStore, deps.Logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown execution context %q", core.ErrConfiguration, descriptor.Execution.Context)
	}
}
