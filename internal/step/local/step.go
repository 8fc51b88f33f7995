// Package local implements the step variant that executes map-item jobs as
// local shell processes.
package local

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gridflow/gridflow/internal/app"
	"github.com/gridflow/gridflow/internal/shared/logging"
	"github.com/gridflow/gridflow/internal/step/core"
	"github.com/gridflow/gridflow/internal/storage"
	"github.com/gridflow/gridflow/internal/uri"
	"github.com/gridflow/gridflow/internal/workflow"
)

// Context is the execution-context tag this variant serves.
const Context = "local"

// Step runs one workflow step by spawning a local process per map item.
// Callers must not invoke Run, CheckRunningJobs, or RetryFailed concurrently
// on the same instance.
type Step struct {
	id          uuid.UUID
	step        *workflow.Step
	application *app.Application
	outputURI   uri.URI
	mapURI      uri.URI
	clean       bool

	store       storage.Manager
	statusStore core.StatusStore
	logger      logging.Logger

	items   []*core.MapItem
	builder core.CommandBuilder

	// spawn is swapped out by tests.
	spawn func(command string) (processHandle, error)
}

// processHandle is what submit records for an attempt: the observable
// process state plus its PID.
type processHandle interface {
	core.ProcessHandle
	PID() int
}

// Config carries the step descriptor, app definition, and output location.
type Config struct {
	Step      *workflow.Step
	App       *app.Application
	OutputURI string
	Clean     bool
}

func New(cfg Config, store storage.Manager, statusStore core.StatusStore, logger logging.Logger) *Step {
	id := uuid.New()
	outputURI, err := uri.Parse(cfg.OutputURI)
	if err != nil {
		outputURI = uri.URI{Path: cfg.OutputURI}
	}
	mapURI, err := uri.Parse(cfg.Step.Map.URI)
	if err != nil {
		mapURI = uri.URI{Path: cfg.Step.Map.URI}
	}
	return &Step{
		id:          id,
		step:        cfg.Step,
		application: cfg.App,
		outputURI:   outputURI,
		mapURI:      mapURI,
		clean:       cfg.Clean,
		store:       store,
		statusStore: statusStore,
		logger:      logger.With("step", cfg.Step.Name, "step_id", id.String()),
		spawn: func(command string) (processHandle, error) {
			return startProcess(command)
		},
	}
}

// ID identifies this step instance in the status store.
func (s *Step) ID() uuid.UUID {
	return s.id
}

// Initialize validates the execution context and app definition, prepares
// the output location, and builds the map-item registry.
func (s *Step) Initialize() error {
	if s.step.Execution.Context != Context {
		return fmt.Errorf(
			"%w: local step requires a %q execution context, got %q",
			core.ErrConfiguration, Context, s.step.Execution.Context,
		)
	}

	def, ok := s.application.LocalDefinition()
	if !ok {
		return fmt.Errorf(
			"%w: local step requires an app with a %q definition",
			core.ErrConfiguration, "local",
		)
	}

	if err := core.InitOutput(s.store, s.outputURI, s.clean, s.logger); err != nil {
		return err
	}

	names, err := core.EnumerateMap(s.store, s.mapURI)
	if err != nil {
		return err
	}

	s.items = make([]*core.MapItem, 0, len(names))
	for _, name := range names {
		s.items = append(s.items, core.NewMapItem(name, s.step.TemplateFor(name)))
	}

	s.builder = core.CommandBuilder{
		App:        s.application,
		Script:     def.Script,
		OutputPath: s.outputURI.Path,
		Method:     s.step.Execution.Method,
	}

	s.logger.Info("step initialized", "map_items", len(s.items), "output", s.outputURI.String())
	return nil
}

// Run spawns one process per map item, in registry order, failing fast on
// the first spawn error.
func (s *Step) Run() error {
	for _, item := range s.items {
		if err := s.submit(item); err != nil {
			s.logger.Error("cannot run script for map item", "filename", item.Filename, "error", err)
			return fmt.Errorf("cannot run script for map item %q: %w", item.Filename, err)
		}
	}

	if err := s.statusStore.Update(s.id, core.StatusRunning, ""); err != nil {
		s.logger.Warn("cannot update step status", "error", err)
	}
	return nil
}

func (s *Step) submit(item *core.MapItem) error {
	cmd := s.builder.Build(item)
	s.logger.Debug("spawning command", "filename", item.Filename, "command", cmd)

	handle, err := s.spawn(cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrSubmission, err)
	}

	item.AppendRun(&core.Run{Process: handle, PID: handle.PID()})
	item.SetStatus(core.StatusRunning)

	s.logger.Info("process started", "filename", item.Filename, "pid", handle.PID(), "attempt", item.CurrentAttempt)
	return nil
}

// CheckRunningJobs reconciles every map item's current attempt with its
// process state. Inspection failures are isolated per item: the item is
// marked FAILED with a warning and the sweep continues.
func (s *Step) CheckRunningJobs() error {
	for _, item := range s.items {
		run := item.CurrentRun()
		if run == nil {
			continue
		}

		if run.Process == nil {
			s.logger.Warn("process polling failed for map item", "filename", item.Filename, "error", "no process handle")
			item.SetStatus(core.StatusFailed)
			continue
		}

		if run.Process.Alive() {
			item.SetStatus(core.StatusRunning)
			continue
		}

		code, ok := run.Process.ExitCode()
		switch {
		case !ok:
			s.logger.Warn(
				"process polling failed for map item",
				"filename", item.Filename, "pid", run.PID, "error", "exit status unavailable",
			)
			item.SetStatus(core.StatusFailed)
		case code != 0:
			item.SetStatus(core.StatusFailed)
		default:
			item.SetStatus(core.StatusFinished)
		}
	}

	if err := s.statusStore.Update(s.id, s.Status(), ""); err != nil {
		s.logger.Warn("cannot update step status", "error", err)
	}
	return nil
}

// RetryFailed resubmits every FAILED item as a new attempt, reusing the
// item's command. The first resubmission failure aborts the pass.
func (s *Step) RetryFailed() error {
	retried := 0
	for _, item := range s.items {
		if item.Status != core.StatusFailed {
			continue
		}
		if err := s.submit(item); err != nil {
			s.logger.Error("cannot retry map item", "filename", item.Filename, "error", err)
			return fmt.Errorf("cannot retry map item %q: %w", item.Filename, err)
		}
		retried++
	}

	if retried > 0 {
		s.logger.Info("failed map items resubmitted", "count", retried)
		if err := s.statusStore.Update(s.id, core.StatusRunning, ""); err != nil {
			s.logger.Warn("cannot update step status", "error", err)
		}
	}
	return nil
}

// Status derives the aggregate step status from all map items.
func (s *Step) Status() core.Status {
	return core.Aggregate(s.items)
}

// SerializeDetail returns the registry in serializable form. Process handles
// are dropped; PIDs survive.
func (s *Step) SerializeDetail() []core.ItemDetail {
	return core.Detail(s.items)
}

// Items exposes the registry for callers that sequence retries.
func (s *Step) Items() []*core.MapItem {
	return s.items
}
