package gridengine

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
const Context = "gridengine"

// Step runs one workflow step by submitting a scheduler job per map item.
// It owns its map-item registry; callers must not invoke Run,
// CheckRunningJobs, or RetryFailed concurrently on the same instance.
type Step struct {
	id          uuid.UUID
	step        *workflow.Step
	application *app.Application
	outputURI   uri.URI
	mapURI      uri.URI
	clean       bool

	driver      Driver
	store       storage.Manager
	statusStore core.StatusStore
	logger      logging.Logger

	items   []*core.MapItem
	builder core.CommandBuilder
}

// Config carries the step descriptor, app definition, and output location.
type Config struct {
	Step      *workflow.Step
	App       *app.Application
	OutputURI string
	Clean     bool
}

func New(cfg Config, driver Driver, store storage.Manager, statusStore core.StatusStore, logger logging.Logger) *Step {
	id := uuid.New()
	return &Step{
		id:          id,
		step:        cfg.Step,
		application: cfg.App,
		clean:       cfg.Clean,
		driver:      driver,
		store:       store,
		statusStore: statusStore,
		logger:      logger.With("step", cfg.Step.Name, "step_id", id.String()),
		outputURI:   mustParse(cfg.OutputURI),
		mapURI:      mustParse(cfg.Step.Map.URI),
	}
}

func mustParse(raw string) uri.URI {
	parsed, err := uri.Parse(raw)
	if err != nil {
		// Initialize reports the addressing error; keep the raw string so the
		// message names the offending location.
		return uri.URI{Path: raw}
	}
	return parsed
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
			"%w: gridengine step requires a %q execution context, got %q",
			core.ErrConfiguration, Context, s.step.Execution.Context,
		)
	}

	// The local definition is required even here: the scheduler invokes the
	// same script remotely.
	def, ok := s.application.LocalDefinition()
	if !ok {
		return fmt.Errorf(
			"%w: gridengine step requires an app with a %q definition",
			core.ErrConfiguration, "local",
		)
	}

	if s.outputURI.Scheme == "" {
		return fmt.Errorf("%w: invalid output location %q", core.ErrAddressing, s.outputURI.Path)
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

// Run submits one scheduler job per map item, in registry order. The first
// submission failure aborts the whole step.
func (s *Step) Run() error {
	for _, item := range s.items {
		if err := s.submit(item); err != nil {
			s.logger.Error("cannot run job for map item", "filename", item.Filename, "error", err)
			return fmt.Errorf("cannot run job for map item %q: %w", item.Filename, err)
		}
	}

	if err := s.statusStore.Update(s.id, core.StatusRunning, ""); err != nil {
		s.logger.Warn("cannot update step status", "error", err)
	}
	return nil
}

func (s *Step) submit(item *core.MapItem) error {
	cmd := s.builder.Build(item)
	s.logger.Debug("submitting command", "filename", item.Filename, "command", cmd)

	jt := s.driver.NewTemplate()
	jt.RemoteCommand = cmd
	// -V forwards the submitting environment to the job.
	jt.NativeSpecification = "-V " + s.step.Execution.Parameters

	jobID, err := s.driver.Submit(jt)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrSubmission, err)
	}
	if err := s.driver.DeleteTemplate(jt); err != nil {
		s.logger.Warn("cannot delete job template", "job_id", jobID, "error", err)
	}

	item.AppendRun(&core.Run{JobID: jobID})
	item.SetStatus(core.StatusRunning)

	s.logger.Info("job submitted", "filename", item.Filename, "job_id", jobID, "attempt", item.CurrentAttempt)
	return nil
}

// CheckRunningJobs reconciles every map item's current attempt with the
// scheduler-observed job state. Inspection failures are isolated per item:
// the item is marked FAILED with a warning and the sweep continues.
func (s *Step) CheckRunningJobs() error {
	for _, item := range s.items {
		run := item.CurrentRun()
		if run == nil {
			continue
		}

		state, err := s.driver.JobState(run.JobID)
		if err != nil {
			s.logger.Warn(
				"job polling failed for map item",
				"filename", item.Filename, "job_id", run.JobID, "error", err,
			)
			item.SetStatus(core.StatusFailed)
			continue
		}

		switch state {
		case JobStateRunning:
			item.SetStatus(core.StatusRunning)
		case JobStateFailed:
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

// RetryFailed reports that resubmission is not available for this variant.
// Grid Engine gives no duplicate-submission guard, so a blind resubmit could
// repeat side effects of a partially completed job.
func (s *Step) RetryFailed() error {
	err := fmt.Errorf("%w: retry is not available for gridengine steps", core.ErrUnsupported)
	s.logger.Error("cannot retry failed map items", "error", err)
	return err
}

// Status derives the aggregate step status from all map items.
func (s *Step) Status() core.Status {
	return core.Aggregate(s.items)
}

// SerializeDetail returns the registry in serializable form.
func (s *Step) SerializeDetail() []core.ItemDetail {
	return core.Detail(s.items)
}

// Items exposes the registry for callers that sequence retries.
func (s *Step) Items() []*core.MapItem {
	return s.items
}
