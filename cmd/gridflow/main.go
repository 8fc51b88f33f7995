package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridflow/gridflow/internal/app"
	"github.com/gridflow/gridflow/internal/shared/config"
	"github.com/gridflow/gridflow/internal/shared/logging"
	"github.com/gridflow/gridflow/internal/statusstore"
	"github.com/gridflow/gridflow/internal/step"
	"github.com/gridflow/gridflow/internal/step/core"
	"github.com/gridflow/gridflow/internal/step/gridengine/qcli"
	"github.com/gridflow/gridflow/internal/storage"
	"github.com/gridflow/gridflow/internal/workflow"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to engine config file")
		appPath    = flag.String("app", "", "path to the application definition")
		stepPath   = flag.String("step", "", "path to the step definition")
		outputURI  = flag.String("output", "", "step output location")
		clean      = flag.Bool("clean", false, "delete the output location before running")
		retry      = flag.Bool("retry", false, "resubmit failed map items once, if the context supports it")
	)
	flag.Parse()

	if *appPath == "" || *stepPath == "" || *outputURI == "" {
		slog.Error("the -app, -step, and -output flags are required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.Load(*appPath)
	if err != nil {
		logger.Error("Failed to load application definition", "error", err)
		os.Exit(1)
	}

	descriptor, err := workflow.LoadStep(*stepPath)
	if err != nil {
		logger.Error("Failed to load step definition", "error", err)
		os.Exit(1)
	}

	driver, err := qcli.New(cfg.Scheduler, logger)
	if err != nil {
		logger.Error("Failed to create scheduler driver", "error", err)
		os.Exit(1)
	}

	store := statusstore.NewInMemoryStore()
	runner, err := step.New(descriptor, application, *outputURI, *clean, step.Deps{
		Driver:      driver,
		Storage:     storage.NewLocalManager(),
		StatusStore: store,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("Failed to create step", "error", err)
		os.Exit(1)
	}

	if err := runner.Initialize(); err != nil {
		logger.Error("Failed to initialize step", "error", err)
		os.Exit(1)
	}
	if err := runner.Run(); err != nil {
		logger.Error("Failed to run step", "error", err)
		os.Exit(1)
	}

	status := poll(runner, cfg.Poll.Interval, logger)

	if status == core.StatusFailed && *retry {
		if err := runner.RetryFailed(); err != nil {
			logger.Error("Failed to retry failed map items", "error", err)
		} else {
			status = poll(runner, cfg.Poll.Interval, logger)
		}
	}

	detail := runner.SerializeDetail()
	if err := store.SaveDetail(runner.ID(), detail); err != nil {
		logger.Warn("Failed to save step detail", "error", err)
	}
	out, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		logger.Error("Failed to serialize step detail", "error", err)
		os.Exit(1)
	}
	os.Stdout.Write(append(out, '\n'))

	if status != core.StatusFinished {
		logger.Error("Step did not finish", "status", string(status))
		os.Exit(1)
	}
	logger.Info("Step finished")
}

// poll drives the reconciliation loop until the step reaches a terminal
// aggregate status or the process is interrupted.
func poll(runner core.Runner, interval time.Duration, logger logging.Logger) core.Status {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			logger.Warn("Interrupted; leaving submitted jobs to the scheduler")
			return runner.Status()
		case <-ticker.C:
			if err := runner.CheckRunningJobs(); err != nil {
				logger.Warn("Polling sweep failed", "error", err)
				continue
			}
			status := runner.Status()
			logger.Debug("Polled step status", "status", string(status))
			if status.Terminal() {
				return status
			}
		}
	}
}
