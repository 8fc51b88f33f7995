// Package qcli implements the gridengine.Driver contract over the Grid
// Engine command-line tools: qsub for submission, qstat for liveness, and
// qacct for exit-status classification.
package qcli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gridflow/gridflow/internal/shared/config"
	"github.com/gridflow/gridflow/internal/shared/logging"
	"github.com/gridflow/gridflow/internal/step/core"
	"github.com/gridflow/gridflow/internal/step/gridengine"
)

// Driver shells out to the scheduler's CLI tools. Each submission writes the
// remote command to a generated job script so quoting survives the scheduler
// boundary.
type Driver struct {
	qsub      string
	qstat     string
	qacct     string
	scriptDir string
	logger    logging.Logger
}

func New(cfg config.SchedulerConfig, logger logging.Logger) (*Driver, error) {
	scriptDir := cfg.ScriptDir
	if scriptDir == "" {
		dir, err := os.MkdirTemp("", "gridflow-scripts-")
		if err != nil {
			return nil, fmt.Errorf("cannot create job script directory: %w", err)
		}
		scriptDir = dir
	}
	return &Driver{
		qsub:      cfg.QsubPath,
		qstat:     cfg.QstatPath,
		qacct:     cfg.QacctPath,
		scriptDir: scriptDir,
		logger:    logger,
	}, nil
}

func (d *Driver) NewTemplate() *gridengine.Template {
	return &gridengine.Template{}
}

// Submit writes the template's remote command to a job script and submits it
// with qsub -terse, returning the printed job ID.
func (d *Driver) Submit(t *gridengine.Template) (string, error) {
	script, err := d.writeScript(t.RemoteCommand)
	if err != nil {
		return "", err
	}

	args := []string{"-terse"}
	args = append(args, strings.Fields(t.NativeSpecification)...)
	args = append(args, script)

	out, err := exec.Command(d.qsub, args...).Output()
	if err != nil {
		return "", fmt.Errorf("qsub failed: %w", err)
	}

	jobID := strings.TrimSpace(string(out))
	if jobID == "" {
		return "", fmt.Errorf("qsub returned no job id")
	}
	// Array submissions print "<id>.<first>-<last>:<step>"; the job id is
	// the leading numeric part.
	jobID, _, _ = strings.Cut(jobID, ".")
	return jobID, nil
}

// DeleteTemplate removes the job script generated for the template. The
// submission itself has already been handed to the scheduler.
func (d *Driver) DeleteTemplate(t *gridengine.Template) error {
	if t.RemoteCommand == "" {
		return nil
	}
	return os.Remove(d.scriptPath(t.RemoteCommand))
}

// JobState classifies a job by probing qstat first and falling back to the
// accounting file. A job qstat still knows about is running or queued; once
// it leaves the queue, qacct's exit_status and failed fields decide.
func (d *Driver) JobState(jobID string) (gridengine.JobState, error) {
	if err := exec.Command(d.qstat, "-j", jobID).Run(); err == nil {
		return gridengine.JobStateRunning, nil
	} else if _, ok := err.(*exec.ExitError); !ok {
		return "", fmt.Errorf("%w: qstat failed for job %s: %w", core.ErrInspection, jobID, err)
	}

	out, err := exec.Command(d.qacct, "-j", jobID).Output()
	if err != nil {
		// Accounting records can lag behind queue removal; the caller treats
		// this as an inspection failure for the item.
		return "", fmt.Errorf("%w: qacct failed for job %s: %w", core.ErrInspection, jobID, err)
	}

	exitStatus, failed, err := parseAccounting(string(out))
	if err != nil {
		return "", fmt.Errorf("%w: cannot parse accounting for job %s: %w", core.ErrInspection, jobID, err)
	}
	if exitStatus != 0 || failed != 0 {
		return gridengine.JobStateFailed, nil
	}
	return gridengine.JobStateDone, nil
}

func (d *Driver) writeScript(command string) (string, error) {
	path := d.scriptPath(command)
	content := "#!/bin/sh\n" + command + "\n"
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return "", fmt.Errorf("cannot write job script %s: %w", path, err)
	}
	d.logger.Debug("job script written", "path", path)
	return path, nil
}

func (d *Driver) scriptPath(command string) string {
	return filepath.Join(d.scriptDir, fmt.Sprintf("job-%08x.sh", scriptHash(command)))
}

func scriptHash(command string) uint32 {
	// FNV-1a, inlined to keep the script name stable across processes.
	var h uint32 = 2166136261
	for i := 0; i < len(command); i++ {
		h ^= uint32(command[i])
		h *= 16777619
	}
	return h
}

func parseAccounting(report string) (exitStatus, failed int, err error) {
	exitStatus, failed = -1, -1
	for _, line := range strings.Split(report, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "exit_status":
			exitStatus, err = strconv.Atoi(fields[1])
		case "failed":
			failed, err = strconv.Atoi(fields[1])
		}
		if err != nil {
			return 0, 0, err
		}
	}
	if exitStatus < 0 || failed < 0 {
		return 0, 0, fmt.Errorf("accounting report is missing exit_status or failed")
	}
	return exitStatus, failed, nil
}
