package local

import (
	"errors"
	"os/exec"
	"sync"
)

// procHandle wraps one spawned shell command. A reaper goroutine collects
// the exit status as soon as the process ends; it touches only this handle's
// own state, never the step registry.
type procHandle struct {
	cmd *exec.Cmd

	mu       sync.Mutex
	finished bool
	exitCode int
	waitErr  error
}

// startProcess launches command through the shell and begins reaping it.
func startProcess(command string) (*procHandle, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	h := &procHandle{cmd: cmd}
	go h.reap()
	return h, nil
}

func (h *procHandle) reap() {
	err := h.cmd.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished = true
	if err == nil {
		h.exitCode = 0
		return
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		h.exitCode = exitErr.ExitCode()
		return
	}
	// Wait itself failed; the exit code is unavailable.
	h.waitErr = err
}

// PID returns the spawned process ID.
func (h *procHandle) PID() int {
	return h.cmd.Process.Pid
}

// Alive reports whether the process is still running.
func (h *procHandle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.finished
}

// ExitCode returns the collected exit code. ok is false while the process is
// running or when the status could not be collected.
func (h *procHandle) ExitCode() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.finished || h.waitErr != nil {
		return 0, false
	}
	return h.exitCode, true
}
