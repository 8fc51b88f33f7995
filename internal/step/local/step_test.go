package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gridflow/gridflow/internal/app"
	"github.com/gridflow/gridflow/internal/shared/logging"
	"github.com/gridflow/gridflow/internal/step/core"
	"github.com/gridflow/gridflow/internal/storage"
	"github.com/gridflow/gridflow/internal/workflow"
)

// fakeHandle is a controllable process handle.
type fakeHandle struct {
	pid      int
	alive    bool
	exitCode int
	exitOK   bool
}

func (h *fakeHandle) PID() int              { return h.pid }
func (h *fakeHandle) Alive() bool           { return h.alive }
func (h *fakeHandle) ExitCode() (int, bool) { return h.exitCode, h.exitOK }

type recordingStore struct {
	statuses []core.Status
}

func (r *recordingStore) Update(_ uuid.UUID, status core.Status, _ string) error {
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *recordingStore) SaveDetail(uuid.UUID, []core.ItemDetail) error {
	return nil
}

func testApp() *app.Application {
	return &app.Application{
		Name: "aligner",
		Inputs: app.ParamList{
			{Name: "reads", Default: ""},
		},
		Parameters: app.ParamList{
			{Name: "output", Default: "out.txt"},
		},
		Definitions: map[string]app.Definition{
			"local": {Script: "run.sh"},
		},
	}
}

type fakeSpawner struct {
	nextPID  int
	handles  []*fakeHandle
	commands []string
	failOn   int // 1-based index of the spawn that fails, 0 for none
}

func (f *fakeSpawner) spawn(command string) (processHandle, error) {
	if f.failOn > 0 && len(f.commands)+1 == f.failOn {
		return nil, errors.New("fork failed")
	}
	f.commands = append(f.commands, command)
	f.nextPID++
	h := &fakeHandle{pid: f.nextPID, alive: true}
	f.handles = append(f.handles, h)
	return h, nil
}

func testStep(t *testing.T, numItems int) (*Step, *fakeSpawner, *recordingStore) {
	t.Helper()

	mapDir := t.TempDir()
	for i := 0; i < numItems; i++ {
		name := fmt.Sprintf("sample-%d.fq", i)
		require.NoError(t, os.WriteFile(filepath.Join(mapDir, name), []byte("x"), 0o644))
	}

	descriptor := &workflow.Step{
		Name:     "align",
		Map:      workflow.MapSpec{URI: mapDir},
		Template: map[string]string{"reads": "${filename}"},
		Execution: workflow.Execution{
			Context: Context,
			Method:  "direct",
		},
	}

	spawner := &fakeSpawner{}
	store := &recordingStore{}
	step := New(
		Config{
			Step:      descriptor,
			App:       testApp(),
			OutputURI: filepath.Join(t.TempDir(), "out"),
		},
		storage.NewLocalManager(),
		store,
		logging.NewNop(),
	)
	step.spawn = spawner.spawn
	return step, spawner, store
}

func TestInitialize_ContextMismatch(t *testing.T) {
	step, _, _ := testStep(t, 1)
	step.step.Execution.Context = "gridengine"

	err := step.Initialize()
	require.True(t, errors.Is(err, core.ErrConfiguration))
}

func TestRun_SpawnsEveryItem(t *testing.T) {
	step, spawner, store := testStep(t, 3)
	require.NoError(t, step.Initialize())

	require.NoError(t, step.Run())

	require.Len(t, spawner.commands, 3)
	require.Contains(t, spawner.commands[0], `--reads="sample-0.fq"`)
	for i, item := range step.Items() {
		require.Equal(t, core.StatusRunning, item.Status)
		require.Equal(t, spawner.handles[i].pid, item.CurrentRun().PID)
	}
	require.Equal(t, core.StatusRunning, store.statuses[len(store.statuses)-1])
}

func TestRun_FailFast(t *testing.T) {
	step, spawner, _ := testStep(t, 3)
	require.NoError(t, step.Initialize())
	spawner.failOn = 2

	err := step.Run()
	require.True(t, errors.Is(err, core.ErrSubmission))

	items := step.Items()
	require.Len(t, items[0].Attempts, 1)
	require.Empty(t, items[1].Attempts)
	require.Empty(t, items[2].Attempts)
}

func TestCheckRunningJobs(t *testing.T) {
	step, spawner, _ := testStep(t, 3)
	require.NoError(t, step.Initialize())
	require.NoError(t, step.Run())

	spawner.handles[0].alive = false
	spawner.handles[0].exitOK = true // exit 0
	spawner.handles[1].alive = false
	spawner.handles[1].exitCode = 2
	spawner.handles[1].exitOK = true
	// handles[2] stays alive

	require.NoError(t, step.CheckRunningJobs())

	items := step.Items()
	require.Equal(t, core.StatusFinished, items[0].Status)
	require.Equal(t, core.StatusFailed, items[1].Status)
	require.Equal(t, core.StatusRunning, items[2].Status)
	require.Equal(t, core.StatusRunning, step.Status())
}

func TestCheckRunningJobs_InspectionFaultIsolation(t *testing.T) {
	step, spawner, _ := testStep(t, 3)
	require.NoError(t, step.Initialize())
	require.NoError(t, step.Run())

	spawner.handles[0].alive = false
	spawner.handles[0].exitOK = true
	// Exit status unavailable for the middle item: inspection failure.
	spawner.handles[1].alive = false
	spawner.handles[1].exitOK = false
	spawner.handles[2].alive = false
	spawner.handles[2].exitOK = true

	require.NoError(t, step.CheckRunningJobs())

	items := step.Items()
	require.Equal(t, core.StatusFinished, items[0].Status)
	require.Equal(t, core.StatusFailed, items[1].Status)
	require.Equal(t, core.StatusFinished, items[2].Status)
	require.Equal(t, core.StatusFailed, step.Status())
}

func TestRetryFailed_ResubmitsFailedItems(t *testing.T) {
	step, spawner, store := testStep(t, 3)
	require.NoError(t, step.Initialize())
	require.NoError(t, step.Run())

	for i, h := range spawner.handles {
		h.alive = false
		h.exitOK = true
		if i == 1 {
			h.exitCode = 1
		}
	}
	require.NoError(t, step.CheckRunningJobs())
	require.Equal(t, core.StatusFailed, step.Items()[1].Status)

	require.NoError(t, step.RetryFailed())

	retried := step.Items()[1]
	require.Len(t, retried.Attempts, 2)
	require.Equal(t, 1, retried.CurrentAttempt)
	require.Equal(t, core.StatusRunning, retried.Status)
	require.Equal(t, core.StatusFailed, retried.Attempts[0].Status)

	// Untouched items keep a single attempt.
	require.Len(t, step.Items()[0].Attempts, 1)
	require.Len(t, step.Items()[2].Attempts, 1)

	require.Equal(t, core.StatusRunning, store.statuses[len(store.statuses)-1])
	require.Equal(t, core.StatusRunning, step.Status())
}

func TestRetryFailed_NoFailedItemsIsNoop(t *testing.T) {
	step, _, store := testStep(t, 2)
	require.NoError(t, step.Initialize())
	require.NoError(t, step.Run())

	updates := len(store.statuses)
	require.NoError(t, step.RetryFailed())
	require.Len(t, store.statuses, updates)
	for _, item := range step.Items() {
		require.Len(t, item.Attempts, 1)
	}
}

func TestSerializeDetail_OmitsProcessHandles(t *testing.T) {
	step, _, _ := testStep(t, 1)
	require.NoError(t, step.Initialize())
	require.NoError(t, step.Run())

	detail := step.SerializeDetail()
	require.Len(t, detail, 1)
	require.Equal(t, core.StatusRunning, detail[0].Status)
	require.NotZero(t, detail[0].Attempts[0].PID)
	require.Empty(t, detail[0].Attempts[0].JobID)
}
