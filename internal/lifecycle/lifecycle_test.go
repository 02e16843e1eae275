package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "reportfire/errors"
	"reportfire/internal/executor"
	"reportfire/internal/listener"
	"reportfire/internal/lock"
	"reportfire/internal/notify"
	"reportfire/internal/runtime"
	"reportfire/internal/scheduler"
	"reportfire/internal/state"
	"reportfire/internal/store/memory"
	"reportfire/types"
)

type stubSource struct {
	Err  error
	Gate chan struct{}
}

func (s *stubSource) Fetch(ctx context.Context, ownerRef string, windowStart, windowEnd time.Time) (map[string]any, error) {
	if s.Gate != nil {
		<-s.Gate
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return map[string]any{"owner": ownerRef}, nil
}

type harness struct {
	svc     *Service
	records *memory.RecordStore
	monitor *memory.MonitoringStore
	rt      *runtime.TimerRuntime
}

func newHarness(t *testing.T, source *stubSource) *harness {
	t.Helper()

	records := memory.NewRecordStore()
	monitor := memory.NewMonitoringStore()
	locks := lock.NewInProcessLockManager()

	rt := runtime.NewTimerRuntime()
	require.NoError(t, rt.Start(context.Background()))
	t.Cleanup(rt.Stop)

	const family = "test-report"
	require.NoError(t, rt.RegisterListener(family, listener.NewFireCountListener(records, locks)))

	exec := executor.NewService(executor.Config{
		Space:        "test",
		Destination:  "noreply@example.com",
		TemplateType: "plain",
		TempDir:      t.TempDir(),
	}, source, nil, report(t), notify.NoopSender{})

	svc := NewService(family, records, monitor, scheduler.NewService(rt, records), exec, locks)
	return &harness{svc: svc, records: records, monitor: monitor, rt: rt}
}

func report(t *testing.T) *reportStore {
	t.Helper()
	return &reportStore{dir: t.TempDir()}
}

type reportStore struct {
	dir string
}

func (s *reportStore) Upload(ctx context.Context, data []byte, path string) (string, error) {
	return "mem://" + path, nil
}

func newJob(name string, policy types.SchedulePolicy) *types.JobInformation {
	return &types.JobInformation{
		Name:     name,
		OwnerRef: "owner-1",
		Policy:   policy,
	}
}

func waitForLogs(t *testing.T, h *harness, id string, min int) []types.JobLogEntry {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		logs, err := h.svc.Logs(context.Background(), id)
		require.NoError(t, err)
		if len(logs) >= min {
			return logs
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %d log entries", id, min)
	return nil
}

func TestRun_RejectsInvalidPolicyBeforePersisting(t *testing.T) {
	h := newHarness(t, &stubSource{})

	job := newJob("broken", types.SchedulePolicy{})
	_, err := h.svc.Run(context.Background(), job)

	var invalid *errs.InvalidScheduleError
	require.ErrorAs(t, err, &invalid)

	all, err := h.records.GetAll(context.Background(), 1, 100, "")
	require.NoError(t, err)
	assert.Empty(t, all.Items)
}

func TestRun_PersistsSchedulesAndLogsCreation(t *testing.T) {
	h := newHarness(t, &stubSource{})

	job, err := h.svc.Run(context.Background(), newJob("weekly", types.CronSchedule("0 0 9 * * 1")))
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, state.StatusCreated, job.Status)

	got, err := h.svc.Job(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "weekly", got.Name)

	logs := waitForLogs(t, h, job.ID, 1)
	assert.Equal(t, state.LogCreated, logs[0].Status)
}

func TestRun_DuplicateIDRejected(t *testing.T) {
	h := newHarness(t, &stubSource{})

	job := newJob("first", types.CronSchedule("0 0 9 * * 1"))
	_, err := h.svc.Run(context.Background(), job)
	require.NoError(t, err)

	dup := newJob("second", types.CronSchedule("0 0 9 * * 1"))
	dup.ID = job.ID
	_, err = h.svc.Run(context.Background(), dup)

	var exists *errs.AlreadyExistsError
	require.ErrorAs(t, err, &exists)

	got, err := h.records.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
}

func TestFireCountJob_RunsAndLogsSuccess(t *testing.T) {
	h := newHarness(t, &stubSource{})

	job, err := h.svc.Run(context.Background(), newJob("burst", types.FireCountSchedule(2, 30*time.Millisecond, 0)))
	require.NoError(t, err)

	logs := waitForLogs(t, h, job.ID, 3)

	var successes int
	for _, entry := range logs {
		if entry.Status == state.LogSuccess {
			successes++
			assert.NotEmpty(t, entry.Data["reportUrl"])
		}
	}
	assert.GreaterOrEqual(t, successes, 2)

	got, err := h.records.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StatusRunning, got.Status)
	assert.Equal(t, 0, got.Policy.FireCount.Remaining)
}

func TestFailedExecution_MarksJobFailed(t *testing.T) {
	h := newHarness(t, &stubSource{Err: errors.New("warehouse down")})

	job, err := h.svc.Run(context.Background(), newJob("doomed", types.FireCountSchedule(1, 20*time.Millisecond, 0)))
	require.NoError(t, err)

	logs := waitForLogs(t, h, job.ID, 2)
	assert.Equal(t, state.LogError, logs[len(logs)-1].Status)

	got, err := h.records.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailed, got.Status)
}

func TestStopAndRestart(t *testing.T) {
	h := newHarness(t, &stubSource{})

	job, err := h.svc.Run(context.Background(), newJob("pausable", types.RunForeverSchedule(25*time.Millisecond, 0)))
	require.NoError(t, err)

	waitForLogs(t, h, job.ID, 2)
	require.NoError(t, h.svc.Stop(context.Background(), job.ID))

	got, err := h.records.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StatusStopped, got.Status)

	st, err := h.svc.sched.TriggerState(job.ID, h.svc.family)
	require.NoError(t, err)
	assert.Equal(t, runtime.StatePaused, st)

	require.NoError(t, h.svc.Restart(context.Background(), job.ID))
	got, err = h.records.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StatusRestarted, got.Status)

	before := len(waitForLogs(t, h, job.ID, 1))
	waitForLogs(t, h, job.ID, before+1)
}

func TestStop_UnknownJob(t *testing.T) {
	h := newHarness(t, &stubSource{})

	err := h.svc.Stop(context.Background(), "no-such-job")
	assert.True(t, errs.IsNotFound(err))
}

func TestStop_AlreadyStopped(t *testing.T) {
	h := newHarness(t, &stubSource{})

	job, err := h.svc.Run(context.Background(), newJob("twice", types.CronSchedule("0 0 9 * * 1")))
	require.NoError(t, err)
	require.NoError(t, h.svc.Stop(context.Background(), job.ID))

	assert.Error(t, h.svc.Stop(context.Background(), job.ID))
}

func TestDelete_RemovesRecordAndLogsDeletion(t *testing.T) {
	h := newHarness(t, &stubSource{})

	job, err := h.svc.Run(context.Background(), newJob("ephemeral", types.CronSchedule("0 0 9 * * 1")))
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(context.Background(), job.ID))

	_, err = h.records.Get(context.Background(), job.ID)
	assert.True(t, errs.IsNotFound(err))

	logs := waitForLogs(t, h, job.ID, 2)
	assert.Equal(t, state.LogDeleted, logs[len(logs)-1].Status)

	_, err = h.svc.Job(context.Background(), job.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestDelete_UnknownJobLeavesNoLog(t *testing.T) {
	h := newHarness(t, &stubSource{})

	err := h.svc.Delete(context.Background(), "phantom")
	assert.True(t, errs.IsNotFound(err))

	logs, err := h.svc.Logs(context.Background(), "phantom")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestExecuteNow_MissingRecord(t *testing.T) {
	h := newHarness(t, &stubSource{})

	err := h.svc.ExecuteNow(context.Background(), "gone")

	var execErr *errs.JobExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "gone", execErr.JobID)
}

func TestExecuteNow_JobDeletedMidFlight(t *testing.T) {
	source := &stubSource{Gate: make(chan struct{})}
	h := newHarness(t, source)

	job, err := h.svc.Run(context.Background(), newJob("racer", types.CronSchedule("0 0 9 * * 1")))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- h.svc.ExecuteNow(context.Background(), job.ID)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, h.svc.Delete(context.Background(), job.ID))
	close(source.Gate)

	require.NoError(t, <-done)

	_, err = h.records.Get(context.Background(), job.ID)
	assert.True(t, errs.IsNotFound(err))

	logs := waitForLogs(t, h, job.ID, 3)
	assert.Equal(t, state.LogSuccess, logs[len(logs)-1].Status)
}
