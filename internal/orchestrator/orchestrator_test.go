package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrykgolabek/jobapply/internal/models"
	"github.com/patrykgolabek/jobapply/internal/platform"
	"github.com/patrykgolabek/jobapply/internal/session"
)

type fakeJobs struct {
	jobs map[string]*models.Job
}

func (f *fakeJobs) GetJob(_ context.Context, jobKey string) (*models.Job, error) {
	return f.jobs[jobKey], nil
}

type fakeDedup struct {
	applied map[string]bool
}

func (f *fakeDedup) IsAlreadyApplied(_ context.Context, jobKey string) (*models.Job, bool, error) {
	if f.applied[jobKey] {
		return &models.Job{Key: jobKey, Status: "applied"}, true, nil
	}
	return nil, false, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, _ string) string { return "/tmp/resume.pdf" }

type fakeActivity struct{}

func (fakeActivity) RecordActivity(_ context.Context, _, _, _ string) error { return nil }

type fakeJobStatus struct{}

func (fakeJobStatus) SetJobStatus(_ context.Context, _, _ string) error { return nil }

type fakeAPIPlatform struct {
	applyErr error
}

func (f *fakeAPIPlatform) Init(_ context.Context) error { return nil }
func (f *fakeAPIPlatform) Search(_ context.Context, _ string) ([]models.Job, error) {
	return nil, nil
}
func (f *fakeAPIPlatform) GetJobDetails(_ context.Context, jobKey string) (*models.Job, error) {
	return &models.Job{Key: jobKey}, nil
}
func (f *fakeAPIPlatform) Apply(_ context.Context, _ *models.Job, _, _ string) error {
	return f.applyErr
}
func (f *fakeAPIPlatform) Acquire(_ context.Context) error { return nil }
func (f *fakeAPIPlatform) Release()                        {}

func newTestOrchestrator(t *testing.T, jobs map[string]*models.Job, applied map[string]bool, maxConcurrent int) (*Orchestrator, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry()
	platforms := platform.NewRegistry()
	require.NoError(t, platforms.RegisterApiPlatform("testats", "Test ATS", nil, func() platform.ApiPlatform {
		return &fakeAPIPlatform{}
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := New(registry, &fakeJobs{jobs: jobs}, &fakeDedup{applied: applied}, fakeResolver{}, platforms,
		fakeActivity{}, fakeJobStatus{}, maxConcurrent, 32, 200*time.Millisecond, logger)
	return orch, registry
}

func drainUntilDone(t *testing.T, handle StreamHandle, timeout time.Duration) []string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var types []string
	for time.Now().Before(deadline) {
		for _, e := range handle.Queue.Drain() {
			types = append(types, string(e.Type))
			if e.IsTerminal() {
				return types
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for terminal event")
	return nil
}

func TestOrchestrator_AlreadyAppliedShortCircuits(t *testing.T) {
	orch, _ := newTestOrchestrator(t, map[string]*models.Job{
		"job-1": {Key: "job-1", Platform: "testats"},
	}, map[string]bool{"job-1": true}, 1)

	_, err := orch.Start(context.Background(), "job-1", models.ModeFullAuto)
	require.NoError(t, err)

	handle, ok := orch.Subscribe("job-1")
	require.True(t, ok)

	types := drainUntilDone(t, handle, time.Second)
	require.Contains(t, types, "error")
	assert.Equal(t, "done", types[len(types)-1])
}

func TestOrchestrator_HappyPath_FullAuto(t *testing.T) {
	orch, _ := newTestOrchestrator(t, map[string]*models.Job{
		"job-2": {Key: "job-2", Platform: "testats"},
	}, map[string]bool{}, 1)

	_, err := orch.Start(context.Background(), "job-2", models.ModeFullAuto)
	require.NoError(t, err)

	handle, ok := orch.Subscribe("job-2")
	require.True(t, ok)

	types := drainUntilDone(t, handle, time.Second)
	assert.Equal(t, "done", types[len(types)-1])
	assert.NotContains(t, types, "error")
}

func TestOrchestrator_DuplicateStartRejected(t *testing.T) {
	orch, registry := newTestOrchestrator(t, map[string]*models.Job{
		"job-3": {Key: "job-3", Platform: "testats"},
	}, map[string]bool{}, 1)

	// Pre-register a session to simulate an in-flight apply.
	_, err := registry.Create("job-3", models.ModeFullAuto, 32)
	require.NoError(t, err)

	_, err = orch.Start(context.Background(), "job-3", models.ModeFullAuto)
	assert.ErrorIs(t, err, session.ErrAlreadyInProgress)
}

func TestOrchestrator_BusyWhenLeaseExhausted(t *testing.T) {
	orch, registry := newTestOrchestrator(t, map[string]*models.Job{
		"job-4": {Key: "job-4", Platform: "testats"},
		"job-5": {Key: "job-5", Platform: "testats"},
	}, map[string]bool{}, 1)

	// Occupy the lease manually without going through Start/registry cleanup.
	select {
	case orch.lease <- struct{}{}:
	default:
		t.Fatal("expected to acquire lease")
	}
	defer func() { <-orch.lease }()

	_, err := orch.Start(context.Background(), "job-5", models.ModeFullAuto)
	assert.ErrorIs(t, err, ErrBusy)
	_ = registry
}

func TestOrchestrator_ConfirmAndCancelAreIdempotent(t *testing.T) {
	registry := session.NewRegistry()
	sess, err := registry.Create("job-6", models.ModeSemiAuto, 32)
	require.NoError(t, err)

	assert.True(t, registry.Confirm("job-6"))
	assert.True(t, registry.Confirm("job-6")) // second call is a harmless no-op
	assert.Equal(t, 1, int(sess.Gate.State()))

	assert.False(t, registry.Cancel("nonexistent"))
}
