package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrykgolabek/jobapply/internal/confirm"
	"github.com/patrykgolabek/jobapply/internal/eventbus"
	"github.com/patrykgolabek/jobapply/internal/models"
	"github.com/patrykgolabek/jobapply/internal/platform"
)

// ActivityRecorder is the narrow write port the Worker needs from the
// Activity Log.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, jobKey, eventType, detail string) error
}

// JobStatusSetter lets the Worker record a successful terminal submission.
// Failed submissions never call this - job status is left untouched on
// failure, per the apply-failure semantics.
type JobStatusSetter interface {
	SetJobStatus(ctx context.Context, jobKey, status string) error
}

// worker runs one job application attempt end to end on a dedicated
// goroutine, emitting Events onto the Session's Queue and always finishing
// with exactly one Done event.
type worker struct {
	registry    *platform.Registry
	activity    ActivityRecorder
	jobStatus   JobStatusSetter
	confirmWait time.Duration
	logger      *slog.Logger
}

func newWorker(registry *platform.Registry, activity ActivityRecorder, jobStatus JobStatusSetter, confirmWait time.Duration, logger *slog.Logger) *worker {
	return &worker{registry: registry, activity: activity, jobStatus: jobStatus, confirmWait: confirmWait, logger: logger}
}

// run executes stages 1-5 of the Apply Worker (SPEC_FULL.md §4.2) for job
// under the given Session, emitting events and always finishing in exactly
// one Done event before returning.
func (w *worker) run(ctx context.Context, job *models.Job, mode models.Mode, resumePath string, queue *eventbus.Queue, gate *confirm.Gate, cancel *confirm.CancelSignal) {
	var outcome string
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("apply worker panicked", "job_key", job.Key, "panic", r)
			queue.Push(eventbus.Err(job.Key, fmt.Sprintf("internal error: %v", r)))
			outcome = "apply_failed"
		}
		if outcome == "" {
			outcome = "apply_failed"
		}
		if err := w.activity.RecordActivity(ctx, job.Key, outcome, ""); err != nil {
			w.logger.Warn("failed to record activity", "job_key", job.Key, "error", err)
		}
		if !queueHasTerminal(queue) {
			queue.Push(eventbus.Done(job.Key, ""))
		}
	}()

	queue.Push(eventbus.Progress(job.Key, "Resolving platform adapter..."))
	entry, err := w.registry.Lookup(job.Platform)
	if err != nil {
		queue.Push(eventbus.Err(job.Key, fmt.Sprintf("unknown platform %q", job.Platform)))
		return
	}

	switch entry.Kind {
	case platform.KindAPI:
		outcome = w.runAPIBranch(ctx, entry, job, mode, resumePath, queue, gate, cancel)
	case platform.KindBrowser:
		outcome = w.runBrowserBranch(ctx, entry, job, mode, resumePath, queue, gate, cancel)
	default:
		queue.Push(eventbus.Err(job.Key, fmt.Sprintf("platform %q has unrecognized kind", job.Platform)))
		outcome = "apply_failed"
	}
}

func (w *worker) runAPIBranch(ctx context.Context, entry *platform.Entry, job *models.Job, mode models.Mode, resumePath string, queue *eventbus.Queue, gate *confirm.Gate, cancel *confirm.CancelSignal) string {
	adapter := entry.NewApiPlatform()
	if err := adapter.Acquire(ctx); err != nil {
		queue.Push(eventbus.Err(job.Key, fmt.Sprintf("failed to acquire platform resource: %v", err)))
		return "apply_failed"
	}
	defer adapter.Release()

	if err := adapter.Init(ctx); err != nil {
		queue.Push(eventbus.Err(job.Key, fmt.Sprintf("failed to initialize platform adapter: %v", err)))
		return "apply_failed"
	}

	if !w.awaitConfirmation(ctx, job.Key, mode, queue, gate, cancel) {
		return "apply_failed"
	}

	queue.Push(eventbus.Progress(job.Key, "Submitting application via platform API..."))
	if err := adapter.Apply(ctx, job, resumePath, ""); err != nil {
		queue.Push(eventbus.Err(job.Key, fmt.Sprintf("application submission failed: %v", err)))
		return "apply_failed"
	}

	return w.finishSuccess(ctx, job, queue)
}

func (w *worker) runBrowserBranch(ctx context.Context, entry *platform.Entry, job *models.Job, mode models.Mode, resumePath string, queue *eventbus.Queue, gate *confirm.Gate, cancel *confirm.CancelSignal) string {
	adapter := entry.NewBrowserPlatform()
	if err := adapter.Acquire(ctx); err != nil {
		queue.Push(eventbus.Err(job.Key, fmt.Sprintf("failed to acquire browser context: %v", err)))
		return "apply_failed"
	}
	defer adapter.Release()

	queue.Push(eventbus.Progress(job.Key, "Checking authentication state..."))
	loggedIn, err := adapter.IsLoggedIn(ctx)
	if err != nil {
		queue.Push(eventbus.Err(job.Key, fmt.Sprintf("failed to check login state: %v", err)))
		return "apply_failed"
	}
	if !loggedIn {
		queue.Push(eventbus.Progress(job.Key, "Logging in..."))
		if err := adapter.Login(ctx); err != nil {
			queue.Push(eventbus.Err(job.Key, fmt.Sprintf("login failed: %v", err)))
			return "apply_failed"
		}
	}

	if mode == models.ModeEasyApplyOnly && !job.EasyApply {
		queue.Push(eventbus.Err(job.Key, "job does not support easy apply and mode is easy_apply_only"))
		return "apply_failed"
	}

	queue.Push(eventbus.Progress(job.Key, "Loading job posting..."))
	if _, err := adapter.GetJobDetails(ctx, job.Key); err != nil {
		w.logger.Warn("failed to refresh job details before apply", "job_key", job.Key, "error", err)
	}

	if path, err := adapter.Screenshot(ctx, "pre-submit"); err == nil {
		ev := eventbus.Progress(job.Key, "Captured pre-submit screenshot")
		ev.ScreenshotPath = path
		queue.Push(ev)
	}

	if !w.awaitConfirmation(ctx, job.Key, mode, queue, gate, cancel) {
		return "apply_failed"
	}

	queue.Push(eventbus.Progress(job.Key, "Submitting application..."))
	if err := adapter.Apply(ctx, job, resumePath, ""); err != nil {
		queue.Push(eventbus.Err(job.Key, fmt.Sprintf("application submission failed: %v", err)))
		return "apply_failed"
	}

	return w.finishSuccess(ctx, job, queue)
}

// awaitConfirmation enforces stage 4 of the Apply Worker and is the
// checkpoint right before submission: full_auto mode proceeds without
// waiting, semi_auto/easy_apply_only modes block on the Session's
// confirmation gate. It runs before the adapter's Apply, so the form has
// not been filled yet while the gate is open. Returns false if the Session
// was cancelled (having emitted a Done whose message says so) or the gate
// timed out (having emitted an error).
func (w *worker) awaitConfirmation(ctx context.Context, jobKey string, mode models.Mode, queue *eventbus.Queue, gate *confirm.Gate, cancel *confirm.CancelSignal) bool {
	state := confirm.ConfirmedState
	if mode != models.ModeFullAuto {
		queue.Push(eventbus.AwaitingConfirm(jobKey, "Confirm to fill and submit the application."))
		state = gate.Wait(ctx, cancel, w.confirmWait)
	}
	if cancel.Raised() || gate.State() == confirm.CancelledState {
		queue.Push(eventbus.Done(jobKey, "Application cancelled by user."))
		return false
	}
	if state != confirm.ConfirmedState {
		queue.Push(eventbus.Err(jobKey, "timed out waiting for confirmation"))
		return false
	}
	if mode != models.ModeFullAuto {
		queue.Push(eventbus.Confirmed(jobKey, "Submission confirmed."))
	}
	return true
}

func (w *worker) finishSuccess(ctx context.Context, job *models.Job, queue *eventbus.Queue) string {
	if err := w.jobStatus.SetJobStatus(ctx, job.Key, "applied"); err != nil {
		w.logger.Warn("failed to persist applied status", "job_key", job.Key, "error", err)
	}
	queue.Push(eventbus.Done(job.Key, "Application submitted."))
	return "apply_completed"
}

func queueHasTerminal(q *eventbus.Queue) bool {
	return q.Closed()
}
