// Package orchestrator drives concurrent job-application attempts: one
// Session (event queue + confirmation gate + cancel signal) per job_key,
// serialized behind a capacity-bounded lease, each running its Apply Worker
// on a dedicated goroutine.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrykgolabek/jobapply/internal/eventbus"
	"github.com/patrykgolabek/jobapply/internal/models"
	"github.com/patrykgolabek/jobapply/internal/platform"
	"github.com/patrykgolabek/jobapply/internal/session"
)

// ErrBusy is returned by Start when the apply-serialization lease cannot be
// acquired immediately (MaxConcurrentApplies attempts already in flight).
var ErrBusy = errors.New("orchestrator is at maximum concurrent applies")

// JobReader is the narrow read port Start needs to run the Dedup Oracle
// check before launching a Worker.
type JobReader interface {
	GetJob(ctx context.Context, jobKey string) (*models.Job, error)
}

// DedupChecker answers whether a job has already been applied to.
type DedupChecker interface {
	IsAlreadyApplied(ctx context.Context, jobKey string) (*models.Job, bool, error)
}

// ResumeResolver picks the resume artifact to submit for a job. Never fails
// - always returns a usable path.
type ResumeResolver interface {
	Resolve(ctx context.Context, jobKey string) string
}

// Handle is returned by Start; callers use it to locate the Session's stream.
type Handle struct {
	JobKey string
}

// Orchestrator is the process-wide coordinator for apply attempts.
type Orchestrator struct {
	registry *session.Registry
	jobs     JobReader
	dedup    DedupChecker
	resumes  ResumeResolver
	worker   *worker
	lease    chan struct{}
	logger   *slog.Logger

	queueCapacity int
	confirmWait   time.Duration
}

// New creates an Orchestrator. maxConcurrent bounds the apply-serialization
// lease (clamped to >= 1 by the caller's Config).
func New(
	registry *session.Registry,
	jobs JobReader,
	dedup DedupChecker,
	resumes ResumeResolver,
	platforms *platform.Registry,
	activity ActivityRecorder,
	jobStatus JobStatusSetter,
	maxConcurrent int,
	queueCapacity int,
	confirmWait time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		registry:      registry,
		jobs:          jobs,
		dedup:         dedup,
		resumes:       resumes,
		worker:        newWorker(platforms, activity, jobStatus, confirmWait, logger),
		lease:         make(chan struct{}, maxConcurrent),
		queueCapacity: queueCapacity,
		confirmWait:   confirmWait,
		logger:        logger,
	}
}

// Start begins (or short-circuits) an apply attempt for jobKey under mode.
// It returns immediately; the Worker runs on its own goroutine.
func (o *Orchestrator) Start(ctx context.Context, jobKey string, mode models.Mode) (Handle, error) {
	if jobKey == "" {
		return Handle{}, errors.New("job_key must not be empty")
	}

	if _, alreadyApplied, err := o.dedup.IsAlreadyApplied(ctx, jobKey); err != nil {
		o.logger.Warn("dedup check failed, proceeding with apply attempt", "job_key", jobKey, "error", err)
	} else if alreadyApplied {
		return o.shortCircuitAlreadyApplied(jobKey, mode)
	}

	select {
	case o.lease <- struct{}{}:
	default:
		return Handle{}, ErrBusy
	}

	sess, err := o.registry.Create(jobKey, mode, o.queueCapacity)
	if err != nil {
		<-o.lease
		return Handle{}, err
	}

	job, err := o.jobs.GetJob(ctx, jobKey)
	if err != nil || job == nil {
		sess.Queue.Push(eventbus.Err(jobKey, fmt.Sprintf("job %s not found", jobKey)))
		sess.Queue.Push(eventbus.Done(jobKey, ""))
		o.registry.Remove(jobKey)
		<-o.lease
		if err != nil {
			return Handle{}, fmt.Errorf("look up job %s: %w", jobKey, err)
		}
		return Handle{}, fmt.Errorf("job %s not found", jobKey)
	}

	resumePath := o.resumes.Resolve(ctx, jobKey)
	go o.runAndCleanup(sess, job, mode, resumePath)

	return Handle{JobKey: jobKey}, nil
}

// shortCircuitAlreadyApplied synthesizes the error+done pair for an
// already-applied job in a fresh Session, deferring registry cleanup to a
// goroutine so a caller that immediately Subscribes still observes the
// Session - matching the same "emitted before or shortly after Start
// returns" guarantee the real Worker path gives.
func (o *Orchestrator) shortCircuitAlreadyApplied(jobKey string, mode models.Mode) (Handle, error) {
	sess, err := o.registry.Create(jobKey, mode, o.queueCapacity)
	if err != nil {
		return Handle{}, err
	}
	sess.Queue.Push(eventbus.Err(jobKey, "already applied to this job"))
	sess.Queue.Push(eventbus.Done(jobKey, "already applied"))
	go func() {
		time.Sleep(50 * time.Millisecond)
		o.registry.Remove(jobKey)
	}()
	return Handle{JobKey: jobKey}, nil
}

func (o *Orchestrator) runAndCleanup(sess *session.Session, job *models.Job, mode models.Mode, resumePath string) {
	defer func() {
		o.registry.Remove(sess.JobKey)
		<-o.lease
	}()
	ctx := context.Background()
	o.worker.run(ctx, job, mode, resumePath, sess.Queue, sess.Gate, sess.Cancel)
}

// Confirm signals jobKey's confirmation gate. Returns false if no Session is
// registered for jobKey.
func (o *Orchestrator) Confirm(jobKey string) bool {
	return o.registry.Confirm(jobKey)
}

// Cancel transitions jobKey's gate to cancelled and raises its cancel
// signal. Returns false if no Session is registered for jobKey.
func (o *Orchestrator) Cancel(jobKey string) bool {
	return o.registry.Cancel(jobKey)
}

// StreamHandle exposes the pieces the Stream Adapter needs from a Session
// without retaining the Session itself past the handler's lifetime.
type StreamHandle struct {
	Queue *eventbus.Queue
}

// Subscribe returns a StreamHandle for jobKey, if a Session exists.
func (o *Orchestrator) Subscribe(jobKey string) (StreamHandle, bool) {
	sess, ok := o.registry.Get(jobKey)
	if !ok {
		return StreamHandle{}, false
	}
	return StreamHandle{Queue: sess.Queue}, true
}
