package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/patrykgolabek/jobapply/internal/cover"
	"github.com/patrykgolabek/jobapply/internal/models"
	"github.com/patrykgolabek/jobapply/internal/resume"
	"github.com/patrykgolabek/jobapply/internal/session"
)

// JobReader is the narrow read port the tailoring handlers need.
type JobReader interface {
	GetJob(ctx context.Context, jobKey string) (*models.Job, error)
}

// ResumeHandler exposes the resume-tailoring Pipeline over HTTP. It keeps its
// own Session Registry, separate from the apply Orchestrator's, so a
// resume-tailor run and an apply run can be in flight for the same job key at
// once without colliding on the registry's one-session-per-key invariant.
type ResumeHandler struct {
	registry    *session.Registry
	pipeline    *resume.Pipeline
	jobs        JobReader
	resumePath  string
	candidate   models.CandidateProfile
	queueCap    int
	keepalive   time.Duration
	logger      *slog.Logger
}

// NewResumeHandler creates a ResumeHandler.
func NewResumeHandler(pipeline *resume.Pipeline, jobs JobReader, resumePath string, candidate models.CandidateProfile, queueCap int, keepalive time.Duration, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{
		registry:   session.NewRegistry(),
		pipeline:   pipeline,
		jobs:       jobs,
		resumePath: resumePath,
		candidate:  candidate,
		queueCap:   queueCap,
		keepalive:  keepalive,
		logger:     logger,
	}
}

// StartTailorOutput is the output of StartTailor.
type StartTailorOutput struct {
	Body struct {
		JobKey string `json:"job_key"`
	}
}

// StartTailor begins a resume-tailoring run for a job key.
func (h *ResumeHandler) StartTailor(ctx context.Context, input *JobKeyInput) (*StartTailorOutput, error) {
	job, err := h.jobs.GetJob(ctx, input.Key)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to look up job: " + err.Error())
	}
	if job == nil {
		return nil, huma.Error404NotFound("job not found")
	}

	sess, err := h.registry.Create(input.Key, models.ModeFullAuto, h.queueCap)
	if err != nil {
		return nil, huma.Error409Conflict("a resume-tailor run is already in progress for this job key")
	}

	contactInfo := h.candidate.Email + " | " + h.candidate.Phone
	candidateName := h.candidate.FirstName + " " + h.candidate.LastName
	go func() {
		defer h.registry.Remove(input.Key)
		h.pipeline.Run(context.Background(), input.Key, job, h.resumePath, candidateName, contactInfo, sess.Queue)
	}()

	out := &StartTailorOutput{}
	out.Body.JobKey = input.Key
	return out, nil
}

// StreamTailor is a raw HTTP handler serving the resume-tailor SSE stream.
func (h *ResumeHandler) StreamTailor(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	sess, ok := h.registry.Get(key)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no resume-tailor run in progress for this job key")
		return
	}
	streamQueue(w, r, sess.Queue, h.keepalive, h.logger)
}

// CoverHandler exposes the cover-letter Pipeline over HTTP, mirroring
// ResumeHandler with its own independent Session Registry.
type CoverHandler struct {
	registry   *session.Registry
	pipeline   *cover.Pipeline
	jobs       JobReader
	resumePath string
	candidate  models.CandidateProfile
	queueCap   int
	keepalive  time.Duration
	logger     *slog.Logger
}

// NewCoverHandler creates a CoverHandler.
func NewCoverHandler(pipeline *cover.Pipeline, jobs JobReader, resumePath string, candidate models.CandidateProfile, queueCap int, keepalive time.Duration, logger *slog.Logger) *CoverHandler {
	return &CoverHandler{
		registry:   session.NewRegistry(),
		pipeline:   pipeline,
		jobs:       jobs,
		resumePath: resumePath,
		candidate:  candidate,
		queueCap:   queueCap,
		keepalive:  keepalive,
		logger:     logger,
	}
}

// StartCoverLetter begins a cover-letter generation run for a job key.
func (h *CoverHandler) StartCoverLetter(ctx context.Context, input *JobKeyInput) (*StartTailorOutput, error) {
	job, err := h.jobs.GetJob(ctx, input.Key)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to look up job: " + err.Error())
	}
	if job == nil {
		return nil, huma.Error404NotFound("job not found")
	}

	sess, err := h.registry.Create(input.Key, models.ModeFullAuto, h.queueCap)
	if err != nil {
		return nil, huma.Error409Conflict("a cover-letter run is already in progress for this job key")
	}

	candidateName := h.candidate.FirstName + " " + h.candidate.LastName
	today := time.Now().Format("January 2, 2006")
	go func() {
		defer h.registry.Remove(input.Key)
		h.pipeline.Run(context.Background(), input.Key, job, h.resumePath, candidateName, h.candidate.Email, h.candidate.Phone, today, sess.Queue)
	}()

	out := &StartTailorOutput{}
	out.Body.JobKey = input.Key
	return out, nil
}

// StreamCoverLetter is a raw HTTP handler serving the cover-letter SSE stream.
func (h *CoverHandler) StreamCoverLetter(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	sess, ok := h.registry.Get(key)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no cover-letter run in progress for this job key")
		return
	}
	streamQueue(w, r, sess.Queue, h.keepalive, h.logger)
}
