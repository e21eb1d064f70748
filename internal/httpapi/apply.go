// Package httpapi wires the apply orchestrator and the resume/cover-letter
// pipelines to HTTP: Huma-registered JSON endpoints for start/confirm/cancel,
// and raw chi handlers for the SSE streams each produces.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/go-chi/chi/v5"

	"github.com/patrykgolabek/jobapply/internal/eventbus"
	"github.com/patrykgolabek/jobapply/internal/models"
	"github.com/patrykgolabek/jobapply/internal/orchestrator"
)

// ApplyHandler exposes the Orchestrator over HTTP.
type ApplyHandler struct {
	orch      *orchestrator.Orchestrator
	keepalive time.Duration
	logger    *slog.Logger
}

// NewApplyHandler creates an ApplyHandler.
func NewApplyHandler(orch *orchestrator.Orchestrator, keepalive time.Duration, logger *slog.Logger) *ApplyHandler {
	return &ApplyHandler{orch: orch, keepalive: keepalive, logger: logger}
}

// StartApplyInput is the input to StartApply.
type StartApplyInput struct {
	Key  string `path:"key" doc:"Job key to apply to"`
	Body struct {
		Mode models.Mode `json:"mode" enum:"full_auto,semi_auto,easy_apply_only" doc:"How much of the apply flow runs without confirmation"`
	}
}

// StartApplyOutput is the output of StartApply.
type StartApplyOutput struct {
	Body struct {
		JobKey string `json:"job_key"`
	}
}

// StartApply begins an apply attempt for a job key.
func (h *ApplyHandler) StartApply(ctx context.Context, input *StartApplyInput) (*StartApplyOutput, error) {
	mode := input.Body.Mode
	if mode == "" {
		mode = models.ModeSemiAuto
	}
	handle, err := h.orch.Start(ctx, input.Key, mode)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrBusy):
			return nil, huma.Error409Conflict("apply engine is at maximum concurrent applies")
		default:
			return nil, huma.Error400BadRequest(err.Error())
		}
	}
	out := &StartApplyOutput{}
	out.Body.JobKey = handle.JobKey
	return out, nil
}

// JobKeyInput is a path-only input shared by confirm/cancel.
type JobKeyInput struct {
	Key string `path:"key" doc:"Job key"`
}

// ConfirmApply resolves the confirmation gate for an in-flight apply.
func (h *ApplyHandler) ConfirmApply(ctx context.Context, input *JobKeyInput) (*struct{}, error) {
	if !h.orch.Confirm(input.Key) {
		return nil, huma.Error404NotFound("no apply in progress for this job key")
	}
	return nil, nil
}

// CancelApply cancels an in-flight apply.
func (h *ApplyHandler) CancelApply(ctx context.Context, input *JobKeyInput) (*struct{}, error) {
	if !h.orch.Cancel(input.Key) {
		return nil, huma.Error404NotFound("no apply in progress for this job key")
	}
	return nil, nil
}

// StreamApply is a raw HTTP handler (not Huma) so it can serve SSE.
func (h *ApplyHandler) StreamApply(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeJSONError(w, http.StatusBadRequest, "job key required")
		return
	}
	stream, ok := h.orch.Subscribe(key)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no apply in progress for this job key")
		return
	}
	streamQueue(w, r, stream.Queue, h.keepalive, h.logger)
}

// RegisterDocs registers the SSE stream endpoint with Huma purely so it
// appears in the generated OpenAPI spec; the live traffic is served by the
// chi route registered separately in cmd/jobapply-server.
func (h *ApplyHandler) RegisterDocs(api huma.API) {
	sse.Register(api, huma.Operation{
		OperationID: "streamApply",
		Method:      http.MethodGet,
		Path:        "/jobs/{key}/apply/stream",
		Summary:     "Stream apply progress via SSE",
		Description: "Server-Sent Events stream of apply progress, confirmation, and completion events.",
		Tags:        []string{"Apply"},
	}, map[string]any{
		"progress":         eventbus.Event{},
		"awaiting_confirm": eventbus.Event{},
		"confirmed":        eventbus.Event{},
		"captcha":          eventbus.Event{},
		"error":            eventbus.Event{},
		"done":             eventbus.Event{},
	}, func(ctx context.Context, input *JobKeyInput, send sse.Sender) {
		<-ctx.Done()
	})
}
