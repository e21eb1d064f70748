package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrykgolabek/jobapply/internal/eventbus"
)

// streamQueue drains queue onto w as Server-Sent Events until a terminal
// event is sent, the client disconnects, or the handler is otherwise done.
// Mirrors the teacher's poll-plus-heartbeat SSE loop, adapted from polling a
// datastore to waiting on an eventbus.Queue's notify channel.
func streamQueue(w http.ResponseWriter, r *http.Request, queue *eventbus.Queue, keepalive time.Duration, logger *slog.Logger) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming not supported"}`, http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	ctx := r.Context()

	if keepalive <= 0 {
		keepalive = 15 * time.Second
	}

	for _, e := range queue.Drain() {
		sendEvent(w, flusher, e)
		if e.IsTerminal() {
			return
		}
	}

	for {
		waitCtx, cancel := context.WithTimeout(ctx, keepalive)
		woke := queue.Wait(waitCtx)
		cancel()

		if ctx.Err() != nil {
			return
		}
		if !woke {
			sendHeartbeat(w, flusher)
			continue
		}

		for _, e := range queue.Drain() {
			sendEvent(w, flusher, e)
			if e.IsTerminal() {
				return
			}
		}
	}
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, e eventbus.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", e.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

func sendHeartbeat(w http.ResponseWriter, flusher http.Flusher) {
	_, _ = fmt.Fprint(w, "event: ping\ndata: \n\n")
	flusher.Flush()
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
