// Package session manages the registry of in-flight job sessions: one per
// job_key, carrying the event queue, confirmation gate, and cancel signal a
// worker and its HTTP-facing stream share.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/patrykgolabek/jobapply/internal/confirm"
	"github.com/patrykgolabek/jobapply/internal/eventbus"
	"github.com/patrykgolabek/jobapply/internal/models"
)

// ErrSessionNotFound is returned when a lookup for a job_key fails.
var ErrSessionNotFound = errors.New("session not found")

// ErrAlreadyInProgress is returned by Registry.Create when a session for the
// same job_key is already registered.
var ErrAlreadyInProgress = errors.New("session already in progress for this job")

// Session is the per-job-key coordination object shared between a worker
// goroutine and the HTTP handlers serving confirm/cancel/stream requests.
type Session struct {
	JobKey    string
	Mode      models.Mode
	Queue     *eventbus.Queue
	Gate      *confirm.Gate
	Cancel    *confirm.CancelSignal
	StartedAt time.Time
}

// Registry is a map from job_key to Session. Each Registry is mutated only
// by the component that owns it (the Orchestrator, or a tailoring handler
// for its own Registry); other components only read through Get.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new Session for jobKey. Fails if one already exists.
func (r *Registry) Create(jobKey string, mode models.Mode, queueCapacity int) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[jobKey]; exists {
		return nil, ErrAlreadyInProgress
	}

	s := &Session{
		JobKey:    jobKey,
		Mode:      mode,
		Queue:     eventbus.NewQueue(queueCapacity),
		Gate:      confirm.NewGate(),
		Cancel:    confirm.NewCancelSignal(),
		StartedAt: time.Now(),
	}
	r.sessions[jobKey] = s
	return s, nil
}

// Get returns the Session for jobKey, if any.
func (r *Registry) Get(jobKey string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[jobKey]
	return s, ok
}

// Remove deletes the Session for jobKey. Called by the Registry's owner once
// the terminal Done event has been enqueued.
func (r *Registry) Remove(jobKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, jobKey)
}

// Confirm resolves the named session's gate to Confirmed. Returns false if no
// session exists for jobKey.
func (r *Registry) Confirm(jobKey string) bool {
	s, ok := r.Get(jobKey)
	if !ok {
		return false
	}
	s.Gate.Confirm()
	return true
}

// Cancel resolves the named session's gate to Cancelled and raises its cancel
// signal. Returns false if no session exists for jobKey.
func (r *Registry) Cancel(jobKey string) bool {
	s, ok := r.Get(jobKey)
	if !ok {
		return false
	}
	s.Gate.Cancel()
	s.Cancel.Raise()
	return true
}

// List returns all currently registered job keys.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.sessions))
	for k := range r.sessions {
		keys = append(keys, k)
	}
	return keys
}
