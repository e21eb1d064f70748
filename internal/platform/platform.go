// Package platform defines the closed polymorphic model job platforms
// implement (browser-driven ATS flows or direct API integrations) and the
// process-wide registry the Apply Worker resolves them from.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/patrykgolabek/jobapply/internal/models"
)

var (
	// ErrUnknownPlatform is returned when the Apply Worker resolves a job's
	// platform key and finds no registered adapter.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrKindMismatch is returned at Register time when the factory is nil.
	// The factory's return type fixes the interface its product satisfies, so
	// that part is checked by the compiler.
	ErrKindMismatch = errors.New("platform factory does not implement its declared kind")
)

// Kind identifies which closed interface a platform adapter implements.
type Kind string

const (
	// KindBrowser adapters drive a real browser session against an ATS.
	KindBrowser Kind = "browser"
	// KindAPI adapters talk to a platform's HTTP API directly.
	KindAPI Kind = "api"
)

// BrowserPlatform is implemented by adapters that drive a headless browser
// against a third-party ATS to submit an application.
type BrowserPlatform interface {
	// Login establishes (or confirms) an authenticated browser session.
	Login(ctx context.Context) error
	// IsLoggedIn reports whether the current session is authenticated.
	IsLoggedIn(ctx context.Context) (bool, error)
	// Search returns job postings matching the given query.
	Search(ctx context.Context, query string) ([]models.Job, error)
	// GetJobDetails fetches the full posting for a job key.
	GetJobDetails(ctx context.Context, jobKey string) (*models.Job, error)
	// Apply drives the ATS form-fill-and-submit flow for job.
	Apply(ctx context.Context, job *models.Job, resumePath, coverLetterPath string) error
	// Acquire reserves whatever browser resource this adapter needs
	// (tab, context, profile) for the duration of one apply.
	Acquire(ctx context.Context) error
	// Release returns the resource acquired by Acquire.
	Release()
	// Screenshot captures the current page state for debugging/CAPTCHA
	// triage and returns the path of the saved image.
	Screenshot(ctx context.Context, label string) (string, error)
}

// ApiPlatform is implemented by adapters that submit applications through a
// platform's own HTTP API rather than a browser.
type ApiPlatform interface {
	// Init performs one-time adapter setup (e.g. obtaining an API token).
	Init(ctx context.Context) error
	// Search returns job postings matching the given query.
	Search(ctx context.Context, query string) ([]models.Job, error)
	// GetJobDetails fetches the full posting for a job key.
	GetJobDetails(ctx context.Context, jobKey string) (*models.Job, error)
	// Apply submits the application via the platform's API.
	Apply(ctx context.Context, job *models.Job, resumePath, coverLetterPath string) error
	// Acquire reserves whatever connection/rate-limit resource this
	// adapter needs for the duration of one apply.
	Acquire(ctx context.Context) error
	// Release returns the resource acquired by Acquire.
	Release()
}

// Entry is one registered platform adapter.
type Entry struct {
	Key         string
	DisplayName string
	Kind        Kind
	Capabilities []string

	browserFactory func() BrowserPlatform
	apiFactory     func() ApiPlatform
}

// NewBrowserPlatform constructs the adapter for this entry. Only valid when
// Kind == KindBrowser.
func (e *Entry) NewBrowserPlatform() BrowserPlatform {
	return e.browserFactory()
}

// NewApiPlatform constructs the adapter for this entry. Only valid when
// Kind == KindAPI.
func (e *Entry) NewApiPlatform() ApiPlatform {
	return e.apiFactory()
}

// Registry is a process-wide, read-only-after-init table of platform
// adapters. Register is called during startup wiring; Lookup is called on
// every apply.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// RegisterBrowserPlatform registers a browser-kind adapter factory under
// key. The factory's signature makes the compiler check its product against
// BrowserPlatform; at registration time a nil factory is rejected and the
// factory is called once.
func (r *Registry) RegisterBrowserPlatform(key, displayName string, capabilities []string, factory func() BrowserPlatform) error {
	if factory == nil {
		return fmt.Errorf("platform %q: %w", key, ErrKindMismatch)
	}
	probe := factory()
	var _ BrowserPlatform = probe // compile-time shape check; runtime nil-factory still caught above

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = &Entry{
		Key:            key,
		DisplayName:    displayName,
		Kind:           KindBrowser,
		Capabilities:   capabilities,
		browserFactory: factory,
	}
	return nil
}

// RegisterApiPlatform registers an api-kind adapter factory under key.
func (r *Registry) RegisterApiPlatform(key, displayName string, capabilities []string, factory func() ApiPlatform) error {
	if factory == nil {
		return fmt.Errorf("platform %q: %w", key, ErrKindMismatch)
	}
	probe := factory()
	var _ ApiPlatform = probe

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = &Entry{
		Key:         key,
		DisplayName: displayName,
		Kind:        KindAPI,
		Capabilities: capabilities,
		apiFactory:  factory,
	}
	return nil
}

// Lookup returns the registered entry for key, or ErrUnknownPlatform.
func (r *Registry) Lookup(key string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, key)
	}
	return entry, nil
}

// Keys returns all registered platform keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}
