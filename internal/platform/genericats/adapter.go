// Package genericats implements a heuristic BrowserPlatform adapter that
// drives any third-party ATS embedded on a job board's own apply page,
// rather than one hard-coded integration per ATS vendor. It composes the
// browser context manager, the generic form filler, the challenge detector,
// and the cookie-consent dismisser into the Acquire/Login/Apply lifecycle
// platform.Registry expects.
package genericats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/patrykgolabek/jobapply/internal/challenge"
	"github.com/patrykgolabek/jobapply/internal/consent"
	"github.com/patrykgolabek/jobapply/internal/formfiller"
	"github.com/patrykgolabek/jobapply/internal/models"
	"github.com/patrykgolabek/jobapply/internal/platform"
)

// PageAcquirer is the narrow port onto platform.ContextManager this adapter
// needs: one persistent page per platform key.
type PageAcquirer interface {
	Acquire(ctx context.Context, platformKey string) (*rod.Page, error)
	Release(platformKey string)
}

// ErrChallengeBlocking is returned by Apply when a non-auto-resolving
// challenge (CAPTCHA) is detected and cannot be filled past.
var ErrChallengeBlocking = fmt.Errorf("blocking challenge detected on application page")

// Adapter is a heuristic BrowserPlatform implementation for a single job
// board identified by key (e.g. "indeed", "linkedin"). One Adapter instance
// is registered per board; all share the same ContextManager so each board
// keeps its own persistent, logged-in browser context.
type Adapter struct {
	key         string
	loginURL    string
	searchURL   string
	pages       PageAcquirer
	detector    *challenge.Detector
	dismisser   *consent.Dismisser
	filler      *formfiller.Filler
	formTimeout time.Duration
	logger      *slog.Logger

	page *rod.Page
}

// Config configures a board-specific Adapter.
type Config struct {
	Key         string
	LoginURL    string
	SearchURL   string
	FormTimeout time.Duration
}

// New creates an Adapter for one job board.
func New(cfg Config, pages PageAcquirer, candidate models.CandidateProfile, logger *slog.Logger) *Adapter {
	return &Adapter{
		key:         cfg.Key,
		loginURL:    cfg.LoginURL,
		searchURL:   cfg.SearchURL,
		pages:       pages,
		detector:    challenge.NewDetector(),
		dismisser:   consent.NewDismisser(logger),
		filler:      formfiller.New(candidate),
		formTimeout: cfg.FormTimeout,
		logger:      logger,
	}
}

// Acquire opens a page in this board's persistent browser for the duration
// of one apply attempt.
func (a *Adapter) Acquire(ctx context.Context) error {
	page, err := a.pages.Acquire(ctx, a.key)
	if err != nil {
		return err
	}
	a.page = page
	return nil
}

// Release tells the context manager the apply is over and drops the
// adapter's page handle. The page itself is not closed and the underlying
// browser stays warm.
func (a *Adapter) Release() {
	a.pages.Release(a.key)
	a.page = nil
}

// IsLoggedIn navigates to the board and checks whether a login form is
// present; its absence is treated as an authenticated session.
func (a *Adapter) IsLoggedIn(ctx context.Context) (bool, error) {
	if err := a.page.Navigate(a.loginURL); err != nil {
		return false, err
	}
	if err := a.page.WaitLoad(); err != nil {
		return false, err
	}
	a.dismisser.Dismiss(ctx, a.page)
	has, _, err := a.page.Has(`input[type="password"]`)
	if err != nil {
		return false, err
	}
	return !has, nil
}

// Login is a no-op placeholder: credentialed login for a specific board
// requires board-specific account wiring the candidate supplies out of band
// (session cookies restored into the persistent browser context). Absent
// that, Login reports the session as still unauthenticated.
func (a *Adapter) Login(ctx context.Context) error {
	return fmt.Errorf("no stored credentials for platform %q - seed a logged-in session cookie first", a.key)
}

// Search is unimplemented for the generic adapter: job discovery for this
// module's scope always originates from an already-known job key.
func (a *Adapter) Search(ctx context.Context, query string) ([]models.Job, error) {
	return nil, fmt.Errorf("search not supported by the generic ATS adapter")
}

// GetJobDetails is unsupported by the generic adapter and always returns an
// error; the Apply Worker logs it and goes on with the stored job snapshot.
func (a *Adapter) GetJobDetails(ctx context.Context, jobKey string) (*models.Job, error) {
	return nil, fmt.Errorf("job detail refresh not supported by the generic ATS adapter")
}

// Apply navigates to the job's apply URL, fills the application form and
// clicks its submit button. If a blocking challenge is detected it returns
// ErrChallengeBlocking before filling anything.
func (a *Adapter) Apply(ctx context.Context, job *models.Job, resumePath, coverLetterPath string) error {
	if err := a.page.Navigate(job.ApplyURL); err != nil {
		return err
	}
	if err := a.page.WaitLoad(); err != nil {
		return err
	}
	a.dismisser.Dismiss(ctx, a.page)

	detection, err := a.detector.Detect(ctx, a.page)
	if err != nil {
		return fmt.Errorf("challenge detection failed: %w", err)
	}
	if detection.Type != challenge.TypeNone {
		if detection.CanAuto {
			if err := a.detector.WaitForChallenge(ctx, a.page, a.formTimeout); err != nil {
				return fmt.Errorf("%w: %s (timed out waiting for auto-resolve)", ErrChallengeBlocking, detection.Type)
			}
		} else {
			return fmt.Errorf("%w: %s", ErrChallengeBlocking, detection.Type)
		}
	}

	filled, err := a.filler.Fill(a.page, resumePath, coverLetterPath)
	if err != nil {
		return fmt.Errorf("form fill failed: %w", err)
	}
	a.logger.Debug("form fields filled", "platform", a.key, "job_key", job.Key, "fields", len(filled))

	submit, err := a.page.Timeout(a.formTimeout).Element(`button[type="submit"]`)
	if err != nil {
		return fmt.Errorf("could not locate submit control: %w", err)
	}
	return submit.Click(proto.InputMouseButtonLeft, 1)
}

// Screenshot captures the current page as a PNG and returns its saved path.
func (a *Adapter) Screenshot(ctx context.Context, label string) (string, error) {
	buf, err := a.page.Screenshot(true, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("./data/debug_screenshots/%s-%s-%d.png", a.key, label, time.Now().UnixNano())
	if err := writeFile(path, buf); err != nil {
		return "", err
	}
	return path, nil
}

var _ platform.BrowserPlatform = (*Adapter)(nil)
