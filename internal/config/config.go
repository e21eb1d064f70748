// Package config provides configuration management for the job-apply service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patrykgolabek/jobapply/internal/models"
)

// Config holds all configuration for the job-apply service.
type Config struct {
	// Server settings
	Port     int
	LogLevel string

	// Apply concurrency and serialization
	MaxConcurrentApplies int           // 1-5, default 1 (apply_engine.config.ApplyConfig.max_concurrent_applies)
	ConfirmTimeout        time.Duration // how long a worker waits at the confirmation gate
	ATSFormFillTimeout    time.Duration // 10-600s, default 120s
	EventQueueCapacity    int           // bound on a session's pending event buffer
	StreamKeepalive       time.Duration // SSE heartbeat interval

	// Browser automation settings (for BrowserPlatform adapters)
	ChromePath         string
	BrowserIdleTimeout time.Duration
	BrowserMaxAge      time.Duration
	DisableStealth     bool // disable stealth mode for local debugging

	// Candidate profile / artifact paths
	CandidateResumePath string
	TailoredResumesDir  string
	DebugScreenshotsDir string

	// Persistence
	DatabasePath string // SQLite path for job/activity/version tables

	// External LLM invocation
	LLMCommand        string        // path to the claude-compatible CLI subprocess
	LLMModel          string        // model flag passed through to the CLI
	LLMTimeout        time.Duration
	LLMBreakerMaxFail uint32 // consecutive failures before the circuit opens

	// Generic ATS board registration (optional; a board is only registered
	// if its login URL is configured)
	GenericATSKey       string
	GenericATSLoginURL  string
	GenericATSSearchURL string

	// Authentication
	JWKSIssuer           string // dashboard session issuer URL for JWT validation
	DashboardSharedSecret string // dev-mode shared-secret fallback
	AllowUnauthenticated bool    // disables auth entirely (local dev only)

	// Idle shutdown
	IdleTimeout time.Duration // 0 = disabled

	// Candidate identity, used by the Form Filler and the cover-letter/resume
	// pipelines' template data
	CandidateFirstName         string
	CandidateLastName          string
	CandidateEmail             string
	CandidatePhone             string
	CandidateLocation          string
	CandidateGitHub            string
	CandidateWebsite           string
	CandidateLinkedIn          string
	CandidateYearsExperience   string
	CandidateCurrentTitle      string
	CandidateCurrentCompany    string
	CandidateDesiredSalary     string
	CandidateStartDate         string
	CandidateEducation         string
	CandidateWorkAuthorization string
	CandidateWillingToRelocate string
}

// Load creates a Config from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MaxConcurrentApplies: clamp(getEnvInt("MAX_CONCURRENT_APPLIES", 1), 1, 5),
		ConfirmTimeout:       getEnvDuration("CONFIRM_TIMEOUT", 300*time.Second),
		ATSFormFillTimeout:   clampDuration(getEnvDuration("ATS_FORM_FILL_TIMEOUT", 120*time.Second), 10*time.Second, 600*time.Second),
		EventQueueCapacity:   getEnvInt("EVENT_QUEUE_CAPACITY", 256),
		StreamKeepalive:      getEnvDuration("STREAM_KEEPALIVE", 15*time.Second),

		ChromePath:         getEnv("CHROME_PATH", ""),
		BrowserIdleTimeout: getEnvDuration("BROWSER_IDLE_TIMEOUT", 10*time.Minute),
		BrowserMaxAge:      getEnvDuration("BROWSER_MAX_AGE", 30*time.Minute),
		DisableStealth:     getEnvBool("DISABLE_STEALTH", false),

		CandidateResumePath: getEnv("CANDIDATE_RESUME_PATH", "./data/resume.pdf"),
		TailoredResumesDir:  getEnv("RESUMES_TAILORED_DIR", "./data/resumes_tailored"),
		DebugScreenshotsDir: getEnv("DEBUG_SCREENSHOTS_DIR", "./data/debug_screenshots"),

		DatabasePath: getEnv("DATABASE_PATH", "./data/jobapply.db"),

		LLMCommand:        getEnv("LLM_COMMAND", "claude"),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMTimeout:        getEnvDuration("LLM_TIMEOUT", 120*time.Second),
		LLMBreakerMaxFail: uint32(getEnvInt("LLM_BREAKER_MAX_FAILURES", 5)),

		GenericATSKey:       getEnv("GENERIC_ATS_KEY", "generic"),
		GenericATSLoginURL:  getEnv("GENERIC_ATS_LOGIN_URL", ""),
		GenericATSSearchURL: getEnv("GENERIC_ATS_SEARCH_URL", ""),

		JWKSIssuer:            getEnv("DASHBOARD_JWT_ISSUER", ""),
		DashboardSharedSecret: getEnv("DASHBOARD_SHARED_SECRET", ""),
		AllowUnauthenticated:  getEnvBool("ALLOW_UNAUTHENTICATED", false),

		IdleTimeout: getEnvDuration("IDLE_TIMEOUT", 0),

		CandidateFirstName:         getEnv("CANDIDATE_FIRST_NAME", ""),
		CandidateLastName:          getEnv("CANDIDATE_LAST_NAME", ""),
		CandidateEmail:             getEnv("CANDIDATE_EMAIL", ""),
		CandidatePhone:             getEnv("CANDIDATE_PHONE", ""),
		CandidateLocation:          getEnv("CANDIDATE_LOCATION", ""),
		CandidateGitHub:            getEnv("CANDIDATE_GITHUB", ""),
		CandidateWebsite:           getEnv("CANDIDATE_WEBSITE", ""),
		CandidateLinkedIn:          getEnv("CANDIDATE_LINKEDIN", ""),
		CandidateYearsExperience:   getEnv("CANDIDATE_YEARS_EXPERIENCE", ""),
		CandidateCurrentTitle:      getEnv("CANDIDATE_CURRENT_TITLE", ""),
		CandidateCurrentCompany:    getEnv("CANDIDATE_CURRENT_COMPANY", ""),
		CandidateDesiredSalary:     getEnv("CANDIDATE_DESIRED_SALARY", ""),
		CandidateStartDate:         getEnv("CANDIDATE_START_DATE", ""),
		CandidateEducation:         getEnv("CANDIDATE_EDUCATION", ""),
		CandidateWorkAuthorization: getEnv("CANDIDATE_WORK_AUTHORIZATION", ""),
		CandidateWillingToRelocate: getEnv("CANDIDATE_WILLING_TO_RELOCATE", ""),
	}
}

// CandidateProfile builds a models.CandidateProfile from the loaded config.
func (c *Config) CandidateProfile() models.CandidateProfile {
	return models.CandidateProfile{
		FirstName:         c.CandidateFirstName,
		LastName:          c.CandidateLastName,
		Email:             c.CandidateEmail,
		Phone:             c.CandidatePhone,
		Location:          c.CandidateLocation,
		GitHub:            c.CandidateGitHub,
		Website:           c.CandidateWebsite,
		YearsExperience:   c.CandidateYearsExperience,
		CurrentTitle:      c.CandidateCurrentTitle,
		CurrentCompany:    c.CandidateCurrentCompany,
		DesiredSalary:     c.CandidateDesiredSalary,
		StartDate:         c.CandidateStartDate,
		Education:         c.CandidateEducation,
		WorkAuthorization: c.CandidateWorkAuthorization,
		WillingToRelocate: c.CandidateWillingToRelocate,
		LinkedIn:          c.CandidateLinkedIn,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		lower := strings.ToLower(val)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
