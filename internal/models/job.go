// Package models holds the data shapes shared across the apply orchestrator
// and the resume/cover-letter pipelines.
package models

import "time"

// Mode controls how much of the apply flow runs without human confirmation.
type Mode string

const (
	ModeFullAuto       Mode = "full_auto"
	ModeSemiAuto       Mode = "semi_auto"
	ModeEasyApplyOnly  Mode = "easy_apply_only"
)

// Job is the read-only snapshot of a job posting the orchestrator and its
// workers consume. It is never mutated by this module.
type Job struct {
	Key         string `json:"key"`
	Platform    string `json:"platform"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	URL         string `json:"url"`
	ApplyURL    string `json:"apply_url,omitempty"`
	Description string `json:"description"`
	EasyApply   bool   `json:"easy_apply"`
	Status      string `json:"status"`
}

// AppliedStatuses is the set of persisted job statuses the Dedup Oracle
// treats as "already applied". It must not be mutated by callers.
var AppliedStatuses = map[string]bool{
	"applied":          true,
	"phone_screen":     true,
	"technical":        true,
	"final_interview":  true,
	"offer":            true,
}

// VersionKind distinguishes tailored artifacts.
type VersionKind string

const (
	VersionResume      VersionKind = "resume"
	VersionCoverLetter VersionKind = "cover_letter"
)

// ResumeVersion is a persisted tailored-artifact record.
type ResumeVersion struct {
	ID         string      `json:"id"`
	JobKey     string      `json:"job_key"`
	Kind       VersionKind `json:"kind"`
	FilePath   string      `json:"file_path"`
	SourcePath string      `json:"source_path"`
	Model      string      `json:"model"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ActivityEntry is an append-only audit log row.
type ActivityEntry struct {
	ID        string    `json:"id"`
	JobKey    string    `json:"job_key"`
	EventType string    `json:"event_type"`
	Detail    string    `json:"detail"`
	At        time.Time `json:"at"`
}

// CandidateProfile is the static form-fill identity used by the Form Filler.
type CandidateProfile struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Location          string
	GitHub            string
	Website            string
	YearsExperience   string
	CurrentTitle      string
	CurrentCompany    string
	DesiredSalary     string
	StartDate         string
	Education         string
	WorkAuthorization string
	WillingToRelocate string
	LinkedIn          string
}
