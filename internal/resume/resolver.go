// Package resume implements the Resume Resolver and the resume-tailoring
// pipeline.
package resume

import (
	"context"
	"log/slog"
	"os"

	"github.com/patrykgolabek/jobapply/internal/models"
)

// VersionReader is the narrow read port the Resolver needs from the Resume
// Version Store.
type VersionReader interface {
	GetLatestForKind(ctx context.Context, jobKey string, kind models.VersionKind) (*models.ResumeVersion, error)
}

// Resolver picks the correct resume artifact for a job: the most recently
// tailored version if one exists and its file is still on disk, else the
// candidate's default resume.
//
// Resolve never fails: a missing or errored tailored version is logged and
// treated as "no tailored version", and the default path is always returned.
type Resolver struct {
	versions    VersionReader
	defaultPath string
	logger      *slog.Logger
}

// New creates a Resolver. defaultPath is the candidate's static ATS resume,
// used whenever no usable tailored version exists.
func New(versions VersionReader, defaultPath string, logger *slog.Logger) *Resolver {
	return &Resolver{versions: versions, defaultPath: defaultPath, logger: logger}
}

// Resolve returns the resume path to use for jobKey.
func (r *Resolver) Resolve(ctx context.Context, jobKey string) string {
	version, err := r.versions.GetLatestForKind(ctx, jobKey, models.VersionResume)
	if err != nil {
		r.logger.Warn("resume resolver: failed to look up tailored version, using default", "job_key", jobKey, "error", err)
		return r.defaultPath
	}
	if version != nil {
		if _, statErr := os.Stat(version.FilePath); statErr == nil {
			return version.FilePath
		}
		r.logger.Warn("resume resolver: tailored version file missing on disk, using default", "job_key", jobKey, "path", version.FilePath)
	}
	return r.defaultPath
}
