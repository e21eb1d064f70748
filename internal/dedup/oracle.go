// Package dedup guards against re-applying to a job that already reached an
// applied-or-further status.
package dedup

import (
	"context"

	"github.com/patrykgolabek/jobapply/internal/models"
)

// JobReader is the narrow read port the Dedup Oracle needs from the durable job store.
type JobReader interface {
	GetJob(ctx context.Context, jobKey string) (*models.Job, error)
}

// Oracle answers whether a job has already been applied to.
type Oracle struct {
	jobs JobReader
}

// New creates an Oracle backed by the given JobReader.
func New(jobs JobReader) *Oracle {
	return &Oracle{jobs: jobs}
}

// IsAlreadyApplied returns the job row and true if its persisted status is in
// the applied set. A missing job or a non-applied status return (nil, false, nil).
func (o *Oracle) IsAlreadyApplied(ctx context.Context, jobKey string) (*models.Job, bool, error) {
	job, err := o.jobs.GetJob(ctx, jobKey)
	if err != nil {
		return nil, false, err
	}
	if job == nil {
		return nil, false, nil
	}
	if models.AppliedStatuses[job.Status] {
		return job, true, nil
	}
	return nil, false, nil
}
