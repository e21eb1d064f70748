package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrykgolabek/jobapply/internal/models"
)

type fakeJobReader struct {
	jobs map[string]*models.Job
	err  error
}

func (f *fakeJobReader) GetJob(_ context.Context, jobKey string) (*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.jobs[jobKey], nil
}

func TestOracle_AppliedStatusesAreDetected(t *testing.T) {
	for status := range models.AppliedStatuses {
		t.Run(status, func(t *testing.T) {
			o := New(&fakeJobReader{jobs: map[string]*models.Job{
				"job-1": {Key: "job-1", Status: status},
			}})
			job, applied, err := o.IsAlreadyApplied(context.Background(), "job-1")
			require.NoError(t, err)
			assert.True(t, applied)
			require.NotNil(t, job)
			assert.Equal(t, status, job.Status)
		})
	}
}

func TestOracle_NonAppliedStatusReturnsFalse(t *testing.T) {
	o := New(&fakeJobReader{jobs: map[string]*models.Job{
		"job-2": {Key: "job-2", Status: "new"},
	}})
	job, applied, err := o.IsAlreadyApplied(context.Background(), "job-2")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, job)
}

func TestOracle_MissingJobReturnsFalse(t *testing.T) {
	o := New(&fakeJobReader{jobs: map[string]*models.Job{}})
	job, applied, err := o.IsAlreadyApplied(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, job)
}

func TestOracle_ReaderErrorPropagates(t *testing.T) {
	o := New(&fakeJobReader{err: errors.New("db down")})
	_, _, err := o.IsAlreadyApplied(context.Background(), "job-3")
	assert.Error(t, err)
}
