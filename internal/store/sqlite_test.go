package store

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrykgolabek/jobapply/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_JobRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := &models.Job{Key: "job-1", Platform: "greenhouse", Title: "Engineer", Company: "Acme", Status: "new"}
	require.NoError(t, s.UpsertJob(ctx, job))

	got, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "new", got.Status)

	require.NoError(t, s.SetJobStatus(ctx, "job-1", "applied"))
	got, err = s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "applied", got.Status)
}

func TestStore_GetJob_Missing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetJob(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_VersionLatestForKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v1, err := s.SaveVersion(ctx, &models.ResumeVersion{JobKey: "job-2", Kind: models.VersionResume, FilePath: "/tmp/v1.pdf"})
	require.NoError(t, err)
	v2, err := s.SaveVersion(ctx, &models.ResumeVersion{JobKey: "job-2", Kind: models.VersionResume, FilePath: "/tmp/v2.pdf"})
	require.NoError(t, err)
	assert.NotEqual(t, v1.ID, v2.ID)

	latest, err := s.GetLatestForKind(ctx, "job-2", models.VersionResume)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "/tmp/v2.pdf", latest.FilePath)

	none, err := s.GetLatestForKind(ctx, "job-2", models.VersionCoverLetter)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStore_ActivityLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordActivity(ctx, "job-3", "progress", "started"))
	require.NoError(t, s.RecordActivity(ctx, "job-3", "done", "submitted"))

	entries, err := s.GetActivity(ctx, "job-3")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "done", entries[0].EventType) // newest first
}
