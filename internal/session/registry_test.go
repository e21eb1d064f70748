package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrykgolabek/jobapply/internal/confirm"
	"github.com/patrykgolabek/jobapply/internal/models"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry()
	sess, err := r.Create("job-1", models.ModeFullAuto, 32)
	require.NoError(t, err)
	assert.Equal(t, "job-1", sess.JobKey)

	got, ok := r.Get("job-1")
	require.True(t, ok)
	assert.Same(t, sess, got)
}

func TestRegistry_DuplicateCreateRejected(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("job-2", models.ModeFullAuto, 32)
	require.NoError(t, err)

	_, err = r.Create("job-2", models.ModeFullAuto, 32)
	assert.ErrorIs(t, err, ErrAlreadyInProgress)
}

func TestRegistry_RemoveThenCreateSucceeds(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("job-3", models.ModeFullAuto, 32)
	require.NoError(t, err)

	r.Remove("job-3")
	_, ok := r.Get("job-3")
	assert.False(t, ok)

	_, err = r.Create("job-3", models.ModeFullAuto, 32)
	assert.NoError(t, err)
}

func TestRegistry_ConfirmAndCancelReturnFalseForUnknownKey(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Confirm("nonexistent"))
	assert.False(t, r.Cancel("nonexistent"))
}

func TestRegistry_CancelResolvesGateAndSignal(t *testing.T) {
	r := NewRegistry()
	sess, err := r.Create("job-4", models.ModeSemiAuto, 32)
	require.NoError(t, err)

	assert.True(t, r.Cancel("job-4"))
	assert.Equal(t, confirm.CancelledState, sess.Gate.State())
	assert.True(t, sess.Cancel.Raised())
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create("job-5", models.ModeFullAuto, 32)
	_, _ = r.Create("job-6", models.ModeFullAuto, 32)

	keys := r.List()
	assert.ElementsMatch(t, []string{"job-5", "job-6"}, keys)
}
