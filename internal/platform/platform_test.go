package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrykgolabek/jobapply/internal/models"
)

type fakeBrowserPlatform struct{}

func (fakeBrowserPlatform) Login(context.Context) error                { return nil }
func (fakeBrowserPlatform) IsLoggedIn(context.Context) (bool, error)   { return true, nil }
func (fakeBrowserPlatform) Search(context.Context, string) ([]models.Job, error) {
	return nil, nil
}
func (fakeBrowserPlatform) GetJobDetails(context.Context, string) (*models.Job, error) {
	return nil, nil
}
func (fakeBrowserPlatform) Apply(context.Context, *models.Job, string, string) error { return nil }
func (fakeBrowserPlatform) Acquire(context.Context) error                            { return nil }
func (fakeBrowserPlatform) Release()                                                 {}
func (fakeBrowserPlatform) Screenshot(context.Context, string) (string, error)       { return "", nil }

type fakeApiPlatform struct{}

func (fakeApiPlatform) Init(context.Context) error { return nil }
func (fakeApiPlatform) Search(context.Context, string) ([]models.Job, error) {
	return nil, nil
}
func (fakeApiPlatform) GetJobDetails(context.Context, string) (*models.Job, error) {
	return nil, nil
}
func (fakeApiPlatform) Apply(context.Context, *models.Job, string, string) error { return nil }
func (fakeApiPlatform) Acquire(context.Context) error                           { return nil }
func (fakeApiPlatform) Release()                                                {}

func TestRegistry_RegisterAndLookupBrowserPlatform(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterBrowserPlatform("indeed", "Indeed", []string{"easy_apply"}, func() BrowserPlatform {
		return fakeBrowserPlatform{}
	})
	require.NoError(t, err)

	entry, err := r.Lookup("indeed")
	require.NoError(t, err)
	assert.Equal(t, KindBrowser, entry.Kind)
	assert.Equal(t, "Indeed", entry.DisplayName)
	assert.Equal(t, []string{"easy_apply"}, entry.Capabilities)
	assert.NotNil(t, entry.NewBrowserPlatform())
}

func TestRegistry_RegisterAndLookupApiPlatform(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterApiPlatform("greenhouse", "Greenhouse", nil, func() ApiPlatform {
		return fakeApiPlatform{}
	})
	require.NoError(t, err)

	entry, err := r.Lookup("greenhouse")
	require.NoError(t, err)
	assert.Equal(t, KindAPI, entry.Kind)
	assert.NotNil(t, entry.NewApiPlatform())
}

func TestRegistry_LookupUnknownKeyReturnsError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestRegistry_RegisterNilFactoryRejected(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterBrowserPlatform("broken", "Broken", nil, nil)
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, lookupErr := r.Lookup("broken")
	assert.ErrorIs(t, lookupErr, ErrUnknownPlatform)
}

func TestRegistry_KeysListsAllRegistered(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterBrowserPlatform("a", "A", nil, func() BrowserPlatform { return fakeBrowserPlatform{} }))
	require.NoError(t, r.RegisterApiPlatform("b", "B", nil, func() ApiPlatform { return fakeApiPlatform{} }))

	assert.ElementsMatch(t, []string{"a", "b"}, r.Keys())
}
