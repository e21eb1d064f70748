package resume

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patrykgolabek/jobapply/internal/models"
)

type fakeVersionReader struct {
	version *models.ResumeVersion
	err     error
}

func (f *fakeVersionReader) GetLatestForKind(_ context.Context, _ string, _ models.VersionKind) (*models.ResumeVersion, error) {
	return f.version, f.err
}

func TestResolver_ReturnsTailoredVersionWhenFilePresent(t *testing.T) {
	dir := t.TempDir()
	tailored := filepath.Join(dir, "tailored.pdf")
	assert.NoError(t, os.WriteFile(tailored, []byte("pdf"), 0o644))

	r := New(&fakeVersionReader{version: &models.ResumeVersion{FilePath: tailored}}, "/default/resume.pdf", slog.Default())
	got := r.Resolve(context.Background(), "job-1")
	assert.Equal(t, tailored, got)
}

func TestResolver_FallsBackWhenTailoredFileMissing(t *testing.T) {
	r := New(&fakeVersionReader{version: &models.ResumeVersion{FilePath: "/does/not/exist.pdf"}}, "/default/resume.pdf", slog.Default())
	got := r.Resolve(context.Background(), "job-2")
	assert.Equal(t, "/default/resume.pdf", got)
}

func TestResolver_FallsBackWhenNoVersionExists(t *testing.T) {
	r := New(&fakeVersionReader{version: nil}, "/default/resume.pdf", slog.Default())
	got := r.Resolve(context.Background(), "job-3")
	assert.Equal(t, "/default/resume.pdf", got)
}

func TestResolver_FallsBackWhenReaderErrors(t *testing.T) {
	r := New(&fakeVersionReader{err: errors.New("db down")}, "/default/resume.pdf", slog.Default())
	got := r.Resolve(context.Background(), "job-4")
	assert.Equal(t, "/default/resume.pdf", got)
}
