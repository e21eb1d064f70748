package llm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakeCLI(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-claude.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestInvoker_Generate_Success(t *testing.T) {
	path := writeFakeCLI(t, `echo '{"result":"tailored text","is_error":false}'`)
	inv := New(path, "sonnet", 5*time.Second, 5)

	out, err := inv.Generate(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "tailored text", out)
}

func TestInvoker_Generate_AuthFailure(t *testing.T) {
	path := writeFakeCLI(t, `echo "not authenticated, run setup-token" 1>&2; exit 1`)
	inv := New(path, "sonnet", 5*time.Second, 5)

	_, err := inv.Generate(context.Background(), "system", "user")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCLIAuth)
}

func TestInvoker_Generate_ProcessError(t *testing.T) {
	path := writeFakeCLI(t, `echo "boom" 1>&2; exit 1`)
	inv := New(path, "sonnet", 5*time.Second, 5)

	_, err := inv.Generate(context.Background(), "system", "user")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCLIProcess)
}

func TestInvoker_Generate_Timeout(t *testing.T) {
	path := writeFakeCLI(t, `sleep 2; echo '{"result":"late","is_error":false}'`)
	inv := New(path, "sonnet", 50*time.Millisecond, 5)

	_, err := inv.Generate(context.Background(), "system", "user")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCLITimeout)
}

func TestInvoker_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	path := writeFakeCLI(t, `echo "boom" 1>&2; exit 1`)
	inv := New(path, "sonnet", 5*time.Second, 2)

	_, err1 := inv.Generate(context.Background(), "system", "user")
	require.Error(t, err1)
	_, err2 := inv.Generate(context.Background(), "system", "user")
	require.Error(t, err2)

	_, err3 := inv.Generate(context.Background(), "system", "user")
	require.Error(t, err3)
	assert.ErrorIs(t, err3, ErrCircuitOpen)
}
