package shell

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()

	out, err := Exec{}.Run(context.Background(), dir, "sh", "-c", "pwd")
	require.NoError(t, err)
	assert.Contains(t, string(out), filepath.Base(dir))

	_, err = Exec{}.Run(context.Background(), dir, "sh", "-c", "exit 3")
	require.Error(t, err)
}

func TestExecRun_MissingProgram(t *testing.T) {
	_, err := Exec{}.Run(context.Background(), t.TempDir(), "definitely-not-a-real-program-zsmart")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = LookPath("definitely-not-a-real-program-zsmart")
	require.ErrorIs(t, err, ErrNotFound)
}
