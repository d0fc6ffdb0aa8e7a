package process_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/relay/pkg/adapters/process"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
}

func TestNew_RequiresCommand(t *testing.T) {
	_, err := process.New(nil)
	assert.ErrorIs(t, err, process.ErrNoCommand)

	_, err = process.New([]string{""})
	assert.ErrorIs(t, err, process.ErrNoCommand)
}

func TestAgent_Invoke(t *testing.T) {
	skipOnWindows(t)

	t.Run("Input On Stdin", func(t *testing.T) {
		a, err := process.New([]string{"sh", "-c", "tr a-z A-Z"})
		require.NoError(t, err)

		rec, err := a.Invoke(context.Background(), domain.AgentCall{Input: "hello\n"})
		require.NoError(t, err)
		assert.Equal(t, "HELLO", rec.Output)
		assert.Equal(t, "hello\n", rec.Input)
		assert.Equal(t, "sh", rec.Metadata["command"])
	})

	t.Run("Session Environment", func(t *testing.T) {
		a, err := process.New(
			[]string{"sh", "-c", `printf '%s|%s|%s|%s' "$RELAY_SESSION_ID" "$RELAY_CHAT_ID" "$GREETING" "$RELAY_HISTORY"`},
			process.WithEnv(map[string]string{"GREETING": "hi"}),
		)
		require.NoError(t, err)

		rec, err := a.Invoke(context.Background(), domain.AgentCall{SessionID: "s1", ChatID: "c1"})
		require.NoError(t, err)
		assert.Equal(t, "s1|c1|hi|[]", rec.Output)
	})

	t.Run("Working Directory", func(t *testing.T) {
		dir := t.TempDir()
		a, err := process.New([]string{"pwd"}, process.WithDir(dir))
		require.NoError(t, err)

		rec, err := a.Invoke(context.Background(), domain.AgentCall{})
		require.NoError(t, err)
		assert.Contains(t, rec.Output, dir[len(dir)-8:])
	})

	t.Run("Failure Carries Stderr", func(t *testing.T) {
		a, err := process.New([]string{"sh", "-c", "echo boom >&2; exit 3"})
		require.NoError(t, err)

		_, err = a.Invoke(context.Background(), domain.AgentCall{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("Cancellation", func(t *testing.T) {
		a, err := process.New([]string{"sleep", "5"})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = a.Invoke(ctx, domain.AgentCall{})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
