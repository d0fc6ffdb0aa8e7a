package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunChatMemoryContract runs a suite of tests to verify that a ChatMemory
// implementation adheres to the interface contract.
func RunChatMemoryContract(t *testing.T, mem ChatMemory) {
	ctx := context.Background()
	sessionID := "contract-session-" + time.Now().Format("20060102150405.000000000")

	t.Run("Append and Messages", func(t *testing.T) {
		err := mem.Append(ctx, sessionID,
			domain.Message{Role: domain.RoleUser, Content: "hello"},
			domain.Message{Role: domain.RoleAssistant, Content: "hi there"},
		)
		require.NoError(t, err)

		err = mem.Append(ctx, sessionID, domain.Message{Role: domain.RoleUser, Content: "again"})
		require.NoError(t, err)

		msgs, err := mem.Messages(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, domain.RoleUser, msgs[0].Role)
		assert.Equal(t, "hello", msgs[0].Content)
		assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
		assert.Equal(t, "hi there", msgs[1].Content)
		assert.Equal(t, "again", msgs[2].Content)
	})

	t.Run("Unknown Session Is Empty", func(t *testing.T) {
		msgs, err := mem.Messages(ctx, "non-existent-"+sessionID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Sessions Are Isolated", func(t *testing.T) {
		other := sessionID + "-other"
		require.NoError(t, mem.Append(ctx, other, domain.Message{Role: domain.RoleUser, Content: "elsewhere"}))
		defer func() { _ = mem.Clear(ctx, other) }()

		msgs, err := mem.Messages(ctx, other)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "elsewhere", msgs[0].Content)
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := sessionID+"-1", sessionID+"-2"
		require.NoError(t, mem.Append(ctx, id1, domain.Message{Role: domain.RoleUser, Content: "one"}))
		require.NoError(t, mem.Append(ctx, id2, domain.Message{Role: domain.RoleUser, Content: "two"}))
		defer func() {
			_ = mem.Clear(ctx, id1)
			_ = mem.Clear(ctx, id2)
		}()

		sessions, err := mem.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, mem.Clear(ctx, sessionID))

		msgs, err := mem.Messages(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, msgs)

		sessions, err := mem.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, sessions, sessionID)

		// Clearing twice is fine.
		assert.NoError(t, mem.Clear(ctx, sessionID))
	})
}
