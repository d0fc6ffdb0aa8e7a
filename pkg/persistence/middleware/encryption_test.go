package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/persistence/middleware"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, next ports.ChatMemory, cfg middleware.EncryptionConfig) ports.ChatMemory {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunChatMemoryContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, secure.Append(ctx, "s", domain.Message{Role: domain.RoleUser, Content: "my-secret-sauce"}))

	stored, err := underlying.Messages(ctx, "s")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.RoleUser, stored[0].Role)
	assert.NotContains(t, stored[0].Content, "my-secret-sauce")
	assert.True(t, strings.HasPrefix(stored[0].Content, "enc:v1:"))

	loaded, err := secure.Messages(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded[0].Content)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	require.NoError(t, encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey}).
		Append(ctx, "s", domain.Message{Content: "before rotation"}))

	rotated := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	require.NoError(t, rotated.Append(ctx, "s", domain.Message{Content: "after rotation"}))

	msgs, err := rotated.Messages(ctx, "s")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "before rotation", msgs[0].Content)
	assert.Equal(t, "after rotation", msgs[1].Content)

	// Without the old key the first message is unreadable.
	_, err = encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey}).Messages(ctx, "s")
	assert.ErrorContains(t, err, "failed to decrypt message")
}

func TestEncryptionMiddleware_FailsSecureOnPlainContent(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Append(ctx, "s", domain.Message{Content: "plain"}))

	_, err := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)}).Messages(ctx, "s")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKeys(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}
