package password

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, h.Compare(ctx, hash, "secret1"))
	assert.Error(t, h.Compare(ctx, hash, "wrong"))
}

func TestHash_SaltedPerCall(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	a, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)
	b, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHash_CancelledContextWhileGateFull(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)

	// Occupy the single slot so the next call has to wait.
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Hash(ctx, "secret1")
	assert.ErrorIs(t, err, context.Canceled)
}
