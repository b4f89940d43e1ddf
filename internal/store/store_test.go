package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationKey_Deterministic(t *testing.T) {
	key := ConversationKey("pn-1", "1555")
	assert.Equal(t, "whatsapp:pn-1:1555", key)
	assert.Equal(t, key, ConversationKey("pn-1", "1555"))
}

func TestConversationKey_DistinctPairs(t *testing.T) {
	assert.NotEqual(t, ConversationKey("pn-1", "1555"), ConversationKey("pn-2", "1555"))
	assert.NotEqual(t, ConversationKey("pn-1", "1555"), ConversationKey("pn-1", "1666"))
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()
	value, err := m.Get(context.Background(), "whatsapp:pn:user")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("conv-1")))
	value, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("conv-1"), value)

	// Overwrite-on-write.
	require.NoError(t, m.Set(ctx, "k", []byte("conv-2")))
	value, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("conv-2"), value)
}

func TestMemory_CopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	original := []byte("token")
	require.NoError(t, m.Set(ctx, "k", original))
	original[0] = 'X'

	value, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("token"), value)
}
