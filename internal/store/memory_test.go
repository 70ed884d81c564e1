package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, sampleBrief("m1")))

	out, err := st.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "best seo tools", out.Keyword)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, sampleBrief("m1")))

	a, err := st.Get(ctx, "m1")
	require.NoError(t, err)
	a.Keyword = "mutated"

	b, err := st.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "best seo tools", b.Keyword)
}

func TestMemoryMissingAndDelete(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Put(ctx, sampleBrief("m1")))
	require.NoError(t, st.Delete(ctx, "m1"))

	_, err = st.Get(ctx, "m1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryList(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, sampleBrief("a")))
	require.NoError(t, st.Put(ctx, sampleBrief("b")))

	ids, err := st.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
