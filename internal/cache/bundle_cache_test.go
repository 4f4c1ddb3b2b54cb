package cache

import (
	"context"
	"testing"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/blagoySimandov/bundlestore/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*state.InMemoryStore
	gets int
}

func (c *countingStore) GetBundle(ctx context.Context, id string) (*models.Bundle, error) {
	c.gets++
	return c.InMemoryStore.GetBundle(ctx, id)
}

func newCounting(t *testing.T) *countingStore {
	t.Helper()
	s := &countingStore{InMemoryStore: state.NewInMemoryStore()}
	require.NoError(t, s.InMemoryStore.SaveBundle(context.Background(), &models.Bundle{ID: "b1", Name: "Spring"}))
	return s
}

func TestCachedStore_HitsAvoidDelegate(t *testing.T) {
	ctx := context.Background()
	delegate := newCounting(t)
	cs := NewCachedStore(delegate, 8, time.Minute)

	for range 3 {
		b, err := cs.GetBundle(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "Spring", b.Name)
	}
	assert.Equal(t, 1, delegate.gets)
	assert.Equal(t, 1, cs.Len())
}

func TestCachedStore_ExpiredEntryRefetches(t *testing.T) {
	ctx := context.Background()
	delegate := newCounting(t)
	cs := NewCachedStore(delegate, 8, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cs.now = func() time.Time { return clock }

	_, err := cs.GetBundle(ctx, "b1")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	_, err = cs.GetBundle(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, delegate.gets)
}

func TestCachedStore_SaveInvalidates(t *testing.T) {
	ctx := context.Background()
	delegate := newCounting(t)
	cs := NewCachedStore(delegate, 8, time.Minute)

	_, err := cs.GetBundle(ctx, "b1")
	require.NoError(t, err)

	require.NoError(t, cs.SaveBundle(ctx, &models.Bundle{ID: "b1", Name: "Summer"}))
	b, err := cs.GetBundle(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Summer", b.Name)
	assert.Equal(t, 2, delegate.gets)
}

func TestCachedStore_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	delegate := newCounting(t)
	cs := NewCachedStore(delegate, 8, time.Minute)

	_, err := cs.GetBundle(ctx, "nope")
	assert.ErrorIs(t, err, state.ErrNotFound)
	assert.Equal(t, 0, cs.Len())
}
