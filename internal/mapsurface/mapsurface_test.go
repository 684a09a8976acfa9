package mapsurface

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peebers/placebook/internal/domain"
)

func TestMemoryAddAndRemove(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	h, err := m.AddMarker(ctx, MarkerOptions{Position: domain.LatLng{Lat: 37, Lng: -122}, Title: "Cafe X", Snippet: "555-1111"})
	require.NoError(t, err)
	assert.NotEmpty(t, h)

	mk, ok := m.Marker(h)
	require.True(t, ok)
	assert.Equal(t, "Cafe X", mk.Options.Title)
	assert.Len(t, m.Markers(), 1)

	assert.True(t, m.RemoveMarker(h))
	assert.False(t, m.RemoveMarker(h))
	assert.Empty(t, m.Markers())
}

func TestMemoryHandlesAreDistinct(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	opts := MarkerOptions{Title: "Same place"}

	a, err := m.AddMarker(ctx, opts)
	require.NoError(t, err)
	b, err := m.AddMarker(ctx, opts)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	_, err := m.AddMarker(context.Background(), MarkerOptions{})
	require.NoError(t, err)

	m.Close()
	assert.Empty(t, m.Markers())

	_, err = m.AddMarker(context.Background(), MarkerOptions{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().AddMarker(ctx, MarkerOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
