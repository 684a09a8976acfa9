// Package mapsurface models the map that renders markers. The real renderer
// lives outside this module; Memory keeps markers in process for the HTTP
// surface and tests.
package mapsurface

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/peebers/placebook/internal/domain"
)

// Handle is the opaque identity of one rendered marker.
type Handle string

type MarkerOptions struct {
	Position domain.LatLng
	Title    string
	Snippet  string
}

type Marker struct {
	Handle    Handle
	Options   MarkerOptions
	CreatedAt time.Time
}

// Surface accepts marker commands.
type Surface interface {
	AddMarker(ctx context.Context, opts MarkerOptions) (Handle, error)
	// RemoveMarker reports whether the marker was still on the surface.
	RemoveMarker(handle Handle) bool
	Marker(handle Handle) (Marker, bool)
}

var ErrClosed = errors.New("map surface closed")

type Memory struct {
	mu      sync.Mutex
	markers map[Handle]Marker
	closed  bool
}

func NewMemory() *Memory {
	return &Memory{markers: make(map[Handle]Marker)}
}

func (m *Memory) AddMarker(ctx context.Context, opts MarkerOptions) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	h := Handle(uuid.NewString())
	m.markers[h] = Marker{Handle: h, Options: opts, CreatedAt: time.Now()}
	return h, nil
}

func (m *Memory) RemoveMarker(handle Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.markers[handle]; !ok {
		return false
	}
	delete(m.markers, handle)
	return true
}

func (m *Memory) Marker(handle Handle) (Marker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.markers[handle]
	return mk, ok
}

// Markers lists live markers, oldest first.
func (m *Memory) Markers() []Marker {
	m.mu.Lock()
	out := make([]Marker, 0, len(m.markers))
	for _, mk := range m.markers {
		out = append(out, mk)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Handle < out[j].Handle
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Close rejects further markers and clears the surface.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.markers = make(map[Handle]Marker)
}
