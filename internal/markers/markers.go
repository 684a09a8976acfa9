// Package markers binds rendered map markers to their resolved annotations.
package markers

import (
	"sync"
	"sync/atomic"

	"github.com/peebers/placebook/internal/domain"
	"github.com/peebers/placebook/internal/mapsurface"
)

// AnnotationStore holds at most one annotation per marker handle. Bindings
// are consumed once; operations on distinct handles do not contend.
type AnnotationStore struct {
	bindings sync.Map // mapsurface.Handle -> *domain.Annotation
	size     atomic.Int64
}

func NewAnnotationStore() *AnnotationStore {
	return &AnnotationStore{}
}

// Bind associates annotation with handle. It reports false, leaving the
// existing binding untouched, if handle is already bound.
func (s *AnnotationStore) Bind(handle mapsurface.Handle, annotation *domain.Annotation) bool {
	if annotation == nil || annotation.Place == nil {
		return false
	}
	if _, loaded := s.bindings.LoadOrStore(handle, annotation); loaded {
		return false
	}
	s.size.Add(1)
	return true
}

// Consume removes and returns the binding for handle. Any later call for the
// same handle returns (nil, false).
func (s *AnnotationStore) Consume(handle mapsurface.Handle) (*domain.Annotation, bool) {
	v, ok := s.bindings.LoadAndDelete(handle)
	if !ok {
		return nil, false
	}
	s.size.Add(-1)
	return v.(*domain.Annotation), true
}

// Peek returns the binding without consuming it.
func (s *AnnotationStore) Peek(handle mapsurface.Handle) (*domain.Annotation, bool) {
	v, ok := s.bindings.Load(handle)
	if !ok {
		return nil, false
	}
	return v.(*domain.Annotation), true
}

// Discard drops the binding for a marker that went away without a click.
func (s *AnnotationStore) Discard(handle mapsurface.Handle) {
	if _, ok := s.bindings.LoadAndDelete(handle); ok {
		s.size.Add(-1)
	}
}

func (s *AnnotationStore) Len() int {
	return int(s.size.Load())
}
