package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/peebers/placebook/internal/domain"
	"github.com/peebers/placebook/internal/mapsurface"
	"github.com/peebers/placebook/internal/markers"
	"github.com/peebers/placebook/internal/pipeline"
)

// ErrMarkerNotFound is returned when a clicked marker has no binding, either
// because it was already consumed or because the handle is stale.
var ErrMarkerNotFound = errors.New("marker not found")

// ErrMarkerDismissed is returned by a tap whose marker was dismissed before
// its annotation could be bound.
var ErrMarkerDismissed = errors.New("marker dismissed before it was bound")

// lookupPipeline is the subset of pipeline.Pipeline that MapService requires.
type lookupPipeline interface {
	Start(ctx context.Context, ref string, opts ...pipeline.Option) *pipeline.Lookup
}

// bookmarkRepository is the subset of repository.BookmarkRepository that MapService requires.
type bookmarkRepository interface {
	Create() *domain.Bookmark
	Add(ctx context.Context, b *domain.Bookmark) (int64, error)
}

// MapService turns map events into lookups, markers and bookmarks.
type MapService struct {
	pipeline    lookupPipeline
	annotations *markers.AnnotationStore
	surface     mapsurface.Surface
	bookmarks   bookmarkRepository
	logger      *slog.Logger
}

func NewMapService(
	p lookupPipeline,
	annotations *markers.AnnotationStore,
	surface mapsurface.Surface,
	bookmarks bookmarkRepository,
	logger *slog.Logger,
) *MapService {
	return &MapService{
		pipeline:    p,
		annotations: annotations,
		surface:     surface,
		bookmarks:   bookmarks,
		logger:      logger,
	}
}

// Placed is the outcome of a successful POI tap.
type Placed struct {
	Handle     mapsurface.Handle
	Annotation *domain.Annotation
}

// Tap is a POI tap in flight. Result is valid once Done is closed.
type Tap struct {
	Lookup *pipeline.Lookup
	done   chan struct{}
	placed *Placed
	err    error
}

func (t *Tap) Done() <-chan struct{} {
	return t.done
}

// Result returns the placed marker, or the lookup or marker error.
func (t *Tap) Result() (*Placed, error) {
	select {
	case <-t.done:
		return t.placed, t.err
	default:
		return nil, nil
	}
}

func (t *Tap) Wait(ctx context.Context) (*Placed, error) {
	select {
	case <-t.done:
		return t.placed, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TapPOI starts resolving ref. When the lookup succeeds a marker is added to
// the surface and bound to the annotation; when it fails nothing is shown.
// Identical concurrent taps are not merged.
func (s *MapService) TapPOI(ctx context.Context, ref string, opts ...pipeline.Option) *Tap {
	s.logger.Info("poi tapped", "ref", ref)
	tap := &Tap{
		Lookup: s.pipeline.Start(ctx, ref, opts...),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(tap.done)
		<-tap.Lookup.Done()

		annotation, err := tap.Lookup.Result()
		if err != nil {
			tap.err = err
			return
		}

		placed, err := s.place(ctx, annotation)
		if err != nil {
			s.logger.Error("failed to place marker", "ref", ref, "error", err)
			tap.err = err
			return
		}
		tap.placed = placed
	}()

	return tap
}

func (s *MapService) place(ctx context.Context, annotation *domain.Annotation) (*Placed, error) {
	place := annotation.Place
	handle, err := s.surface.AddMarker(ctx, mapsurface.MarkerOptions{
		Position: place.Location,
		Title:    place.Name,
		Snippet:  place.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add marker: %w", err)
	}

	if !s.annotations.Bind(handle, annotation) {
		s.surface.RemoveMarker(handle)
		return nil, fmt.Errorf("marker %s already bound", handle)
	}
	// DismissMarker removes before it consumes, so a marker dismissed while
	// it was being bound is either still consumable here or already gone.
	if _, ok := s.surface.Marker(handle); !ok {
		s.annotations.Discard(handle)
		return nil, fmt.Errorf("%w: %s", ErrMarkerDismissed, handle)
	}

	s.logger.Info("marker placed", "handle", handle, "place_id", place.ID, "has_photo", annotation.Photo != nil)
	return &Placed{Handle: handle, Annotation: annotation}, nil
}

// Marker returns the annotation behind a live marker without consuming it.
func (s *MapService) Marker(handle mapsurface.Handle) (*domain.Annotation, bool) {
	return s.annotations.Peek(handle)
}

// ClickMarker consumes the marker's annotation, removes the marker from the
// surface and saves the place as a bookmark. A second click on the same
// handle returns ErrMarkerNotFound. Storage failures are returned as is.
func (s *MapService) ClickMarker(ctx context.Context, handle mapsurface.Handle) (*domain.Bookmark, error) {
	annotation, ok := s.annotations.Consume(handle)
	if !ok {
		return nil, ErrMarkerNotFound
	}
	s.surface.RemoveMarker(handle)

	b := s.bookmarkFromPlace(annotation)
	if _, err := s.bookmarks.Add(ctx, b); err != nil {
		s.logger.Error("failed to add bookmark", "handle", handle, "place_id", annotation.Place.ID, "error", err)
		return nil, err
	}

	return b, nil
}

// DismissMarker removes a marker and drops its annotation without saving.
func (s *MapService) DismissMarker(handle mapsurface.Handle) bool {
	removed := s.surface.RemoveMarker(handle)
	_, bound := s.annotations.Consume(handle)
	return bound || removed
}

func (s *MapService) bookmarkFromPlace(annotation *domain.Annotation) *domain.Bookmark {
	place := annotation.Place
	b := s.bookmarks.Create()
	b.PlaceID = place.ID
	b.Name = place.Name
	b.Address = place.Address
	b.Phone = place.Phone
	b.Location = place.Location
	if annotation.Photo != nil {
		b.Photo = annotation.Photo.Data
	}
	return b
}
