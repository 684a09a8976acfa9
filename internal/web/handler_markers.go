package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/peebers/placebook/internal/domain"
	"github.com/peebers/placebook/internal/mapsurface"
	"github.com/peebers/placebook/internal/service"
)

type tapView struct {
	Ref        string      `json:"ref"`
	State      string      `json:"state"`
	Marker     *markerView `json:"marker,omitempty"`
	Error      string      `json:"error,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
}

func (s *Server) handleTapPOI(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	if ref == "" {
		http.Error(w, "poi ref required", http.StatusBadRequest)
		return
	}

	// The lookup outlives the request so that a marker still appears when the
	// client does not wait for it.
	tap := s.maps.TapPOI(context.WithoutCancel(r.Context()), ref)

	if r.URL.Query().Get("wait") != "1" {
		s.writeJSON(w, http.StatusAccepted, tapView{Ref: ref, State: tap.Lookup.State().String()})
		return
	}

	placed, err := tap.Wait(r.Context())
	if r.Context().Err() != nil {
		return
	}
	view := tapView{Ref: ref, State: tap.Lookup.State().String()}

	var notFound *domain.PlaceNotFoundError
	switch {
	case errors.As(err, &notFound):
		view.Error = notFound.Error()
		view.StatusCode = notFound.StatusCode
		s.writeJSON(w, http.StatusNotFound, view)
	case errors.Is(err, service.ErrMarkerDismissed):
		view.Error = err.Error()
		s.writeJSON(w, http.StatusConflict, view)
	case err != nil:
		s.logger.Error("tap poi failed", "ref", ref, "error", err)
		http.Error(w, "failed to place marker", http.StatusInternalServerError)
	default:
		mv := newMarkerView(mapsurface.Marker{
			Handle: placed.Handle,
			Options: mapsurface.MarkerOptions{
				Position: placed.Annotation.Place.Location,
				Title:    placed.Annotation.Place.Name,
				Snippet:  placed.Annotation.Place.Phone,
			},
		}, placed.Annotation)
		view.Marker = &mv
		s.writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	markers := s.surface.Markers()
	views := make([]markerView, 0, len(markers))
	for _, m := range markers {
		annotation, _ := s.maps.Marker(m.Handle)
		views = append(views, newMarkerView(m, annotation))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetMarker(w http.ResponseWriter, r *http.Request) {
	handle := mapsurface.Handle(r.PathValue("handle"))
	m, onSurface := s.surface.Marker(handle)
	annotation, bound := s.maps.Marker(handle)
	if !onSurface || !bound {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, newMarkerView(m, annotation))
}

func (s *Server) handleGetMarkerPhoto(w http.ResponseWriter, r *http.Request) {
	annotation, ok := s.maps.Marker(mapsurface.Handle(r.PathValue("handle")))
	if !ok || annotation.Photo == nil {
		http.NotFound(w, r)
		return
	}
	s.writeImage(w, annotation.Photo.MimeType, annotation.Photo.Data)
}

func (s *Server) handleClickMarker(w http.ResponseWriter, r *http.Request) {
	handle := mapsurface.Handle(r.PathValue("handle"))

	b, err := s.maps.ClickMarker(r.Context(), handle)
	if errors.Is(err, service.ErrMarkerNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to save bookmark", http.StatusInternalServerError)
		s.logger.Error("click marker failed", "handle", handle, "error", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, newBookmarkView(b))
}

func (s *Server) handleDismissMarker(w http.ResponseWriter, r *http.Request) {
	if !s.maps.DismissMarker(mapsurface.Handle(r.PathValue("handle"))) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
