package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	maxNameLen   = 200
	maxNotesLen  = 4000
	maxPatchBody = 64 * 1024
)

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := s.bookmarks.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list bookmarks", http.StatusInternalServerError)
		s.logger.Error("list bookmarks failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newBookmarkViews(list))
}

func (s *Server) handleGetBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid bookmark id", http.StatusBadRequest)
		return
	}

	b, err := s.bookmarks.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to get bookmark", http.StatusInternalServerError)
		s.logger.Error("get bookmark failed", "bookmark_id", id, "error", err)
		return
	}
	if b == nil {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, newBookmarkView(b))
}

func (s *Server) handleGetBookmarkPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid bookmark id", http.StatusBadRequest)
		return
	}

	b, err := s.bookmarks.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to get bookmark", http.StatusInternalServerError)
		s.logger.Error("get bookmark for photo failed", "bookmark_id", id, "error", err)
		return
	}
	if b == nil {
		http.NotFound(w, r)
		return
	}

	data, mimeType, err := s.bookmarks.Photo(r.Context(), b)
	if err != nil || data == nil {
		http.NotFound(w, r)
		return
	}
	s.writeImage(w, mimeType, data)
}

type bookmarkPatch struct {
	Name  *string `json:"name"`
	Notes *string `json:"notes"`
}

func (s *Server) handleUpdateBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid bookmark id", http.StatusBadRequest)
		return
	}

	var patch bookmarkPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPatchBody)).Decode(&patch); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			http.Error(w, "bookmark name required", http.StatusBadRequest)
			return
		}
		if len(name) > maxNameLen {
			http.Error(w, "bookmark name too long", http.StatusBadRequest)
			return
		}
		patch.Name = &name
	}
	if patch.Notes != nil && len(*patch.Notes) > maxNotesLen {
		http.Error(w, "notes too long", http.StatusBadRequest)
		return
	}

	b, err := s.bookmarks.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to get bookmark", http.StatusInternalServerError)
		s.logger.Error("get bookmark for update failed", "bookmark_id", id, "error", err)
		return
	}
	if b == nil {
		http.NotFound(w, r)
		return
	}

	if patch.Name != nil {
		b.Name = *patch.Name
	}
	if patch.Notes != nil {
		b.Notes = *patch.Notes
	}
	if err := s.bookmarks.Update(r.Context(), b); err != nil {
		http.Error(w, "failed to update bookmark", http.StatusInternalServerError)
		s.logger.Error("update bookmark failed", "bookmark_id", id, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newBookmarkView(b))
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid bookmark id", http.StatusBadRequest)
		return
	}

	b, err := s.bookmarks.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to get bookmark", http.StatusInternalServerError)
		s.logger.Error("get bookmark for delete failed", "bookmark_id", id, "error", err)
		return
	}
	if b == nil {
		http.NotFound(w, r)
		return
	}

	if err := s.bookmarks.Delete(r.Context(), id); err != nil {
		http.Error(w, "failed to delete bookmark", http.StatusInternalServerError)
		s.logger.Error("delete bookmark failed", "bookmark_id", id, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStreamBookmarks responds with an SSE stream. Each event carries the
// whole bookmark collection as a JSON array; a new event follows every write.
// The stream ends when the client goes away.
func (s *Server) handleStreamBookmarks(w http.ResponseWriter, r *http.Request) {
	sub := s.bookmarks.AllBookmarks(r.Context())
	defer sub.Cancel()

	rc := http.NewResponseController(w)
	// The stream is long-lived; lift the server's write timeout for it.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	enc := json.NewEncoder(w)
	for list := range sub.Updates() {
		if _, err := w.Write([]byte("data: ")); err != nil {
			return
		}
		if err := enc.Encode(newBookmarkViews(list)); err != nil {
			return
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			s.logger.Error("flush bookmark stream failed", "error", err)
			return
		}
	}
}
