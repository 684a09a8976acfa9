package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/peebers/placebook/internal/domain"
	"github.com/peebers/placebook/internal/mapsurface"
)

type photoView struct {
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int    `json:"bytes"`
}

type markerView struct {
	Handle   mapsurface.Handle    `json:"handle"`
	Title    string               `json:"title"`
	Snippet  string               `json:"snippet,omitempty"`
	Position domain.LatLng        `json:"position"`
	Place    *domain.PlaceDetails `json:"place,omitempty"`
	Photo    *photoView           `json:"photo,omitempty"`
}

type bookmarkView struct {
	ID        int64         `json:"id"`
	PlaceID   string        `json:"place_id"`
	Name      string        `json:"name"`
	Address   string        `json:"address,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Location  domain.LatLng `json:"location"`
	Icon      string        `json:"icon,omitempty"`
	Notes     string        `json:"notes,omitempty"`
	HasPhoto  bool          `json:"has_photo"`
	CreatedAt time.Time     `json:"created_at"`
}

func newPhotoView(p *domain.PhotoAsset) *photoView {
	if p == nil {
		return nil
	}
	return &photoView{MimeType: p.MimeType, Width: p.Width, Height: p.Height, Bytes: len(p.Data)}
}

func newMarkerView(m mapsurface.Marker, annotation *domain.Annotation) markerView {
	v := markerView{
		Handle:   m.Handle,
		Title:    m.Options.Title,
		Snippet:  m.Options.Snippet,
		Position: m.Options.Position,
	}
	if annotation != nil {
		v.Place = annotation.Place
		v.Photo = newPhotoView(annotation.Photo)
	}
	return v
}

func newBookmarkView(b *domain.Bookmark) bookmarkView {
	return bookmarkView{
		ID:        b.ID,
		PlaceID:   b.PlaceID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		Location:  b.Location,
		Icon:      b.Icon,
		Notes:     b.Notes,
		HasPhoto:  b.PhotoKey != "" || len(b.Photo) > 0,
		CreatedAt: b.CreatedAt,
	}
}

func newBookmarkViews(list []*domain.Bookmark) []bookmarkView {
	views := make([]bookmarkView, 0, len(list))
	for _, b := range list {
		views = append(views, newBookmarkView(b))
	}
	return views
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write json failed", "error", err)
	}
}

func (s *Server) writeImage(w http.ResponseWriter, mimeType string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write photo failed", "error", err)
	}
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
