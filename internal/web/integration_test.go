package web_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peebers/placebook/internal/db"
	"github.com/peebers/placebook/internal/domain"
	"github.com/peebers/placebook/internal/mapsurface"
	"github.com/peebers/placebook/internal/markers"
	"github.com/peebers/placebook/internal/photostore/local"
	"github.com/peebers/placebook/internal/pipeline"
	"github.com/peebers/placebook/internal/places"
	"github.com/peebers/placebook/internal/repository"
	"github.com/peebers/placebook/internal/service"
	"github.com/peebers/placebook/internal/store"
	"github.com/peebers/placebook/internal/web"
)

// stubDirectory answers for poi_123 only.
type stubDirectory struct {
	photo []byte
}

func (s *stubDirectory) FetchPlace(_ context.Context, ref string, _ []places.Field) (*domain.PlaceDetails, error) {
	if ref != "poi_123" {
		return nil, &places.APIError{StatusCode: http.StatusNotFound, Message: "NOT_FOUND"}
	}
	return &domain.PlaceDetails{
		ID:       "p1",
		Name:     "Cafe X",
		Phone:    "555-1111",
		Address:  "1 Main St",
		Location: domain.LatLng{Lat: 37.0, Lng: -122.0},
		Photos:   []domain.PhotoRef{{Name: "m1"}},
	}, nil
}

func (s *stubDirectory) FetchPhoto(context.Context, places.PhotoRequest) ([]byte, string, error) {
	return s.photo, "image/png", nil
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// newTestServer wires a real web.Server over in-memory SQLite, a temp photo
// directory and the stub directory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	photos, err := local.NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	surface := mapsurface.NewMemory()
	repo := repository.NewBookmarkRepository(store.NewBookmarkStore(database), photos, slog.Default())
	maps := service.NewMapService(
		pipeline.New(&stubDirectory{photo: testPNG(t, 512, 512)}, 512, 512, slog.Default()),
		markers.NewAnnotationStore(),
		surface,
		repo,
		slog.Default(),
	)

	srv := httptest.NewServer(web.NewServer(maps, surface, repo, slog.Default()))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv
}

type tapResponse struct {
	Ref        string `json:"ref"`
	State      string `json:"state"`
	StatusCode int    `json:"status_code"`
	Marker     *struct {
		Handle string `json:"handle"`
		Title  string `json:"title"`
		Photo  *struct {
			Width int `json:"width"`
		} `json:"photo"`
	} `json:"marker"`
}

type bookmarkResponse struct {
	ID       int64  `json:"id"`
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Notes    string `json:"notes"`
	HasPhoto bool   `json:"has_photo"`
}

func do(t *testing.T, method, url string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func tapAndWait(t *testing.T, srv *httptest.Server, ref string) tapResponse {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/pois/"+ref+"/tap?wait=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[tapResponse](t, resp)
}

func TestIntegration_TapAndBookmark(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	tap := tapAndWait(t, srv, "poi_123")
	assert.Equal(t, "done", tap.State)
	require.NotNil(t, tap.Marker)
	assert.Equal(t, "Cafe X", tap.Marker.Title)
	require.NotNil(t, tap.Marker.Photo)
	assert.Equal(t, 512, tap.Marker.Photo.Width)
	handle := tap.Marker.Handle

	resp := do(t, http.MethodGet, srv.URL+"/markers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, resp), 1)

	resp = do(t, http.MethodGet, srv.URL+"/markers/"+handle+"/photo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = do(t, http.MethodPost, srv.URL+"/markers/"+handle+"/click", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	b := decode[bookmarkResponse](t, resp)
	assert.Equal(t, int64(1), b.ID)
	assert.Equal(t, "p1", b.PlaceID)
	assert.True(t, b.HasPhoto)

	resp = do(t, http.MethodPost, srv.URL+"/markers/"+handle+"/click", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/markers/"+handle, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/bookmarks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]bookmarkResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Cafe X", list[0].Name)

	resp = do(t, http.MethodGet, srv.URL+"/bookmarks/1/photo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestIntegration_TapUnknownPOI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/pois/poi_missing/tap?wait=1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	tap := decode[tapResponse](t, resp)
	assert.Equal(t, "failed", tap.State)
	assert.Equal(t, http.StatusNotFound, tap.StatusCode)
	assert.Nil(t, tap.Marker)

	resp = do(t, http.MethodGet, srv.URL+"/markers", nil)
	assert.Empty(t, decode[[]map[string]any](t, resp))
}

func TestIntegration_TapWithoutWait(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/pois/poi_123/tap", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "poi_123", decode[tapResponse](t, resp).Ref)

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/markers")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		var markers []map[string]any
		return json.NewDecoder(resp.Body).Decode(&markers) == nil && len(markers) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIntegration_DismissMarker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	handle := tapAndWait(t, srv, "poi_123").Marker.Handle

	resp := do(t, http.MethodDelete, srv.URL+"/markers/"+handle, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodDelete, srv.URL+"/markers/"+handle, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodPost, srv.URL+"/markers/"+handle+"/click", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_UpdateAndDeleteBookmark(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	handle := tapAndWait(t, srv, "poi_123").Marker.Handle
	resp := do(t, http.MethodPost, srv.URL+"/markers/"+handle+"/click", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodPatch, srv.URL+"/bookmarks/1", strings.NewReader(`{"notes":"great espresso"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b := decode[bookmarkResponse](t, resp)
	assert.Equal(t, "great espresso", b.Notes)
	assert.Equal(t, "Cafe X", b.Name)

	resp = do(t, http.MethodPatch, srv.URL+"/bookmarks/1", strings.NewReader(`{"name":"   "}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/bookmarks/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "great espresso", decode[bookmarkResponse](t, resp).Notes)

	resp = do(t, http.MethodDelete, srv.URL+"/bookmarks/1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/bookmarks/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/bookmarks/1/photo", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodPatch, srv.URL+"/bookmarks/1", strings.NewReader(`{"notes":"x"}`))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_InvalidBookmarkID(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/bookmarks/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_BookmarkStream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/bookmarks/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan []bookmarkResponse, 8)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}
			var list []bookmarkResponse
			if json.Unmarshal([]byte(line), &list) == nil {
				events <- list
			}
		}
	}()

	first := <-events
	assert.Empty(t, first)

	handle := tapAndWait(t, srv, "poi_123").Marker.Handle
	click := do(t, http.MethodPost, srv.URL+"/markers/"+handle+"/click", nil)
	require.Equal(t, http.StatusCreated, click.StatusCode)

	for list := range events {
		if len(list) == 1 {
			assert.Equal(t, int64(1), list[0].ID)
			return
		}
	}
	t.Fatal("stream ended before the bookmark arrived")
}
