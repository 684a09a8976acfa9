package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/peebers/placebook/internal/domain"
	"github.com/peebers/placebook/internal/mapsurface"
	"github.com/peebers/placebook/internal/repository"
	"github.com/peebers/placebook/internal/service"
)

// markerLister is the subset of mapsurface.Memory that Server requires.
type markerLister interface {
	Markers() []mapsurface.Marker
	Marker(handle mapsurface.Handle) (mapsurface.Marker, bool)
}

// bookmarkRepository is the subset of repository.BookmarkRepository that Server requires.
type bookmarkRepository interface {
	Get(ctx context.Context, id int64) (*domain.Bookmark, error)
	List(ctx context.Context) ([]*domain.Bookmark, error)
	Update(ctx context.Context, b *domain.Bookmark) error
	Delete(ctx context.Context, id int64) error
	Photo(ctx context.Context, b *domain.Bookmark) ([]byte, string, error)
	AllBookmarks(ctx context.Context) *repository.Subscription
}

type Server struct {
	maps      *service.MapService
	surface   markerLister
	bookmarks bookmarkRepository
	mux       *http.ServeMux
	logger    *slog.Logger
}

func NewServer(maps *service.MapService, surface markerLister, bookmarks bookmarkRepository, logger *slog.Logger) *Server {
	s := &Server{
		maps:      maps,
		surface:   surface,
		bookmarks: bookmarks,
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /pois/{ref}/tap", s.handleTapPOI)
	s.mux.HandleFunc("GET /markers", s.handleListMarkers)
	s.mux.HandleFunc("GET /markers/{handle}", s.handleGetMarker)
	s.mux.HandleFunc("GET /markers/{handle}/photo", s.handleGetMarkerPhoto)
	s.mux.HandleFunc("POST /markers/{handle}/click", s.handleClickMarker)
	s.mux.HandleFunc("DELETE /markers/{handle}", s.handleDismissMarker)
	s.mux.HandleFunc("GET /bookmarks", s.handleListBookmarks)
	s.mux.HandleFunc("GET /bookmarks/stream", s.handleStreamBookmarks)
	s.mux.HandleFunc("GET /bookmarks/{id}", s.handleGetBookmark)
	s.mux.HandleFunc("GET /bookmarks/{id}/photo", s.handleGetBookmarkPhoto)
	s.mux.HandleFunc("PATCH /bookmarks/{id}", s.handleUpdateBookmark)
	s.mux.HandleFunc("DELETE /bookmarks/{id}", s.handleDeleteBookmark)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer's Flush and
// deadline methods.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
