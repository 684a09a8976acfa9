package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/peebers/placebook/internal/domain"
	"github.com/peebers/placebook/internal/imaging"
	"github.com/peebers/placebook/internal/photostore"
	"github.com/peebers/placebook/internal/store"
)

var (
	ErrAlreadyPersisted = errors.New("bookmark already has an id")
	ErrNotPersisted     = errors.New("bookmark has no id")
)

// bookmarkStore is the subset of store.BookmarkStore that BookmarkRepository requires.
type bookmarkStore interface {
	Insert(ctx context.Context, b *domain.Bookmark) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Bookmark, error)
	List(ctx context.Context) ([]*domain.Bookmark, error)
	Update(ctx context.Context, b *domain.Bookmark) error
	Delete(ctx context.Context, id int64) error
	Changes() *store.Notifier
	Version(ctx context.Context) (int64, error)
}

// DefaultPollInterval is how often a subscription checks the store for
// writes made outside this process.
const DefaultPollInterval = 500 * time.Millisecond

type BookmarkRepository struct {
	store        bookmarkStore
	photos       photostore.PhotoStore
	logger       *slog.Logger
	pollInterval time.Duration
}

type Option func(*BookmarkRepository)

// WithPollInterval sets how often subscriptions poll for outside writes.
// Non-positive values keep the default.
func WithPollInterval(d time.Duration) Option {
	return func(r *BookmarkRepository) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func NewBookmarkRepository(s bookmarkStore, photos photostore.PhotoStore, logger *slog.Logger, opts ...Option) *BookmarkRepository {
	r := &BookmarkRepository{
		store:        s,
		photos:       photos,
		logger:       logger,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create returns a blank bookmark with no id.
func (r *BookmarkRepository) Create() *domain.Bookmark {
	return &domain.Bookmark{}
}

// Add persists b and its photo, sets b.ID and returns it. Failures are
// *domain.StorageError; nothing is retried.
func (r *BookmarkRepository) Add(ctx context.Context, b *domain.Bookmark) (int64, error) {
	if b.HasID() {
		return 0, &domain.StorageError{Op: "add bookmark", Err: ErrAlreadyPersisted}
	}

	row := *b
	if len(b.Photo) > 0 {
		mimeType, ok := imaging.DetectMIME(b.Photo)
		if !ok {
			mimeType = photostore.OctetStream
		}
		key, err := r.photos.Save(ctx, "place_"+b.PlaceID, mimeType, bytes.NewReader(b.Photo))
		if err != nil {
			return 0, &domain.StorageError{Op: "save bookmark photo", Err: err}
		}
		row.PhotoKey = key
	}

	id, err := r.store.Insert(ctx, &row)
	if err != nil {
		if row.PhotoKey != "" {
			if derr := r.photos.Delete(ctx, row.PhotoKey); derr != nil {
				r.logger.Error("failed to roll back bookmark photo", "storage_key", row.PhotoKey, "error", derr)
			}
		}
		return 0, &domain.StorageError{Op: "insert bookmark", Err: err}
	}

	b.ID = id
	b.PhotoKey = row.PhotoKey
	r.logger.Info("bookmark added", "id", id, "place_id", b.PlaceID, "has_photo", row.PhotoKey != "")
	return id, nil
}

func (r *BookmarkRepository) Get(ctx context.Context, id int64) (*domain.Bookmark, error) {
	b, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "get bookmark", Err: err}
	}
	return b, nil
}

// List returns a one-off snapshot of the collection.
func (r *BookmarkRepository) List(ctx context.Context) ([]*domain.Bookmark, error) {
	list, err := r.store.List(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "list bookmarks", Err: err}
	}
	return list, nil
}

func (r *BookmarkRepository) Update(ctx context.Context, b *domain.Bookmark) error {
	if !b.HasID() {
		return &domain.StorageError{Op: "update bookmark", Err: ErrNotPersisted}
	}
	if err := r.store.Update(ctx, b); err != nil {
		return &domain.StorageError{Op: "update bookmark", Err: err}
	}
	return nil
}

// Delete removes the bookmark and, best effort, its photo file.
func (r *BookmarkRepository) Delete(ctx context.Context, id int64) error {
	b, err := r.store.GetByID(ctx, id)
	if err != nil {
		return &domain.StorageError{Op: "delete bookmark", Err: err}
	}
	if b == nil {
		return &domain.StorageError{Op: "delete bookmark", Err: fmt.Errorf("bookmark %d not found", id)}
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return &domain.StorageError{Op: "delete bookmark", Err: err}
	}

	if b.PhotoKey != "" {
		if err := r.photos.Delete(ctx, b.PhotoKey); err != nil {
			r.logger.Error("failed to delete bookmark photo", "storage_key", b.PhotoKey, "error", err)
		}
	}
	return nil
}

// Photo loads the persisted photo bytes of b. It returns (nil, "", nil) when
// the bookmark has no photo.
func (r *BookmarkRepository) Photo(ctx context.Context, b *domain.Bookmark) ([]byte, string, error) {
	if b.PhotoKey == "" {
		return nil, "", nil
	}

	rc, mimeType, err := r.photos.Get(ctx, b.PhotoKey)
	if err != nil {
		return nil, "", &domain.StorageError{Op: "get bookmark photo", Err: err}
	}
	defer func() {
		if err := rc.Close(); err != nil {
			r.logger.Error("failed to close photo reader", "storage_key", b.PhotoKey, "error", err)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", &domain.StorageError{Op: "read bookmark photo", Err: err}
	}
	return data, mimeType, nil
}
