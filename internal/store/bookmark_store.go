package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/peebers/placebook/internal/domain"
)

const bookmarkColumns = `id, place_id, name, address, phone, latitude, longitude, photo_key, icon, notes, created_at`

// BookmarkStore persists bookmarks and signals its Notifier after every
// successful write.
type BookmarkStore struct {
	db      *sql.DB
	changes *Notifier
}

func NewBookmarkStore(db *sql.DB) *BookmarkStore {
	return &BookmarkStore{db: db, changes: NewNotifier()}
}

// Changes returns the notifier signalled on insert, update and delete.
func (s *BookmarkStore) Changes() *Notifier {
	return s.changes
}

// Insert stores b and returns the generated id. b itself is not modified.
func (s *BookmarkStore) Insert(ctx context.Context, b *domain.Bookmark) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (place_id, name, address, phone, latitude, longitude, photo_key, icon, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.PlaceID, b.Name, b.Address, b.Phone, b.Location.Lat, b.Location.Lng, b.PhotoKey, b.Icon, b.Notes)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bookmark: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	s.changes.Notify()
	return id, nil
}

func (s *BookmarkStore) GetByID(ctx context.Context, id int64) (*domain.Bookmark, error) {
	b, err := scanBookmark(s.db.QueryRowContext(ctx, `
		SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	return b, nil
}

func (s *BookmarkStore) List(ctx context.Context) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookmarkColumns+` FROM bookmarks ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	bookmarks := make([]*domain.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookmarks: %w", err)
	}

	return bookmarks, nil
}

func (s *BookmarkStore) Update(ctx context.Context, b *domain.Bookmark) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bookmarks
		SET place_id = ?, name = ?, address = ?, phone = ?, latitude = ?, longitude = ?,
		    photo_key = ?, icon = ?, notes = ?
		WHERE id = ?
	`, b.PlaceID, b.Name, b.Address, b.Phone, b.Location.Lat, b.Location.Lng, b.PhotoKey, b.Icon, b.Notes, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update bookmark: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("bookmark not found")
	}

	s.changes.Notify()
	return nil
}

func (s *BookmarkStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM bookmarks WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("bookmark not found")
	}

	s.changes.Notify()
	return nil
}

// Version returns the store-wide change counter. It is bumped by triggers on
// every insert, update and delete, including writes made through other
// connections or processes sharing the database file.
func (s *BookmarkStore) Version(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM bookmark_changes WHERE id = 1`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to read change version: %w", err)
	}
	return v, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (*domain.Bookmark, error) {
	b := &domain.Bookmark{}
	err := row.Scan(&b.ID, &b.PlaceID, &b.Name, &b.Address, &b.Phone,
		&b.Location.Lat, &b.Location.Lng, &b.PhotoKey, &b.Icon, &b.Notes, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}
