package photostore

import (
	"context"
	"errors"
	"io"
)

// OctetStream is the MIME type for photo bytes in no recognised image format.
const OctetStream = "application/octet-stream"

// ErrNotFound is returned by Get and Delete for unknown storage keys.
var ErrNotFound = errors.New("photo not found")

// PhotoStore holds bookmark photo bytes outside the database.
type PhotoStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}
