package places

import (
	"context"
	"fmt"

	"github.com/peebers/placebook/internal/domain"
)

// Field names a piece of place data the directory should return.
type Field string

const (
	FieldID       Field = "id"
	FieldName     Field = "name"
	FieldPhone    Field = "phone"
	FieldPhotos   Field = "photos"
	FieldAddress  Field = "address"
	FieldLocation Field = "location"
)

// LookupFields is the field set requested for every POI lookup.
var LookupFields = []Field{FieldID, FieldName, FieldPhone, FieldPhotos, FieldAddress, FieldLocation}

type PhotoRequest struct {
	Ref       domain.PhotoRef
	MaxWidth  int
	MaxHeight int
}

// Directory answers place and photo queries for POI references.
type Directory interface {
	FetchPlace(ctx context.Context, ref string, fields []Field) (*domain.PlaceDetails, error)
	// FetchPhoto returns the raw image bytes and their MIME type.
	FetchPhoto(ctx context.Context, req PhotoRequest) ([]byte, string, error)
}

// APIError is a non-success answer from the directory.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("directory returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("directory returned status %d: %s", e.StatusCode, e.Message)
}
