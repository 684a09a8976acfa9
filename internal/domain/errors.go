package domain

import (
	"errors"
	"fmt"
)

// ErrPhotoUnavailable is returned when a place photo could not be fetched or
// decoded. It never aborts a lookup.
var ErrPhotoUnavailable = errors.New("photo unavailable")

// PlaceNotFoundError is returned when the directory rejects or fails a place
// lookup. StatusCode carries the provider's status, or 0 when the request
// never produced a response.
type PlaceNotFoundError struct {
	Ref        string
	StatusCode int
	Err        error
}

func (e *PlaceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("place not found: %s (status %d): %v", e.Ref, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("place not found: %s (status %d)", e.Ref, e.StatusCode)
}

func (e *PlaceNotFoundError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failed persistence operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the provider status code from err, or 0.
func StatusCode(err error) int {
	var pnf *PlaceNotFoundError
	if errors.As(err, &pnf) {
		return pnf.StatusCode
	}
	return 0
}
