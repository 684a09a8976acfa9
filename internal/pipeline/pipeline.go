// Package pipeline resolves a tapped POI into a marker annotation: a
// directory lookup followed by an optional photo fetch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/peebers/placebook/internal/domain"
	"github.com/peebers/placebook/internal/imaging"
	"github.com/peebers/placebook/internal/places"
)

type Pipeline struct {
	directory places.Directory
	maxWidth  int
	maxHeight int
	logger    *slog.Logger
}

// New returns a pipeline that caps fetched photos to maxWidth x maxHeight.
func New(directory places.Directory, maxWidth, maxHeight int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		directory: directory,
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		logger:    logger,
	}
}

// Resolve fetches the lookup field set for ref. Every failure is reported as
// a *domain.PlaceNotFoundError carrying the directory status when known.
func (p *Pipeline) Resolve(ctx context.Context, ref string) (*domain.PlaceDetails, error) {
	details, err := p.directory.FetchPlace(ctx, ref, places.LookupFields)
	if err != nil {
		pnf := &domain.PlaceNotFoundError{Ref: ref, Err: err}
		var apiErr *places.APIError
		if errors.As(err, &apiErr) {
			pnf.StatusCode = apiErr.StatusCode
		}
		return nil, pnf
	}
	if details == nil {
		return nil, &domain.PlaceNotFoundError{Ref: ref, Err: errors.New("empty directory response")}
	}
	return details, nil
}

// FetchPhoto returns the first photo of details scaled to the configured
// bounds. A place without photo references yields (nil, nil) and no request
// is made. Failures wrap domain.ErrPhotoUnavailable.
func (p *Pipeline) FetchPhoto(ctx context.Context, details *domain.PlaceDetails) (*domain.PhotoAsset, error) {
	ref := details.FirstPhoto()
	if ref == nil {
		return nil, nil
	}

	data, _, err := p.directory.FetchPhoto(ctx, places.PhotoRequest{
		Ref:       *ref,
		MaxWidth:  p.maxWidth,
		MaxHeight: p.maxHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPhotoUnavailable, err)
	}

	asset, err := imaging.Fit(data, p.maxWidth, p.maxHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPhotoUnavailable, err)
	}
	return asset, nil
}

// Run performs one lookup on the calling goroutine.
func (p *Pipeline) Run(ctx context.Context, ref string, opts ...Option) (*domain.Annotation, error) {
	l := newLookup(ref, opts)
	l.run(ctx, p)
	return l.Result()
}

// Start performs one lookup on its own goroutine. Lookups started for the
// same ref are independent of each other.
func (p *Pipeline) Start(ctx context.Context, ref string, opts ...Option) *Lookup {
	l := newLookup(ref, opts)
	go l.run(ctx, p)
	return l
}
