package pipeline

import (
	"context"
	"sync"

	"github.com/peebers/placebook/internal/domain"
)

type State int

const (
	Idle State = iota
	FetchingPlace
	FetchingPhoto
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FetchingPlace:
		return "fetching_place"
	case FetchingPhoto:
		return "fetching_photo"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Observer is told about every state transition of a lookup.
type Observer func(ref string, from, to State)

type Option func(*Lookup)

func WithObserver(o Observer) Option {
	return func(l *Lookup) {
		l.observers = append(l.observers, o)
	}
}

// Lookup is a single resolve-then-fetch-photo run. Its state only moves
// forward: Idle, FetchingPlace, then either Failed or FetchingPhoto and Done.
type Lookup struct {
	ref       string
	observers []Observer
	done      chan struct{}

	mu         sync.Mutex
	state      State
	annotation *domain.Annotation
	err        error
}

func newLookup(ref string, opts []Option) *Lookup {
	l := &Lookup{ref: ref, done: make(chan struct{})}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lookup) Ref() string {
	return l.ref
}

func (l *Lookup) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Done is closed once the lookup reaches Done or Failed.
func (l *Lookup) Done() <-chan struct{} {
	return l.done
}

// Result returns the annotation or the place error. Until State reports Done
// or Failed it returns (nil, nil); the terminal state and the result are
// published together.
func (l *Lookup) Result() (*domain.Annotation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.state.Terminal() {
		return nil, nil
	}
	return l.annotation, l.err
}

// Wait blocks until the lookup finishes or ctx is done.
func (l *Lookup) Wait(ctx context.Context) (*domain.Annotation, error) {
	select {
	case <-l.done:
		return l.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Lookup) transition(to State) {
	l.mu.Lock()
	from := l.state
	l.state = to
	l.mu.Unlock()

	l.notify(from, to)
}

func (l *Lookup) notify(from, to State) {
	for _, o := range l.observers {
		o(l.ref, from, to)
	}
}

func (l *Lookup) finish(annotation *domain.Annotation, err error) {
	to := Done
	if err != nil {
		to = Failed
	}

	l.mu.Lock()
	from := l.state
	l.annotation = annotation
	l.err = err
	l.state = to
	l.mu.Unlock()

	l.notify(from, to)
	close(l.done)
}

func (l *Lookup) run(ctx context.Context, p *Pipeline) {
	l.transition(FetchingPlace)
	details, err := p.Resolve(ctx, l.ref)
	if err != nil {
		p.logger.Error("place not found", "ref", l.ref, "status_code", domain.StatusCode(err), "error", err)
		l.finish(nil, err)
		return
	}

	l.transition(FetchingPhoto)
	photo, err := p.FetchPhoto(ctx, details)
	if err != nil {
		p.logger.Warn("photo unavailable", "ref", l.ref, "place_id", details.ID, "error", err)
		photo = nil
	}

	l.finish(&domain.Annotation{Place: details, Photo: photo}, nil)
}
