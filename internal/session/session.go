// Package session owns the live store snapshot and every operation that
// replaces it: fetching records from the persistent store, editing, undo and
// redo, saving and deleting. Readers take a snapshot and query it through the
// selectors without locking.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"editstate/internal/config"
	"editstate/internal/logging"
	"editstate/internal/memo"
	"editstate/internal/resolution"
	"editstate/internal/selectors"
	"editstate/internal/state"
	"editstate/internal/store"
)

var (
	ErrUnknownEntity  = errors.New("unknown entity")
	ErrNothingToSave  = errors.New("nothing to save")
	ErrRecordNotFound = errors.New("record not found")
)

// Recorder receives save and delete outcomes.
type Recorder interface {
	RecordSave(kind, name string, autosave bool, err error)
	RecordDelete(kind, name string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordSave(string, string, bool, error) {}
func (nopRecorder) RecordDelete(string, string, error)     {}

type Options struct {
	Logger    *slog.Logger
	Recorder  Recorder
	CacheSize int
	// Observer receives selector cache events.
	Observer memo.Observer
}

type Session struct {
	registry   *config.Registry
	db         store.Store
	selectors  *selectors.Selectors
	resolution *resolution.Registry
	logger     *slog.Logger
	recorder   Recorder

	// mu serializes snapshot replacement; reads go through current.
	mu      sync.Mutex
	current atomic.Pointer[state.Store]
	fetches singleflight.Group
}

func New(registry *config.Registry, db store.Store, opts Options) *Session {
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	var memoOpts []memo.Option
	if opts.CacheSize > 0 {
		memoOpts = append(memoOpts, memo.WithSize(opts.CacheSize))
	}
	if opts.Observer != nil {
		memoOpts = append(memoOpts, memo.WithObserver(opts.Observer))
	}

	status := resolution.NewRegistry()
	s := &Session{
		registry:   registry,
		db:         db,
		selectors:  selectors.New(registry, status, memoOpts...),
		resolution: status,
		logger:     logging.OrDiscard(opts.Logger),
		recorder:   recorder,
	}
	s.current.Store(state.New(registry))
	return s
}

// Snapshot returns the current immutable store.
func (s *Session) Snapshot() *state.Store {
	return s.current.Load()
}

func (s *Session) Selectors() *selectors.Selectors {
	return s.selectors
}

func (s *Session) Registry() *config.Registry {
	return s.registry
}

// update applies fn to the current snapshot and publishes the result.
func (s *Session) update(fn func(st *state.Store) *state.Store) *state.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.current.Load())
	s.current.Store(next)
	return next
}

// Entity resolves a (kind, name) pair, matched case-insensitively, to its
// config. Selectors must be called with the config's Kind and Name.
func (s *Session) Entity(kind, name string) (*config.EntityConfig, error) {
	cfg, ok := s.registry.Entity(kind, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownEntity, kind, name)
	}
	return cfg, nil
}
