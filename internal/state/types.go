// Package state is the normalized in-memory store of entity records, their
// pending edits, save and delete status, and the shared undo history.
//
// A *Store is an immutable snapshot. Reducers return a new snapshot and copy
// only the maps on the path they change, so every record, edit set and result
// list that did not change keeps its identity across snapshots. The memoized
// selectors depend on that.
package state

import (
	"editstate/internal/config"
	"editstate/internal/query"
	"editstate/internal/undo"
)

type (
	Key      = query.Key
	Presence = query.Presence
	Record   = map[string]any
)

const (
	Unknown   = query.Unknown
	NotLoaded = query.NotLoaded
	Loaded    = query.Loaded
)

// RequestStatus tracks a save or delete request. It is kept after the
// request finishes so the last error stays readable.
type RequestStatus struct {
	Pending    bool
	Error      error
	IsAutosave bool
}

// EntityState is everything stored for one (kind, name) pair.
type EntityState struct {
	Queried  *query.State
	Edits    map[Key]Record
	Saving   map[Key]RequestStatus
	Deleting map[Key]RequestStatus
}

func newEntityState() *EntityState {
	return &EntityState{
		Queried:  query.NewState(),
		Edits:    map[Key]Record{},
		Saving:   map[Key]RequestStatus{},
		Deleting: map[Key]RequestStatus{},
	}
}

type Store struct {
	Entities    map[string]map[string]*EntityState
	Undo        undo.History
	Permissions map[string]bool
}

// New returns an empty snapshot in which every configured entity exists but
// holds no data yet.
func New(registry *config.Registry) *Store {
	s := &Store{
		Entities:    map[string]map[string]*EntityState{},
		Undo:        undo.New(),
		Permissions: map[string]bool{},
	}
	if registry == nil {
		return s
	}
	for _, entity := range registry.Entities {
		names, ok := s.Entities[entity.Kind]
		if !ok {
			names = map[string]*EntityState{}
			s.Entities[entity.Kind] = names
		}
		names[entity.Name] = newEntityState()
	}
	return s
}

// Entity returns the state of a (kind, name) pair; false means the pair is
// not part of this store at all.
func (s *Store) Entity(kind, name string) (*EntityState, bool) {
	if s == nil {
		return nil, false
	}
	names, ok := s.Entities[kind]
	if !ok {
		return nil, false
	}
	entity, ok := names[name]
	if !ok || entity == nil {
		return nil, false
	}
	return entity, true
}

// PermissionKey builds the lookup key for a user capability. An empty id
// addresses the whole resource.
func PermissionKey(action, resource, id string) string {
	if id == "" {
		return action + "/" + resource
	}
	return action + "/" + resource + "/" + id
}
