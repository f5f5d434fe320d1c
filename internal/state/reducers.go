package state

import (
	"reflect"

	"editstate/internal/config"
	"editstate/internal/merge"
	"editstate/internal/query"
	"editstate/internal/undo"
)

// ReceiveRecords stores fetched records. collection marks a collection query
// whose ordered ids are kept for later paging.
func (s *Store) ReceiveRecords(cfg *config.EntityConfig, records []Record, q query.Query, collection bool) *Store {
	return s.withEntity(cfg, func(e *EntityState) {
		e.Queried = query.Receive(e.Queried, records, cfg.KeyField(), q, collection)
	})
}

// EditRecord merges edits into the record's pending edits. Fields edited back
// to their persisted value are dropped from the edits. When a non-transient
// field changes, the change is appended to the undo history.
func (s *Store) EditRecord(cfg *config.EntityConfig, key Key, edits Record) *Store {
	next, transition := s.applyEdits(cfg, key, edits)
	if len(transition.To) > 0 {
		next.Undo = next.Undo.Record(transition)
	}
	return next
}

// UndoEdit reverts the current history entry. With nothing to undo the receiver
// is returned unchanged.
func (s *Store) UndoEdit(registry *config.Registry) *Store {
	history, transition, ok := s.Undo.Undo()
	if !ok {
		return s
	}
	return s.replay(registry, history, transition, transition.From)
}

// RedoEdit re-applies the next history entry. With nothing to redo the receiver
// is returned unchanged.
func (s *Store) RedoEdit(registry *config.Registry) *Store {
	history, transition, ok := s.Undo.Redo()
	if !ok {
		return s
	}
	return s.replay(registry, history, transition, transition.To)
}

func (s *Store) replay(registry *config.Registry, history undo.History, t undo.Transition, values Record) *Store {
	next := s
	if cfg, ok := registry.Entity(t.Kind, t.Name); ok {
		next, _ = s.applyEdits(cfg, Key(t.Key), values)
	} else {
		next = s.shallowCopy()
	}
	next.Undo = history
	return next
}

func (s *Store) applyEdits(cfg *config.EntityConfig, key Key, edits Record) (*Store, undo.Transition) {
	transition := undo.Transition{Kind: cfg.Kind, Name: cfg.Name, Key: string(key)}

	next := s.withEntity(cfg, func(e *EntityState) {
		raw := e.rawRecord(cfg, key)
		current := e.Edits[key]

		updated := merge.Copy(current)
		for field, value := range edits {
			previous, ok := current[field]
			if !ok {
				previous = raw[field]
			}
			if !cfg.IsTransient(field) && !reflect.DeepEqual(previous, value) {
				if transition.From == nil {
					transition.From = Record{}
					transition.To = Record{}
				}
				transition.From[field] = previous
				transition.To[field] = value
			}
			if isPersisted(raw, field, value) {
				delete(updated, field)
				continue
			}
			updated[field] = value
		}

		e.Edits = copyMap(e.Edits)
		if len(updated) == 0 {
			delete(e.Edits, key)
			return
		}
		e.Edits[key] = updated
	})
	return next, transition
}

// isPersisted reports whether value equals what is already stored for field.
// A nil value matches a field the loaded record does not have.
func isPersisted(raw Record, field string, value any) bool {
	if raw == nil {
		return false
	}
	stored, ok := raw[field]
	if !ok {
		return value == nil
	}
	return reflect.DeepEqual(stored, value)
}

// ClearEdits discards every pending edit of a record.
func (s *Store) ClearEdits(cfg *config.EntityConfig, key Key) *Store {
	return s.withEntity(cfg, func(e *EntityState) {
		if _, ok := e.Edits[key]; !ok {
			return
		}
		e.Edits = copyMap(e.Edits)
		delete(e.Edits, key)
	})
}

func (s *Store) StartSave(cfg *config.EntityConfig, key Key, autosave bool) *Store {
	return s.withEntity(cfg, func(e *EntityState) {
		e.Saving = copyMap(e.Saving)
		e.Saving[key] = RequestStatus{Pending: true, IsAutosave: autosave}
	})
}

// FinishSave records the outcome of a save. On success the persisted record
// is received and every edit it now reflects is dropped.
func (s *Store) FinishSave(cfg *config.EntityConfig, key Key, err error, persisted Record) *Store {
	return s.withEntity(cfg, func(e *EntityState) {
		autosave := e.Saving[key].IsAutosave
		e.Saving = copyMap(e.Saving)
		e.Saving[key] = RequestStatus{Error: err, IsAutosave: autosave}

		if err != nil || persisted == nil {
			return
		}
		e.Queried = query.Receive(e.Queried, []map[string]any{persisted}, cfg.KeyField(), query.Query{}, false)

		current, ok := e.Edits[key]
		if !ok {
			return
		}
		raw := merge.Raw(persisted, cfg.RawAttributes)
		remaining := Record{}
		for field, value := range current {
			if !isPersisted(raw, field, value) {
				remaining[field] = value
			}
		}
		e.Edits = copyMap(e.Edits)
		if len(remaining) == 0 {
			delete(e.Edits, key)
			return
		}
		e.Edits[key] = remaining
	})
}

func (s *Store) StartDelete(cfg *config.EntityConfig, key Key) *Store {
	return s.withEntity(cfg, func(e *EntityState) {
		e.Deleting = copyMap(e.Deleting)
		e.Deleting[key] = RequestStatus{Pending: true}
	})
}

// FinishDelete records the outcome of a delete. On success the record is
// dropped from every context and result list along with its edits.
func (s *Store) FinishDelete(cfg *config.EntityConfig, key Key, err error) *Store {
	return s.withEntity(cfg, func(e *EntityState) {
		e.Deleting = copyMap(e.Deleting)
		e.Deleting[key] = RequestStatus{Error: err}
		if err != nil {
			return
		}
		e.Queried = query.Remove(e.Queried, key)
		if _, ok := e.Edits[key]; ok {
			e.Edits = copyMap(e.Edits)
			delete(e.Edits, key)
		}
	})
}

// ReceivePermission stores whether the user may perform action on a resource.
func (s *Store) ReceivePermission(action, resource, id string, allowed bool) *Store {
	next := s.shallowCopy()
	next.Permissions = copyMap(s.Permissions)
	next.Permissions[PermissionKey(action, resource, id)] = allowed
	return next
}

func (e *EntityState) rawRecord(cfg *config.EntityConfig, key Key) Record {
	item, presence := query.Project(e.Queried, key, query.Query{})
	if presence != Loaded {
		return nil
	}
	return merge.Raw(item, cfg.RawAttributes)
}

func (s *Store) shallowCopy() *Store {
	if s == nil {
		return &Store{Entities: map[string]map[string]*EntityState{}, Undo: undo.New(), Permissions: map[string]bool{}}
	}
	next := *s
	return &next
}

// withEntity copies the path down to one entity, lets fn replace the maps it
// changes on the copy, and returns the new snapshot.
func (s *Store) withEntity(cfg *config.EntityConfig, fn func(e *EntityState)) *Store {
	next := s.shallowCopy()

	var entity EntityState
	if existing, ok := s.Entity(cfg.Kind, cfg.Name); ok {
		entity = *existing
	} else {
		entity = *newEntityState()
	}
	fn(&entity)

	next.Entities = copyMap(next.Entities)
	names := copyMap(next.Entities[cfg.Kind])
	names[cfg.Name] = &entity
	next.Entities[cfg.Kind] = names
	return next
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
