package selectors

import (
	"sort"

	"editstate/internal/state"
)

// DirtyRecord identifies a record with unsaved changes or a save in flight.
type DirtyRecord struct {
	Kind  string
	Name  string
	Key   state.Key
	Title string
}

// GetDirtyEntityRecords lists every record that has non-transient edits on
// top of a loaded record, or a save in flight. The list is ordered by kind,
// name, then key.
func (s *Selectors) GetDirtyEntityRecords(st *state.Store) []DirtyRecord {
	if st == nil {
		return nil
	}
	return s.dirty.Get(struct{}{}, []any{st.Entities}, func() []DirtyRecord {
		return s.collect(st, func(e *state.EntityState, kind, name string, key state.Key) bool {
			if s.IsSavingEntityRecord(st, kind, name, key) {
				return true
			}
			if len(s.GetEntityRecordNonTransientEdits(st, kind, name, key)) == 0 {
				return false
			}
			_, presence := s.GetRawEntityRecord(st, kind, name, key)
			return presence == state.Loaded
		})
	})
}

// GetEntitiesBeingSaved lists every record whose save is in flight,
// regardless of its edits.
func (s *Selectors) GetEntitiesBeingSaved(st *state.Store) []DirtyRecord {
	if st == nil {
		return nil
	}
	return s.saving.Get(struct{}{}, []any{st.Entities}, func() []DirtyRecord {
		return s.collect(st, func(e *state.EntityState, kind, name string, key state.Key) bool {
			return s.IsSavingEntityRecord(st, kind, name, key)
		})
	})
}

func (s *Selectors) collect(st *state.Store, include func(e *state.EntityState, kind, name string, key state.Key) bool) []DirtyRecord {
	out := []DirtyRecord{}
	for kind, names := range st.Entities {
		for name, entity := range names {
			if entity == nil || (len(entity.Edits) == 0 && len(entity.Saving) == 0) {
				continue
			}
			cfg, _ := s.registry.Entity(kind, name)

			keys := make(map[state.Key]struct{}, len(entity.Edits)+len(entity.Saving))
			for key := range entity.Edits {
				keys[key] = struct{}{}
			}
			for key := range entity.Saving {
				keys[key] = struct{}{}
			}

			for key := range keys {
				if !include(entity, kind, name, key) {
					continue
				}
				out = append(out, DirtyRecord{
					Kind:  kind,
					Name:  name,
					Key:   key,
					Title: cfg.Title(s.GetEditedEntityRecord(st, kind, name, key)),
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Key < out[j].Key
	})
	return out
}
