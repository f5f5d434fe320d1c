package selectors

import (
	"editstate/internal/merge"
	"editstate/internal/state"
)

// GetEntityRecordEdits returns the pending edits of a record, transient
// fields included, or nil.
func (s *Selectors) GetEntityRecordEdits(st *state.Store, kind, name string, key state.Key) state.Record {
	entity, ok := st.Entity(kind, name)
	if !ok {
		return nil
	}
	return entity.Edits[key]
}

// GetEntityRecordNonTransientEdits returns the edits that count towards
// dirtiness and undo, or nil.
func (s *Selectors) GetEntityRecordNonTransientEdits(st *state.Store, kind, name string, key state.Key) state.Record {
	edits := s.GetEntityRecordEdits(st, kind, name, key)
	if len(edits) == 0 {
		return nil
	}
	var transient []string
	if cfg, ok := s.registry.Entity(kind, name); ok {
		transient = cfg.TransientEdits
	}
	args := entityKeyArgs{kind: kind, name: name, key: key}
	return s.nonTransient.Get(args, []any{edits}, func() state.Record {
		return merge.NonTransient(edits, transient)
	})
}

// HasEditsForEntityRecord reports unsaved non-transient edits or a save in
// flight.
func (s *Selectors) HasEditsForEntityRecord(st *state.Store, kind, name string, key state.Key) bool {
	return s.IsSavingEntityRecord(st, kind, name, key) ||
		len(s.GetEntityRecordNonTransientEdits(st, kind, name, key)) > 0
}

// GetEditedEntityRecord overlays the pending edits on the raw record. When
// the record has not loaded the result holds only the edited fields. It is
// nil only for an entity that does not exist.
func (s *Selectors) GetEditedEntityRecord(st *state.Store, kind, name string, key state.Key) state.Record {
	if _, ok := st.Entity(kind, name); !ok {
		return nil
	}
	raw, _ := s.GetRawEntityRecord(st, kind, name, key)
	edits := s.GetEntityRecordEdits(st, kind, name, key)
	args := entityKeyArgs{kind: kind, name: name, key: key}
	return s.edited.Get(args, []any{raw, edits}, func() state.Record {
		return merge.Edited(raw, edits)
	})
}

func (s *Selectors) IsSavingEntityRecord(st *state.Store, kind, name string, key state.Key) bool {
	status, ok := s.savingStatus(st, kind, name, key)
	return ok && status.Pending
}

func (s *Selectors) IsAutosavingEntityRecord(st *state.Store, kind, name string, key state.Key) bool {
	status, ok := s.savingStatus(st, kind, name, key)
	return ok && status.Pending && status.IsAutosave
}

func (s *Selectors) IsDeletingEntityRecord(st *state.Store, kind, name string, key state.Key) bool {
	status, ok := s.deletingStatus(st, kind, name, key)
	return ok && status.Pending
}

// GetLastEntitySaveError returns the error of the last finished save, if
// any.
func (s *Selectors) GetLastEntitySaveError(st *state.Store, kind, name string, key state.Key) error {
	status, _ := s.savingStatus(st, kind, name, key)
	return status.Error
}

func (s *Selectors) GetLastEntityDeleteError(st *state.Store, kind, name string, key state.Key) error {
	status, _ := s.deletingStatus(st, kind, name, key)
	return status.Error
}

func (s *Selectors) savingStatus(st *state.Store, kind, name string, key state.Key) (state.RequestStatus, bool) {
	entity, ok := st.Entity(kind, name)
	if !ok {
		return state.RequestStatus{}, false
	}
	status, ok := entity.Saving[key]
	return status, ok
}

func (s *Selectors) deletingStatus(st *state.Store, kind, name string, key state.Key) (state.RequestStatus, bool) {
	entity, ok := st.Entity(kind, name)
	if !ok {
		return state.RequestStatus{}, false
	}
	status, ok := entity.Deleting[key]
	return status, ok
}
