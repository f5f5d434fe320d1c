package session

import (
	"editstate/internal/state"
)

// Edit merges edits into a record's pending edits. Non-transient changes
// become an undo step.
func (s *Session) Edit(kind, name string, key state.Key, edits state.Record) error {
	cfg, err := s.Entity(kind, name)
	if err != nil {
		return err
	}
	s.update(func(st *state.Store) *state.Store {
		return st.EditRecord(cfg, key, edits)
	})
	return nil
}

// Undo reverts the last edit. It reports false when there was nothing to
// undo.
func (s *Session) Undo() bool {
	var undone bool
	s.update(func(st *state.Store) *state.Store {
		if !st.Undo.CanUndo() {
			return st
		}
		undone = true
		return st.UndoEdit(s.registry)
	})
	return undone
}

// Redo re-applies the last undone edit. It reports false when there was
// nothing to redo.
func (s *Session) Redo() bool {
	var redone bool
	s.update(func(st *state.Store) *state.Store {
		if !st.Undo.CanRedo() {
			return st
		}
		redone = true
		return st.RedoEdit(s.registry)
	})
	return redone
}

// Discard drops every pending edit of a record. The undo history is left
// alone.
func (s *Session) Discard(kind, name string, key state.Key) error {
	cfg, err := s.Entity(kind, name)
	if err != nil {
		return err
	}
	s.update(func(st *state.Store) *state.Store {
		return st.ClearEdits(cfg, key)
	})
	return nil
}

// SetPermission records whether the user may perform action on a resource.
func (s *Session) SetPermission(action, resource, id string, allowed bool) {
	s.update(func(st *state.Store) *state.Store {
		return st.ReceivePermission(action, resource, id, allowed)
	})
}
