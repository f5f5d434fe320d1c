package selectors

import (
	"editstate/internal/query"
	"editstate/internal/state"
	"editstate/internal/undo"
)

func (s *Selectors) HasUndo(st *state.Store) bool {
	return st != nil && st.Undo.CanUndo()
}

func (s *Selectors) HasRedo(st *state.Store) bool {
	return st != nil && st.Undo.CanRedo()
}

// GetUndoEdit returns the transition the next undo would revert.
func (s *Selectors) GetUndoEdit(st *state.Store) (undo.Transition, bool) {
	if st == nil {
		return undo.Transition{}, false
	}
	return st.Undo.UndoEntry()
}

// GetRedoEdit returns the transition the next redo would re-apply.
func (s *Selectors) GetRedoEdit(st *state.Store) (undo.Transition, bool) {
	if st == nil {
		return undo.Transition{}, false
	}
	return st.Undo.RedoEntry()
}

// CanUser reports a received user capability. NotLoaded means it was never
// fetched.
func (s *Selectors) CanUser(st *state.Store, action, resource, id string) (bool, state.Presence) {
	if st == nil {
		return false, state.NotLoaded
	}
	allowed, ok := st.Permissions[state.PermissionKey(action, resource, id)]
	if !ok {
		return false, state.NotLoaded
	}
	return allowed, state.Loaded
}

// CanUserEditEntityRecord checks the update capability on the entity's
// resource. Entities without a resource are Unknown.
func (s *Selectors) CanUserEditEntityRecord(st *state.Store, kind, name string, key state.Key) (bool, state.Presence) {
	cfg, ok := s.registry.Entity(kind, name)
	if !ok || cfg.Resource == "" {
		return false, state.Unknown
	}
	return s.CanUser(st, "update", cfg.Resource, string(key))
}

func (s *Selectors) IsRequestingEntityRecord(kind, name string, key state.Key) bool {
	return s.resolution.IsResolving(ResolverGetEntityRecord, kind, name, key)
}

func (s *Selectors) HasFinishedResolvingEntityRecord(kind, name string, key state.Key) bool {
	return s.resolution.HasFinishedResolution(ResolverGetEntityRecord, kind, name, key)
}

func (s *Selectors) IsRequestingEntityRecords(kind, name string, q query.Query) bool {
	return s.resolution.IsResolving(ResolverGetEntityRecords, RecordsResolutionArgs(kind, name, q)...)
}

func (s *Selectors) HasFinishedResolvingEntityRecords(kind, name string, q query.Query) bool {
	return s.resolution.HasFinishedResolution(ResolverGetEntityRecords, RecordsResolutionArgs(kind, name, q)...)
}

// RecordsResolutionArgs is the argument list a collection fetch is tracked
// under.
func RecordsResolutionArgs(kind, name string, q query.Query) []any {
	page, perPage := q.Window()
	return []any{kind, name, q.ContextName(), q.StableKey(), page, perPage, q.IncludeKey()}
}
