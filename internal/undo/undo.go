// Package undo holds the linear edit history shared by every entity record
// in a store, together with the offset that marks how far back the user has
// stepped.
package undo

// Transition is one undoable edit of a single record. From holds the edited
// values of the changed fields before the edit, To the values after it.
type Transition struct {
	Kind string
	Name string
	Key  string
	From map[string]any
	To   map[string]any
}

// IsSentinel reports whether t is the empty entry that opens every history.
func (t Transition) IsSentinel() bool {
	return t.Kind == "" && t.Name == "" && t.Key == ""
}

// History is immutable: every mutating method returns a new value and leaves
// the receiver untouched. Offset is zero at the most recent entry and
// negative when stepped back; -Offset is always smaller than len(Entries).
type History struct {
	Entries []Transition
	Offset  int
}

// New returns a history holding only the sentinel entry.
func New() History {
	return History{Entries: []Transition{{}}}
}

func (h History) at(i int) (Transition, bool) {
	if i < 0 || i >= len(h.Entries) {
		return Transition{}, false
	}
	return h.Entries[i], true
}

// CanUndo reports whether an entry exists before the current one.
func (h History) CanUndo() bool {
	_, ok := h.at(len(h.Entries) - 2 + h.Offset)
	return ok
}

// CanRedo reports whether an entry exists after the current one.
func (h History) CanRedo() bool {
	_, ok := h.at(len(h.Entries) + h.Offset)
	return ok
}

// UndoEntry returns the transition that an undo would revert, which is the
// current entry.
func (h History) UndoEntry() (Transition, bool) {
	if !h.CanUndo() {
		return Transition{}, false
	}
	return h.at(len(h.Entries) - 1 + h.Offset)
}

// RedoEntry returns the transition that a redo would re-apply.
func (h History) RedoEntry() (Transition, bool) {
	return h.at(len(h.Entries) + h.Offset)
}

// Undo steps back one entry. At the boundary it returns h unchanged and
// false.
func (h History) Undo() (History, Transition, bool) {
	t, ok := h.UndoEntry()
	if !ok {
		return h, Transition{}, false
	}
	return History{Entries: h.Entries, Offset: h.Offset - 1}, t, true
}

// Redo steps forward one entry. With nothing to redo it returns h unchanged
// and false.
func (h History) Redo() (History, Transition, bool) {
	t, ok := h.RedoEntry()
	if !ok {
		return h, Transition{}, false
	}
	return History{Entries: h.Entries, Offset: h.Offset + 1}, t, true
}

// Record drops every entry past the current offset and appends t.
func (h History) Record(t Transition) History {
	entries := h.Entries
	if len(entries) == 0 {
		entries = New().Entries
	}
	keep := len(entries) + h.Offset
	if keep < 1 {
		keep = 1
	}
	next := make([]Transition, keep, keep+1)
	copy(next, entries[:keep])
	next = append(next, t)
	return History{Entries: next}
}

// Len returns the number of entries including the sentinel.
func (h History) Len() int {
	return len(h.Entries)
}
