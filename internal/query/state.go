package query

import "strings"

// State holds the fetched records of one entity, per view context.
// ItemIsComplete[ctx][key] is true only when Items[ctx][key] is the full,
// unfiltered record. Queries keeps the ordered result ids of collection
// queries by stable key; an empty Key marks a page not fetched yet.
type State struct {
	Items          map[string]map[Key]map[string]any
	ItemIsComplete map[string]map[Key]bool
	Queries        map[string]map[string][]Key
}

func NewState() *State {
	return &State{
		Items:          map[string]map[Key]map[string]any{},
		ItemIsComplete: map[string]map[Key]bool{},
		Queries:        map[string]map[string][]Key{},
	}
}

// Item returns the stored record and its completeness flag.
func (s *State) Item(context string, key Key) (map[string]any, bool, bool) {
	if s == nil {
		return nil, false, false
	}
	item, ok := s.Items[context][key]
	return item, s.ItemIsComplete[context][key], ok
}

// Project resolves a single-key lookup. Without a field filter only complete
// records are returned, so a field-pruned record is never mistaken for the
// full one.
func Project(s *State, key Key, q Query) (map[string]any, Presence) {
	if s == nil {
		return nil, Unknown
	}
	item, complete, ok := s.Item(q.ContextName(), key)
	if !q.HasFields() {
		if !ok || !complete {
			return nil, NotLoaded
		}
		return item, Loaded
	}
	if !ok {
		return nil, NotLoaded
	}
	return Filter(item, q.Fields), Loaded
}

// ProjectMany resolves a collection query against the received result ids.
func ProjectMany(s *State, q Query) ([]map[string]any, Presence) {
	if s == nil {
		return nil, Unknown
	}
	context := q.ContextName()

	ids := q.Include
	include := len(ids) > 0
	if !include {
		var ok bool
		ids, ok = s.Queries[context][q.StableKey()]
		if !ok {
			return nil, NotLoaded
		}
	}

	page, perPage := q.Window()
	start, end := 0, len(ids)
	if perPage != -1 {
		start = (page - 1) * perPage
		if start > len(ids) {
			start = len(ids)
		}
		if start+perPage < end {
			end = start + perPage
		}
	}

	items := make([]map[string]any, 0, end-start)
	for _, id := range ids[start:end] {
		if id == "" {
			return nil, NotLoaded
		}
		item, complete, ok := s.Item(context, id)
		if !ok {
			if include {
				continue
			}
			return nil, NotLoaded
		}
		if q.HasFields() {
			items = append(items, Filter(item, q.Fields))
			continue
		}
		if !complete {
			return nil, NotLoaded
		}
		items = append(items, item)
	}
	return items, Loaded
}

// Filter copies each dotted field path of item into a new map at the same
// path. Paths missing from item are left out.
func Filter(item map[string]any, fields []string) map[string]any {
	out := map[string]any{}
	for _, field := range fields {
		path := strings.Split(field, ".")
		value, ok := lookupPath(item, path)
		if !ok {
			continue
		}
		setPath(out, path, value)
	}
	return out
}

func lookupPath(item map[string]any, path []string) (any, bool) {
	var current any = item
	for _, segment := range path {
		nested, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = nested[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func setPath(out map[string]any, path []string, value any) {
	target := out
	for _, segment := range path[:len(path)-1] {
		// Copy on descent: an earlier path may have stored a map that is
		// still shared with the cached item.
		next := map[string]any{}
		if existing, ok := target[segment].(map[string]any); ok {
			for key, v := range existing {
				next[key] = v
			}
		}
		target[segment] = next
		target = next
	}
	target[path[len(path)-1]] = value
}
