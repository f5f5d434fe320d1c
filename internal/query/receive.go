package query

// Receive returns a new State with records stored under the query's context.
// Records are complete when the query has no field filter; completeness is
// never revoked by a later partial fetch. A partial record is merged onto the
// stored one. When collection is true the ordered ids are also stored for
// the query's stable key and page. Records without a usable key are skipped.
// The receiver is not modified.
func Receive(s *State, records []map[string]any, keyField string, q Query, collection bool) *State {
	if s == nil {
		s = NewState()
	}
	context := q.ContextName()
	complete := !q.HasFields()

	items := make(map[Key]map[string]any, len(s.Items[context])+len(records))
	for key, item := range s.Items[context] {
		items[key] = item
	}
	completeness := make(map[Key]bool, len(s.ItemIsComplete[context])+len(records))
	for key, flag := range s.ItemIsComplete[context] {
		completeness[key] = flag
	}

	ids := make([]Key, 0, len(records))
	for _, record := range records {
		key, ok := KeyOf(record[keyField])
		if !ok {
			continue
		}
		ids = append(ids, key)

		existing, had := items[key]
		switch {
		case complete || !had:
			items[key] = record
		default:
			merged := make(map[string]any, len(existing)+len(record))
			for field, value := range existing {
				merged[field] = value
			}
			for field, value := range record {
				merged[field] = value
			}
			items[key] = merged
		}
		completeness[key] = complete || completeness[key]
	}

	next := &State{
		Items:          copyOuter(s.Items),
		ItemIsComplete: copyOuter(s.ItemIsComplete),
		Queries:        copyOuter(s.Queries),
	}
	next.Items[context] = items
	next.ItemIsComplete[context] = completeness

	if collection && len(q.Include) == 0 {
		lists := make(map[string][]Key, len(s.Queries[context])+1)
		for stable, list := range s.Queries[context] {
			lists[stable] = list
		}
		stable := q.StableKey()
		page, perPage := q.Window()
		lists[stable] = mergeIDs(lists[stable], ids, page, perPage)
		next.Queries[context] = lists
	}
	return next
}

// mergeIDs places a page of ids into the existing list at the page offset.
func mergeIDs(existing, ids []Key, page, perPage int) []Key {
	if perPage == -1 {
		return append([]Key(nil), ids...)
	}
	start := (page - 1) * perPage
	size := len(existing)
	if start+len(ids) > size {
		size = start + len(ids)
	}
	merged := make([]Key, size)
	for i := range merged {
		if i >= start && i < start+perPage {
			if i-start < len(ids) {
				merged[i] = ids[i-start]
			}
			continue
		}
		if i < len(existing) {
			merged[i] = existing[i]
		}
	}
	return merged
}

// Remove returns a new State without key in any context or result list.
func Remove(s *State, key Key) *State {
	if s == nil {
		return nil
	}
	next := &State{
		Items:          make(map[string]map[Key]map[string]any, len(s.Items)),
		ItemIsComplete: make(map[string]map[Key]bool, len(s.ItemIsComplete)),
		Queries:        make(map[string]map[string][]Key, len(s.Queries)),
	}
	for context, items := range s.Items {
		next.Items[context] = withoutKey(items, key)
	}
	for context, flags := range s.ItemIsComplete {
		next.ItemIsComplete[context] = withoutKey(flags, key)
	}
	for context, lists := range s.Queries {
		filtered := make(map[string][]Key, len(lists))
		for stable, list := range lists {
			out := make([]Key, 0, len(list))
			for _, id := range list {
				if id != key {
					out = append(out, id)
				}
			}
			filtered[stable] = out
		}
		next.Queries[context] = filtered
	}
	return next
}

func withoutKey[V any](in map[Key]V, key Key) map[Key]V {
	if _, ok := in[key]; !ok {
		return in
	}
	out := make(map[Key]V, len(in))
	for k, v := range in {
		if k != key {
			out[k] = v
		}
	}
	return out
}

func copyOuter[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
