// Package merge combines stored records with pending edits.
package merge

// Edited overlays edits on raw field by field. The result is always a new,
// non-nil map; when raw is nil it holds only the edited fields.
func Edited(raw, edits map[string]any) map[string]any {
	out := make(map[string]any, len(raw)+len(edits))
	for key, value := range raw {
		out[key] = value
	}
	for key, value := range edits {
		out[key] = value
	}
	return out
}

// Raw replaces every field named in rawAttributes with its "raw" member when
// the stored value is a {raw, rendered} map. Other fields are copied as is.
func Raw(record map[string]any, rawAttributes []string) map[string]any {
	if record == nil {
		return nil
	}
	out := make(map[string]any, len(record))
	for key, value := range record {
		out[key] = value
	}
	for _, attr := range rawAttributes {
		value, ok := out[attr]
		if !ok {
			continue
		}
		out[attr] = RawValue(value)
	}
	return out
}

// RawValue unwraps a {raw, rendered} pair, falling back to value itself.
func RawValue(value any) any {
	nested, ok := value.(map[string]any)
	if !ok {
		return value
	}
	if raw, ok := nested["raw"]; ok {
		return raw
	}
	return value
}

// NonTransient returns edits without the transient fields. A nil map is
// returned when nothing is left.
func NonTransient(edits map[string]any, transient []string) map[string]any {
	if len(edits) == 0 {
		return nil
	}
	skip := make(map[string]struct{}, len(transient))
	for _, field := range transient {
		skip[field] = struct{}{}
	}
	var out map[string]any
	for key, value := range edits {
		if _, ok := skip[key]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(edits))
		}
		out[key] = value
	}
	return out
}

// Copy returns a shallow copy of props, or an empty map for nil.
func Copy(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(props))
	for key, value := range props {
		out[key] = value
	}
	return out
}
