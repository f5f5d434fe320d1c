// Package selectors is the read surface over store snapshots. Every method
// is a pure function of the snapshot it is given plus the static entity
// registry; results that are built rather than looked up are memoized so
// repeated reads against unchanged data return the identical value.
package selectors

import (
	"editstate/internal/config"
	"editstate/internal/memo"
	"editstate/internal/merge"
	"editstate/internal/query"
	"editstate/internal/resolution"
	"editstate/internal/state"
)

// Resolver names used with the resolution status.
const (
	ResolverGetEntityRecord  = "getEntityRecord"
	ResolverGetEntityRecords = "getEntityRecords"
)

type recordArgs struct {
	kind, name string
	key        state.Key
	context    string
	fields     string
}

type collectionArgs struct {
	kind, name string
	context    string
	stable     string
	page       int
	perPage    int
	fields     string
	include    string
}

type entityKeyArgs struct {
	kind, name string
	key        state.Key
}

type recordResult struct {
	record   state.Record
	presence state.Presence
}

type collectionResult struct {
	records  []state.Record
	presence state.Presence
}

type Selectors struct {
	registry   *config.Registry
	resolution resolution.Status

	records      *memo.Cache[recordArgs, recordResult]
	collections  *memo.Cache[collectionArgs, collectionResult]
	raw          *memo.Cache[entityKeyArgs, state.Record]
	nonTransient *memo.Cache[entityKeyArgs, state.Record]
	edited       *memo.Cache[entityKeyArgs, state.Record]
	dirty        *memo.Cache[struct{}, []DirtyRecord]
	saving       *memo.Cache[struct{}, []DirtyRecord]
}

// New builds the selectors. status may be nil when nothing resolves data.
func New(registry *config.Registry, status resolution.Status, opts ...memo.Option) *Selectors {
	if status == nil {
		status = resolution.NewRegistry()
	}
	return &Selectors{
		registry:     registry,
		resolution:   status,
		records:      memo.New[recordArgs, recordResult]("getEntityRecord", opts...),
		collections:  memo.New[collectionArgs, collectionResult]("getEntityRecords", opts...),
		raw:          memo.New[entityKeyArgs, state.Record]("getRawEntityRecord", opts...),
		nonTransient: memo.New[entityKeyArgs, state.Record]("getEntityRecordNonTransientEdits", opts...),
		edited:       memo.New[entityKeyArgs, state.Record]("getEditedEntityRecord", opts...),
		dirty:        memo.New[struct{}, []DirtyRecord]("getDirtyEntityRecords", opts...),
		saving:       memo.New[struct{}, []DirtyRecord]("getEntitiesBeingSaved", opts...),
	}
}

func (s *Selectors) Registry() *config.Registry {
	return s.registry
}

// GetEntityConfig returns the static config of a (kind, name) pair.
func (s *Selectors) GetEntityConfig(kind, name string) (*config.EntityConfig, bool) {
	return s.registry.Entity(kind, name)
}

func (s *Selectors) GetEntitiesByKind(kind string) []*config.EntityConfig {
	return s.registry.EntitiesByKind(kind)
}

// GetEntityRecord returns one record. Without a field filter only a complete
// record is returned; a pruned copy is never passed off as the full record.
func (s *Selectors) GetEntityRecord(st *state.Store, kind, name string, key state.Key, q query.Query) (state.Record, state.Presence) {
	entity, ok := st.Entity(kind, name)
	if !ok {
		return nil, state.Unknown
	}
	if !q.HasFields() {
		return query.Project(entity.Queried, key, q)
	}

	context := q.ContextName()
	item, complete, _ := entity.Queried.Item(context, key)
	args := recordArgs{kind: kind, name: name, key: key, context: context, fields: q.FieldsKey()}
	result := s.records.Get(args, []any{item, complete}, func() recordResult {
		record, presence := query.Project(entity.Queried, key, q)
		return recordResult{record: record, presence: presence}
	})
	return result.record, result.presence
}

// GetEntityRecords resolves a collection query.
func (s *Selectors) GetEntityRecords(st *state.Store, kind, name string, q query.Query) ([]state.Record, state.Presence) {
	entity, ok := st.Entity(kind, name)
	if !ok {
		return nil, state.Unknown
	}

	context := q.ContextName()
	stable := q.StableKey()
	page, perPage := q.Window()
	args := collectionArgs{
		kind:    kind,
		name:    name,
		context: context,
		stable:  stable,
		page:    page,
		perPage: perPage,
		fields:  q.FieldsKey(),
		include: q.IncludeKey(),
	}

	var ids []state.Key
	if len(q.Include) == 0 {
		ids = entity.Queried.Queries[context][stable]
	}
	deps := []any{ids, entity.Queried.Items[context], entity.Queried.ItemIsComplete[context]}
	result := s.collections.Get(args, deps, func() collectionResult {
		records, presence := query.ProjectMany(entity.Queried, q)
		return collectionResult{records: records, presence: presence}
	})
	return result.records, result.presence
}

// HasEntityRecords reports whether a collection query has loaded, non-empty
// results.
func (s *Selectors) HasEntityRecords(st *state.Store, kind, name string, q query.Query) bool {
	records, presence := s.GetEntityRecords(st, kind, name, q)
	return presence == state.Loaded && len(records) > 0
}

// GetRawEntityRecord returns the complete record with raw attribute fields
// reduced to their raw value.
func (s *Selectors) GetRawEntityRecord(st *state.Store, kind, name string, key state.Key) (state.Record, state.Presence) {
	record, presence := s.GetEntityRecord(st, kind, name, key, query.Query{})
	if presence != state.Loaded {
		return nil, presence
	}
	var rawAttributes []string
	if cfg, ok := s.registry.Entity(kind, name); ok {
		rawAttributes = cfg.RawAttributes
	}
	args := entityKeyArgs{kind: kind, name: name, key: key}
	raw := s.raw.Get(args, []any{record}, func() state.Record {
		return merge.Raw(record, rawAttributes)
	})
	return raw, state.Loaded
}
