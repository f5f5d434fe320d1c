package session

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"editstate/internal/config"
	"editstate/internal/query"
	"editstate/internal/selectors"
	"editstate/internal/state"
	"editstate/internal/store"
)

// Query params that control ordering rather than filtering.
const (
	ParamOrderBy = "orderby"
	ParamOrder   = "order"
)

const preloadConcurrency = 4

// FetchRecord returns a record, loading it from the store first when the
// snapshot does not hold it. Concurrent loads of the same record share one
// store read. A record missing from the store stays NotLoaded.
func (s *Session) FetchRecord(ctx context.Context, kind, name string, key state.Key, q query.Query) (state.Record, state.Presence, error) {
	cfg, err := s.Entity(kind, name)
	if err != nil {
		return nil, state.Unknown, err
	}
	if record, presence := s.selectors.GetEntityRecord(s.Snapshot(), cfg.Kind, cfg.Name, key, q); presence == state.Loaded {
		return record, presence, nil
	}

	flight := strings.Join([]string{"record", cfg.Kind, cfg.Name, q.ContextName(), string(key)}, "\x1f")
	_, err, _ = s.fetches.Do(flight, func() (any, error) {
		s.resolution.Start(selectors.ResolverGetEntityRecord, cfg.Kind, cfg.Name, key)

		r, err := s.db.GetRecord(ctx, cfg.Kind, cfg.Name, string(key))
		if err != nil {
			s.resolution.Invalidate(selectors.ResolverGetEntityRecord, cfg.Kind, cfg.Name, key)
			return nil, err
		}
		if r == nil {
			s.logger.Debug("record not in store", "kind", cfg.Kind, "name", cfg.Name, "key", key)
		} else {
			s.update(func(st *state.Store) *state.Store {
				return st.ReceiveRecords(cfg, []state.Record{toState(cfg, r)}, query.Query{Context: q.Context}, false)
			})
		}
		s.resolution.Finish(selectors.ResolverGetEntityRecord, cfg.Kind, cfg.Name, key)
		return nil, nil
	})
	if err != nil {
		return nil, state.NotLoaded, fmt.Errorf("fetching %s/%s %s: %w", cfg.Kind, cfg.Name, key, err)
	}

	record, presence := s.selectors.GetEntityRecord(s.Snapshot(), cfg.Kind, cfg.Name, key, q)
	return record, presence, nil
}

// FetchRecords resolves a collection query, loading its page from the store
// unless that page was resolved before. A stored result list alone does not
// count: a later page of a known list still has to be fetched.
func (s *Session) FetchRecords(ctx context.Context, kind, name string, q query.Query) ([]state.Record, state.Presence, error) {
	cfg, err := s.Entity(kind, name)
	if err != nil {
		return nil, state.Unknown, err
	}
	if s.selectors.HasFinishedResolvingEntityRecords(cfg.Kind, cfg.Name, q) {
		records, presence := s.selectors.GetEntityRecords(s.Snapshot(), cfg.Kind, cfg.Name, q)
		return records, presence, nil
	}

	args := selectors.RecordsResolutionArgs(cfg.Kind, cfg.Name, q)
	flight := "records\x1f" + strings.Join(formatArgs(args), "\x1f")
	_, err, _ = s.fetches.Do(flight, func() (any, error) {
		s.resolution.Start(selectors.ResolverGetEntityRecords, args...)

		rows, err := s.db.ListRecords(ctx, cfg.Kind, cfg.Name, listOptions(q))
		if err != nil {
			s.resolution.Invalidate(selectors.ResolverGetEntityRecords, args...)
			return nil, err
		}
		records := make([]state.Record, len(rows))
		for i := range rows {
			records[i] = toState(cfg, &rows[i])
		}

		// Whole records are stored; the field filter applies on read.
		received := q
		received.Fields = nil
		s.update(func(st *state.Store) *state.Store {
			return st.ReceiveRecords(cfg, records, received, true)
		})
		s.resolution.Finish(selectors.ResolverGetEntityRecords, args...)
		s.logger.Debug("fetched records", "kind", cfg.Kind, "name", cfg.Name, "count", len(records))
		return nil, nil
	})
	if err != nil {
		return nil, state.NotLoaded, fmt.Errorf("fetching %s/%s records: %w", cfg.Kind, cfg.Name, err)
	}

	records, presence := s.selectors.GetEntityRecords(s.Snapshot(), cfg.Kind, cfg.Name, q)
	return records, presence, nil
}

// Preload fetches every record of every configured entity, a few entities at
// a time.
func (s *Session) Preload(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)

	for i := range s.registry.Entities {
		entity := s.registry.Entities[i]
		g.Go(func() error {
			_, _, err := s.FetchRecords(gCtx, entity.Kind, entity.Name, query.Query{PerPage: -1})
			return err
		})
	}
	return g.Wait()
}

// listOptions maps a collection query onto store options. Params other than
// the ordering ones become field filters.
func listOptions(q query.Query) store.ListOptions {
	page, perPage := q.Window()
	opts := store.ListOptions{Page: page, PerPage: perPage}
	for param, value := range q.Params {
		switch param {
		case ParamOrderBy:
			opts.OrderBy = value
		case ParamOrder:
			opts.Order = value
		default:
			if opts.Where == nil {
				opts.Where = map[string]string{}
			}
			opts.Where[param] = value
		}
	}
	for _, key := range q.Include {
		opts.Include = append(opts.Include, string(key))
	}
	return opts
}

// toState copies a stored record's fields, filling the primary key field
// from the stored key when the fields lack it.
func toState(cfg *config.EntityConfig, r *store.Record) state.Record {
	record := make(state.Record, len(r.Fields)+1)
	for field, value := range r.Fields {
		record[field] = value
	}
	if _, ok := record[cfg.KeyField()]; !ok {
		record[cfg.KeyField()] = r.Key
	}
	return record
}

func formatArgs(args []any) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = fmt.Sprint(arg)
	}
	return out
}
