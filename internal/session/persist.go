package session

import (
	"context"
	"fmt"
	"time"

	"editstate/internal/config"
	"editstate/internal/merge"
	"editstate/internal/parser"
	"editstate/internal/query"
	"editstate/internal/state"
	"editstate/internal/store"
)

// Save writes the edited record to the store and folds the result back into
// the snapshot. Edits that arrived while the save was in flight stay pending.
func (s *Session) Save(ctx context.Context, kind, name string, key state.Key, autosave bool) (state.Record, error) {
	cfg, err := s.Entity(kind, name)
	if err != nil {
		return nil, err
	}

	// The upsert replaces every stored field, so the edits must be laid over
	// the stored record. A record the store does not hold is saved as new.
	if _, _, err := s.FetchRecord(ctx, cfg.Kind, cfg.Name, key, query.Query{}); err != nil {
		return nil, fmt.Errorf("saving %s/%s %s: %w", cfg.Kind, cfg.Name, key, err)
	}

	var persisted state.Record
	s.update(func(st *state.Store) *state.Store {
		if len(s.selectors.GetEntityRecordNonTransientEdits(st, cfg.Kind, cfg.Name, key)) == 0 {
			return st
		}
		persisted = persistable(cfg, key, s.selectors.GetEditedEntityRecord(st, cfg.Kind, cfg.Name, key))
		return st.StartSave(cfg, key, autosave)
	})
	if persisted == nil {
		return nil, fmt.Errorf("%w: %s/%s %s", ErrNothingToSave, cfg.Kind, cfg.Name, key)
	}

	started := time.Now()
	err = s.db.UpsertRecord(ctx, store.Record{
		Kind:   cfg.Kind,
		Name:   cfg.Name,
		Key:    string(key),
		Fields: persisted,
	})
	if err != nil {
		err = fmt.Errorf("saving %s/%s %s: %w", cfg.Kind, cfg.Name, key, err)
		s.update(func(st *state.Store) *state.Store {
			return st.FinishSave(cfg, key, err, nil)
		})
		s.recorder.RecordSave(cfg.Kind, cfg.Name, autosave, err)
		s.logger.Error("save failed", "kind", cfg.Kind, "name", cfg.Name, "key", key, "error", err)
		return nil, err
	}

	s.update(func(st *state.Store) *state.Store {
		return st.FinishSave(cfg, key, nil, persisted)
	})
	s.recorder.RecordSave(cfg.Kind, cfg.Name, autosave, nil)
	s.logger.Info("saved record",
		"kind", cfg.Kind,
		"name", cfg.Name,
		"key", key,
		"autosave", autosave,
		"duration", time.Since(started),
	)
	return persisted, nil
}

// Delete removes a record from the store and, on success, from the snapshot.
func (s *Session) Delete(ctx context.Context, kind, name string, key state.Key) error {
	cfg, err := s.Entity(kind, name)
	if err != nil {
		return err
	}

	s.update(func(st *state.Store) *state.Store {
		return st.StartDelete(cfg, key)
	})

	deleted, err := s.db.DeleteRecord(ctx, cfg.Kind, cfg.Name, string(key))
	if err == nil && !deleted {
		err = ErrRecordNotFound
	}
	if err != nil {
		err = fmt.Errorf("deleting %s/%s %s: %w", cfg.Kind, cfg.Name, key, err)
	}

	s.update(func(st *state.Store) *state.Store {
		return st.FinishDelete(cfg, key, err)
	})
	s.recorder.RecordDelete(cfg.Kind, cfg.Name, err)
	if err != nil {
		s.logger.Error("delete failed", "kind", cfg.Kind, "name", cfg.Name, "key", key, "error", err)
		return err
	}
	s.logger.Info("deleted record", "kind", cfg.Kind, "name", cfg.Name, "key", key)
	return nil
}

// persistable builds the stored form of an edited record: transient fields
// are dropped and raw attributes are stored with their rendered form.
func persistable(cfg *config.EntityConfig, key state.Key, edited state.Record) state.Record {
	out := merge.NonTransient(edited, cfg.TransientEdits)
	if out == nil {
		out = state.Record{}
	}
	for _, attr := range cfg.RawAttributes {
		raw, ok := merge.RawValue(out[attr]).(string)
		if !ok {
			continue
		}
		out[attr] = parser.RawAttribute(attr, raw)
	}
	if _, ok := out[cfg.KeyField()]; !ok {
		out[cfg.KeyField()] = string(key)
	}
	return out
}
