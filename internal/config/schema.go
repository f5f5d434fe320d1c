package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultKind     = "postType"
	DefaultKeyField = "id"
)

// Registry is the static per (kind, name) entity configuration, loaded from
// entities.yaml.
type Registry struct {
	Version  int            `yaml:"version"`
	Entities []EntityConfig `yaml:"entities"`

	index map[string]*EntityConfig
}

type EntityConfig struct {
	Kind           string   `yaml:"kind"`
	Name           string   `yaml:"name"`
	Label          string   `yaml:"label"`
	Key            string   `yaml:"key"`
	Resource       string   `yaml:"resource"`
	TransientEdits []string `yaml:"transient_edits"`
	RawAttributes  []string `yaml:"raw_attributes"`
	TitleField     string   `yaml:"title_field"`

	// TitleFunc overrides TitleField when set.
	TitleFunc func(record map[string]any) string `yaml:"-"`
}

func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}

	if err := registry.init(); err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}
	return &registry, nil
}

// NewRegistry builds a registry from configs already in memory.
func NewRegistry(entities ...EntityConfig) (*Registry, error) {
	registry := &Registry{Version: 1, Entities: entities}
	if err := registry.init(); err != nil {
		return nil, err
	}
	return registry, nil
}

func (r *Registry) init() error {
	for i := range r.Entities {
		entity := &r.Entities[i]
		if strings.TrimSpace(entity.Kind) == "" {
			entity.Kind = DefaultKind
		}
		if strings.TrimSpace(entity.Key) == "" {
			entity.Key = DefaultKeyField
		}
	}

	if err := validateRegistry(r); err != nil {
		return err
	}

	r.index = make(map[string]*EntityConfig, len(r.Entities))
	for i := range r.Entities {
		entity := &r.Entities[i]
		r.index[entityKey(entity.Kind, entity.Name)] = entity
	}
	return nil
}

func validateRegistry(r *Registry) error {
	if r.Version != 1 {
		return fmt.Errorf("unsupported version: %d", r.Version)
	}
	if len(r.Entities) == 0 {
		return fmt.Errorf("at least one entity is required")
	}

	seen := make(map[string]struct{})
	for i, entity := range r.Entities {
		if strings.TrimSpace(entity.Name) == "" {
			return fmt.Errorf("entity %d name is required", i)
		}
		key := entityKey(entity.Kind, entity.Name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate entity: %s/%s", entity.Kind, entity.Name)
		}
		seen[key] = struct{}{}

		for _, field := range entity.TransientEdits {
			if strings.TrimSpace(field) == "" {
				return fmt.Errorf("entity %s/%s has empty transient edit field", entity.Kind, entity.Name)
			}
			if field == entity.Key {
				return fmt.Errorf("entity %s/%s key field %s cannot be transient", entity.Kind, entity.Name, field)
			}
		}
		for _, field := range entity.RawAttributes {
			if strings.TrimSpace(field) == "" {
				return fmt.Errorf("entity %s/%s has empty raw attribute", entity.Kind, entity.Name)
			}
		}
	}
	return nil
}

func entityKey(kind, name string) string {
	return strings.ToLower(kind) + "/" + strings.ToLower(name)
}

// Entity looks up the config of a (kind, name) pair.
func (r *Registry) Entity(kind, name string) (*EntityConfig, bool) {
	if r == nil {
		return nil, false
	}
	entity, ok := r.index[entityKey(kind, name)]
	return entity, ok
}

// EntitiesByKind returns the configs of one kind ordered by name.
func (r *Registry) EntitiesByKind(kind string) []*EntityConfig {
	if r == nil {
		return nil
	}
	var out []*EntityConfig
	for i := range r.Entities {
		if strings.EqualFold(r.Entities[i].Kind, kind) {
			out = append(out, &r.Entities[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) IsValidEntity(kind, name string) bool {
	_, ok := r.Entity(kind, name)
	return ok
}

// IsTransient reports whether edits to field are excluded from dirty and undo
// tracking.
func (e *EntityConfig) IsTransient(field string) bool {
	if e == nil {
		return false
	}
	for _, transient := range e.TransientEdits {
		if transient == field {
			return true
		}
	}
	return false
}

// KeyField returns the primary key field name.
func (e *EntityConfig) KeyField() string {
	if e == nil || e.Key == "" {
		return DefaultKeyField
	}
	return e.Key
}

// Title extracts a display title from an edited record.
func (e *EntityConfig) Title(record map[string]any) string {
	if e == nil || record == nil {
		return ""
	}
	if e.TitleFunc != nil {
		return e.TitleFunc(record)
	}
	if e.TitleField == "" {
		return ""
	}
	value := record[e.TitleField]
	if nested, ok := value.(map[string]any); ok {
		if raw, ok := nested["raw"]; ok {
			value = raw
		} else {
			value = nested["rendered"]
		}
	}
	title, _ := value.(string)
	return title
}
