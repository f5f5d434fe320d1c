// Package resolution tracks which fetches are in flight or finished, keyed by
// the selector they resolve and its arguments.
package resolution

import (
	"fmt"
	"strings"
	"sync"
)

// Status is the read side consumed by selectors.
type Status interface {
	IsResolving(selector string, args ...any) bool
	HasFinishedResolution(selector string, args ...any) bool
}

type phase int

const (
	phaseResolving phase = iota + 1
	phaseFinished
)

// Registry is a goroutine-safe Status that resolvers update.
type Registry struct {
	mu     sync.RWMutex
	phases map[string]phase
}

var _ Status = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{phases: make(map[string]phase)}
}

func (r *Registry) Start(selector string, args ...any) {
	r.set(selector, args, phaseResolving)
}

func (r *Registry) Finish(selector string, args ...any) {
	r.set(selector, args, phaseFinished)
}

// Invalidate forgets a resolution so it is fetched again on next use.
func (r *Registry) Invalidate(selector string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.phases, resolutionKey(selector, args))
}

func (r *Registry) IsResolving(selector string, args ...any) bool {
	return r.get(selector, args) == phaseResolving
}

func (r *Registry) HasFinishedResolution(selector string, args ...any) bool {
	return r.get(selector, args) == phaseFinished
}

func (r *Registry) set(selector string, args []any, p phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases[resolutionKey(selector, args)] = p
}

func (r *Registry) get(selector string, args []any) phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phases[resolutionKey(selector, args)]
}

func resolutionKey(selector string, args []any) string {
	var b strings.Builder
	b.WriteString(selector)
	for _, arg := range args {
		b.WriteByte('\x1f')
		fmt.Fprintf(&b, "%v", arg)
	}
	return b.String()
}
