// Package memo caches the results of pure projections keyed by their
// argument tuple and invalidated by a list of dependency values.
//
// A cached result is returned as long as every dependency is the same value
// as when it was computed: maps, slices, pointers, channels and funcs compare
// by identity, everything else by ==. Callers rely on getting the identical
// result back to detect that nothing changed.
//
// Slots live in an LRU so the most recently used argument tuples keep their
// results; older tuples are evicted and simply recomputed on next use.
package memo

import (
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultSize = 1024

// Observer receives cache events, labelled with the cache name.
type Observer interface {
	Hit(cache string)
	Miss(cache string)
	Evict(cache string)
}

type nopObserver struct{}

func (nopObserver) Hit(string)   {}
func (nopObserver) Miss(string)  {}
func (nopObserver) Evict(string) {}

type options struct {
	size     int
	observer Observer
}

type Option func(*options)

// WithSize bounds the number of argument tuples kept per cache.
func WithSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.size = size
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

type slot[V any] struct {
	mu       sync.Mutex
	deps     []any
	value    V
	computed bool
}

// Cache is safe for concurrent use. Each slot is checked and refreshed under
// its own lock, so one argument tuple is never computed twice at once while
// unrelated tuples proceed in parallel.
type Cache[K comparable, V any] struct {
	name     string
	mu       sync.Mutex
	slots    *lru.Cache[K, *slot[V]]
	observer Observer
}

func New[K comparable, V any](name string, opts ...Option) *Cache[K, V] {
	o := options{size: DefaultSize, observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[K, V]{name: name, observer: o.observer}
	slots, err := lru.NewWithEvict[K, *slot[V]](o.size, func(K, *slot[V]) {
		c.observer.Evict(c.name)
	})
	if err != nil {
		// Only a non-positive size fails, and WithSize never sets one.
		panic(err)
	}
	c.slots = slots
	return c
}

// Get returns the cached value for key when deps match the stored ones, and
// otherwise calls compute and stores its result.
func (c *Cache[K, V]) Get(key K, deps []any, compute func() V) V {
	c.mu.Lock()
	s, ok := c.slots.Get(key)
	if !ok {
		s = &slot[V]{}
		c.slots.Add(key, s)
	}
	c.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.computed && sameDeps(s.deps, deps) {
		c.observer.Hit(c.name)
		return s.value
	}
	c.observer.Miss(c.name)
	s.value = compute()
	s.deps = append(s.deps[:0:0], deps...)
	s.computed = true
	return s.value
}

// Len returns the number of argument tuples currently cached.
func (c *Cache[K, V]) Len() int {
	return c.slots.Len()
}

// Purge drops every cached result.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots.Purge()
}

func (c *Cache[K, V]) Name() string {
	return c.name
}

func sameDeps(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Same(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Same reports whether a and b are the same value: identity for reference
// kinds, equality for comparable values. Values that are neither are never
// the same.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
