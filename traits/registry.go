package traits

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/polyglot/errors"
)

// Registry caches one composite class per trait combination.
// Reads are lock-free; first-time construction is serialized behind a
// single mutex so each key is built at most once. Thread-safe.
type Registry struct {
	classes sync.Map // canonical key -> *Class
	traits  map[string]Trait
	base    *Class
	builds  atomic.Int64
	mu      sync.Mutex
}

// New creates a registry whose base class answers the base trait's methods.
// No traits are registered.
func New(base Trait) *Registry {
	return &Registry{
		traits: make(map[string]Trait),
		base:   newBaseClass(base),
	}
}

// NewWithDefaults creates a registry with the builtin base methods and traits.
func NewWithDefaults() *Registry {
	r := New(BaseTrait())
	for _, t := range Builtins() {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a trait definition.
// Classes already built are not affected.
func (r *Registry) Register(t Trait) error {
	if t.Name == "" {
		return errors.Registration(t.Name, "trait name is empty")
	}
	if t.Name == BaseClassName {
		return errors.Registration(t.Name, "name is reserved for the base class")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.traits[t.Name]; exists {
		return errors.Registration(t.Name, "already registered")
	}
	r.traits[t.Name] = t
	return nil
}

// Traits returns the registered trait names, sorted.
func (r *Registry) Traits() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.traits))
	for name := range r.traits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Base returns the base foreign class.
func (r *Registry) Base() *Class {
	return r.base
}

// Key returns the canonical key for a trait combination: the names
// concatenated in the given order.
func Key(names ...string) string {
	return strings.Join(names, "")
}

// Resolve returns the class for an ordered trait combination, building it
// on first request. The empty combination is the base class and never
// touches the cache. An unknown trait name fails with KindUnknownTrait and
// publishes nothing.
func (r *Registry) Resolve(names ...string) (*Class, error) {
	if len(names) == 0 {
		return r.base, nil
	}

	key := Key(names...)
	if c, ok := r.classes.Load(key); ok {
		return c.(*Class), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have built it while we waited
	if c, ok := r.classes.Load(key); ok {
		return c.(*Class), nil
	}

	defs := make([]Trait, len(names))
	for i, name := range names {
		t, ok := r.traits[name]
		if !ok {
			err := errors.UnknownTrait(name)
			err.Path = append([]string(nil), names...)
			return nil, err
		}
		defs[i] = t
	}

	c := compose(r.base, key, names, defs)
	r.classes.Store(key, c)
	r.builds.Add(1)

	Logger().Debug("composed foreign class",
		zap.String("class", c.name),
		zap.Strings("traits", names),
	)
	return c, nil
}

// Lookup returns a cached class without building it.
func (r *Registry) Lookup(names ...string) (*Class, bool) {
	if len(names) == 0 {
		return r.base, true
	}
	c, ok := r.classes.Load(Key(names...))
	if !ok {
		return nil, false
	}
	return c.(*Class), true
}

// Len returns the number of cached classes. The base class is not counted.
func (r *Registry) Len() int {
	n := 0
	r.classes.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Builds returns how many classes have been constructed since the last Reset.
func (r *Registry) Builds() int64 {
	return r.builds.Load()
}

// Reset empties the class cache. Trait definitions are kept.
// Intended for test isolation; classes handed out earlier stay valid.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classes.Clear()
	r.builds.Store(0)
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry with builtin traits.
// Its cache starts empty and is never torn down implicitly.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewWithDefaults()
	})
	return defaultRegistry
}

// Resolve resolves a trait combination against the default registry.
func Resolve(names ...string) (*Class, error) {
	return Default().Resolve(names...)
}

// Reset empties the default registry's class cache.
func Reset() {
	Default().Reset()
}
