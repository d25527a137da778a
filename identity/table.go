package identity

import (
	"reflect"
	"sync"
)

// Tag is a stable identity for a foreign object.
// Tag 0 is reserved and means "no identity".
type Tag uint64

type key struct {
	typ reflect.Type
	val any
	ptr uintptr
}

type entry struct {
	value any
	valid bool
}

// Table assigns identity tags to foreign objects.
// Reference values (pointers, maps, slices, funcs, chans) are identified by
// address; other comparable values by value. Entries pin their object until
// Forget or Clear. Safe for concurrent use.
type Table struct {
	index   map[key]Tag
	entries []entry
	mu      sync.RWMutex
}

// NewTable creates an empty identity table.
func NewTable() *Table {
	return &Table{
		index:   make(map[key]Tag),
		entries: make([]entry, 0, 64),
	}
}

// Of returns the tag for v, assigning the next free tag on first sight.
// Values without a stable identity (nil, non-comparable structs) get 0.
func (t *Table) Of(v any) Tag {
	k, ok := keyOf(v)
	if !ok {
		return 0
	}

	t.mu.RLock()
	tag, found := t.index[k]
	t.mu.RUnlock()
	if found {
		return tag
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if tag, found := t.index[k]; found {
		return tag
	}
	t.entries = append(t.entries, entry{value: v, valid: true})
	tag = Tag(len(t.entries))
	t.index[k] = tag
	return tag
}

// Lookup returns the tag already assigned to v, if any.
func (t *Table) Lookup(v any) (Tag, bool) {
	k, ok := keyOf(v)
	if !ok {
		return 0, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	tag, found := t.index[k]
	return tag, found
}

// Get retrieves the object holding a tag.
func (t *Table) Get(tag Tag) (any, bool) {
	if tag == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := tag - 1
	if int(idx) >= len(t.entries) {
		return nil, false
	}

	e := t.entries[idx]
	if !e.valid {
		return nil, false
	}
	return e.value, true
}

// Forget releases v. Its tag is never handed out again.
func (t *Table) Forget(v any) bool {
	k, ok := keyOf(v)
	if !ok {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tag, found := t.index[k]
	if !found {
		return false
	}
	delete(t.index, k)
	t.entries[tag-1] = entry{}
	return true
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.index)
}

// Clear forgets every object. Tags keep increasing afterwards.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.index)
	for i := range t.entries {
		t.entries[i] = entry{}
	}
}

func keyOf(v any) (key, bool) {
	if v == nil {
		return key{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return key{}, false
		}
		return key{typ: rv.Type(), ptr: rv.Pointer()}, true
	}
	if !rv.Comparable() {
		return key{}, false
	}
	return key{typ: rv.Type(), val: v}, true
}

var global = NewTable()

// Of returns the tag for v from the process-wide table.
func Of(v any) Tag {
	return global.Of(v)
}

// Global returns the process-wide identity table.
func Global() *Table {
	return global
}
