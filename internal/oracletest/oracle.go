// Package oracletest provides an in-memory foreign runtime for tests.
package oracletest

import (
	"fmt"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/identity"
)

// Member is a named member of an Object.
type Member struct {
	Value  any
	Name   string
	Hidden bool // not readable
}

// Object is a foreign object whose capabilities are set field by field.
// Plain Go strings, numbers, bools and nil act as foreign primitives.
type Object struct {
	Boxed    any
	Fail     error
	Exec     func(args ...any) (any, error)
	Meta     string
	Class    string
	Lang     string
	Str      string
	Elements []any
	Entries  []polyglot.Entry
	Members  []Member
	Items    []any
	Hash     uint64
	Pointer  uint64
	Pulls    int
	IsStr    bool
	Array    bool
	Map      bool
	Iterable bool
	IsPtr    bool
}

// Oracle answers capability queries for Objects and Go primitives.
type Oracle struct {
	ids *identity.Table
}

// New creates an oracle with its own identity table.
func New() *Oracle {
	return &Oracle{ids: identity.NewTable()}
}

var (
	_ polyglot.Oracle          = (*Oracle)(nil)
	_ polyglot.PrimitiveOracle = (*Oracle)(nil)
)

func obj(v any) (*Object, bool) {
	o, ok := v.(*Object)
	return o, ok
}

func (o *Oracle) Unbox(v any) any {
	if ob, ok := obj(v); ok && ob.Boxed != nil {
		return ob.Boxed
	}
	return v
}

func (o *Oracle) IsString(v any) bool {
	if _, ok := v.(string); ok {
		return true
	}
	ob, ok := obj(v)
	return ok && ob.IsStr
}

func (o *Oracle) AsString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	if ob, ok := obj(v); ok && ob.IsStr {
		return ob.Str, nil
	}
	return "", errors.TypeMismatch(errors.PhaseOracle, nil, "string", v)
}

func (o *Oracle) IsPointer(v any) bool {
	ob, ok := obj(v)
	return ok && ob.IsPtr
}

func (o *Oracle) AsPointer(v any) (uint64, error) {
	if ob, ok := obj(v); ok && ob.IsPtr {
		return ob.Pointer, nil
	}
	return 0, errors.TypeMismatch(errors.PhaseOracle, nil, "pointer", v)
}

func (o *Oracle) HasArrayElements(v any) bool {
	ob, ok := obj(v)
	return ok && ob.Array
}

func (o *Oracle) ArraySize(v any) (int, error) {
	ob, ok := obj(v)
	if !ok || !ob.Array {
		return 0, errors.TypeMismatch(errors.PhaseOracle, nil, "array", v)
	}
	if ob.Fail != nil {
		return 0, ob.Fail
	}
	return len(ob.Elements), nil
}

func (o *Oracle) ArrayElement(v any, index int) (any, error) {
	ob, ok := obj(v)
	if !ok || !ob.Array {
		return nil, errors.TypeMismatch(errors.PhaseOracle, nil, "array", v)
	}
	if index < 0 || index >= len(ob.Elements) {
		return nil, errors.OutOfBounds(errors.PhaseOracle, nil, index, len(ob.Elements))
	}
	return ob.Elements[index], nil
}

func (o *Oracle) HasMembers(v any) bool {
	ob, ok := obj(v)
	return ok && len(ob.Members) > 0
}

func (o *Oracle) Members(v any) ([]string, error) {
	ob, ok := obj(v)
	if !ok {
		return nil, nil
	}
	if ob.Fail != nil {
		return nil, ob.Fail
	}
	names := make([]string, len(ob.Members))
	for i, m := range ob.Members {
		names[i] = m.Name
	}
	return names, nil
}

func (o *Oracle) member(v any, name string) (Member, bool) {
	if ob, ok := obj(v); ok {
		for _, m := range ob.Members {
			if m.Name == name {
				return m, true
			}
		}
	}
	return Member{}, false
}

func (o *Oracle) IsMemberReadable(v any, member string) bool {
	m, ok := o.member(v, member)
	return ok && !m.Hidden
}

func (o *Oracle) ReadMember(v any, member string) (any, error) {
	m, ok := o.member(v, member)
	if !ok || m.Hidden {
		return nil, errors.NotFound(errors.PhaseOracle, "member", member)
	}
	return m.Value, nil
}

func (o *Oracle) IsExecutable(v any) bool {
	ob, ok := obj(v)
	return ok && ob.Exec != nil
}

func (o *Oracle) Execute(v any, args ...any) (any, error) {
	ob, ok := obj(v)
	if !ok || ob.Exec == nil {
		return nil, errors.Unsupported(errors.PhaseOracle, "not executable")
	}
	return ob.Exec(args...)
}

func (o *Oracle) HasMetaObject(v any) bool {
	ob, ok := obj(v)
	return ok && ob.Meta != ""
}

func (o *Oracle) MetaObject(v any) (any, error) {
	ob, ok := obj(v)
	if !ok || ob.Meta == "" {
		return nil, errors.NotFound(errors.PhaseOracle, "meta object", fmt.Sprintf("%T", v))
	}
	return &Object{Class: ob.Meta}, nil
}

func (o *Oracle) MetaQualifiedName(meta any) (string, error) {
	return o.ClassName(meta)
}

func (o *Oracle) IsClass(v any) bool {
	ob, ok := obj(v)
	return ok && ob.Class != ""
}

func (o *Oracle) ClassName(v any) (string, error) {
	ob, ok := obj(v)
	if !ok || ob.Class == "" {
		return "", errors.TypeMismatch(errors.PhaseOracle, nil, "class", v)
	}
	return ob.Class, nil
}

func (o *Oracle) IsHostMap(v any) bool {
	ob, ok := obj(v)
	return ok && ob.Map
}

func (o *Oracle) HostMapEntries(v any) ([]polyglot.Entry, error) {
	ob, ok := obj(v)
	if !ok || !ob.Map {
		return nil, errors.TypeMismatch(errors.PhaseOracle, nil, "map", v)
	}
	if ob.Fail != nil {
		return nil, ob.Fail
	}
	return ob.Entries, nil
}

func (o *Oracle) HasIterator(v any) bool {
	ob, ok := obj(v)
	return ok && (ob.Array || ob.Map || ob.Iterable)
}

func (o *Oracle) Iterator(v any) (polyglot.Cursor, error) {
	ob, ok := obj(v)
	if !ok {
		return nil, errors.NotIterable(v)
	}
	var items []any
	switch {
	case ob.Array:
		items = ob.Elements
	case ob.Map:
		for _, e := range ob.Entries {
			items = append(items, e)
		}
	default:
		items = ob.Items
	}
	return &countingCursor{obj: ob, items: items}, nil
}

func (o *Oracle) IdentityHash(v any) uint64 {
	if ob, ok := obj(v); ok && ob.Hash != 0 {
		return ob.Hash
	}
	return uint64(o.ids.Of(v))
}

func (o *Oracle) Language(v any) (string, bool) {
	if ob, ok := obj(v); ok && ob.Lang != "" {
		return ob.Lang, true
	}
	return "", false
}

func (o *Oracle) Format(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "nil", true
	case *Object:
		return "", false
	case string:
		return x, true
	default:
		return fmt.Sprint(x), true
	}
}

func (o *Oracle) IsNull(v any) bool { return v == nil }

func (o *Oracle) IsBoolean(v any) bool {
	_, ok := v.(bool)
	return ok
}

func (o *Oracle) IsNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// countingCursor records every pull on the owning object.
type countingCursor struct {
	obj   *Object
	items []any
	pos   int
}

func (c *countingCursor) Next() (any, bool, error) {
	c.obj.Pulls++
	if c.obj.Fail != nil {
		return nil, false, c.obj.Fail
	}
	if c.pos >= len(c.items) {
		return nil, false, nil
	}
	v := c.items[c.pos]
	c.pos++
	return v, true, nil
}
