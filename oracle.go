package polyglot

// Value is an opaque handle to a value owned by a foreign runtime.
// The bridge never mutates it; all access goes through an Oracle.
type Value = any

// Entry is one key/value pair of a host map.
type Entry struct {
	Key   Value
	Value Value
}

// Cursor is a foreign value's native element-wise traversal.
// Next returns ok=false at end of sequence.
type Cursor interface {
	Next() (v Value, ok bool, err error)
}

// Oracle answers capability queries about foreign values.
// Implementations wrap a specific foreign runtime.
type Oracle interface {
	// Unbox unwraps primitive wrapper values; other values are returned as is.
	Unbox(v Value) Value

	IsString(v Value) bool
	AsString(v Value) (string, error)

	IsPointer(v Value) bool
	AsPointer(v Value) (uint64, error)

	HasArrayElements(v Value) bool
	ArraySize(v Value) (int, error)
	ArrayElement(v Value, index int) (Value, error)

	HasMembers(v Value) bool
	Members(v Value) ([]string, error)
	IsMemberReadable(v Value, member string) bool
	ReadMember(v Value, member string) (Value, error)

	IsExecutable(v Value) bool
	Execute(v Value, args ...Value) (Value, error)

	HasMetaObject(v Value) bool
	MetaObject(v Value) (Value, error)
	MetaQualifiedName(meta Value) (string, error)

	// IsClass reports whether v is a class object of the foreign runtime.
	IsClass(v Value) bool
	// ClassName returns the fully-qualified name of a class object.
	ClassName(v Value) (string, error)

	// IsHostMap reports whether v is a key/value map on the host side.
	IsHostMap(v Value) bool
	HostMapEntries(v Value) ([]Entry, error)

	HasIterator(v Value) bool
	Iterator(v Value) (Cursor, error)

	// IdentityHash returns a stable per-object integer.
	IdentityHash(v Value) uint64
	// Language returns the name of the owning language, if any.
	Language(v Value) (string, bool)
	// Format returns the primitive textual form of v.
	// ok is false when v has no primitive form.
	Format(v Value) (s string, ok bool)
}

// PrimitiveOracle is implemented by oracles that can classify scalar values.
type PrimitiveOracle interface {
	IsNull(v Value) bool
	IsBoolean(v Value) bool
	IsNumber(v Value) bool
}

// ArrayCursor walks the array elements of v by index.
func ArrayCursor(o Oracle, v Value) (Cursor, error) {
	n, err := o.ArraySize(v)
	if err != nil {
		return nil, err
	}
	return &arrayCursor{oracle: o, value: v, size: n}, nil
}

type arrayCursor struct {
	oracle Oracle
	value  Value
	size   int
	pos    int
}

func (c *arrayCursor) Next() (Value, bool, error) {
	if c.pos >= c.size {
		return nil, false, nil
	}
	e, err := c.oracle.ArrayElement(c.value, c.pos)
	if err != nil {
		return nil, false, err
	}
	c.pos++
	return e, true, nil
}

// SliceCursor walks a precomputed slice of values.
func SliceCursor[T any](items []T) Cursor {
	return &sliceCursor[T]{items: items}
}

type sliceCursor[T any] struct {
	items []T
	pos   int
}

func (c *sliceCursor[T]) Next() (Value, bool, error) {
	if c.pos >= len(c.items) {
		return nil, false, nil
	}
	v := c.items[c.pos]
	c.pos++
	return v, true, nil
}
