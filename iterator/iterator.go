package iterator

import (
	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
)

// Iterator is a pull iterator with a one-element lookahead buffer.
// Not safe for concurrent use.
type Iterator struct {
	src      polyglot.Cursor
	pending  polyglot.Value
	err      error
	buffered bool
	done     bool
}

// New obtains an iterator over the native enumeration of v.
// Fails with a configuration error when v cannot be enumerated.
func New(o polyglot.Oracle, v polyglot.Value) (*Iterator, error) {
	if !o.HasIterator(v) {
		return nil, errors.NotIterable(v)
	}
	cur, err := o.Iterator(v)
	if err != nil {
		return nil, errors.Oracle(errors.PhaseIterate, nil, err)
	}
	return FromCursor(cur), nil
}

// FromCursor wraps a cursor.
func FromCursor(c polyglot.Cursor) *Iterator {
	return &Iterator{src: c}
}

// fill buffers the next element unless one is already pending.
func (it *Iterator) fill() {
	if it.buffered || it.done {
		return
	}
	v, ok, err := it.src.Next()
	if err != nil {
		it.err = err
		it.done = true
		return
	}
	if !ok {
		it.done = true
		return
	}
	it.pending = v
	it.buffered = true
}

// HasNext reports whether another element is available.
// Repeated calls without Next do not advance the source.
func (it *Iterator) HasNext() bool {
	it.fill()
	return it.buffered
}

// Peek returns the next element without consuming it.
func (it *Iterator) Peek() (polyglot.Value, error) {
	it.fill()
	if !it.buffered {
		return nil, it.endErr()
	}
	return it.pending, nil
}

// Next consumes and returns the next element.
func (it *Iterator) Next() (polyglot.Value, error) {
	it.fill()
	if !it.buffered {
		return nil, it.endErr()
	}
	v := it.pending
	it.pending = nil
	it.buffered = false
	return v, nil
}

// Err returns the traversal failure seen while filling the buffer, if any.
func (it *Iterator) Err() error {
	if it.err == nil {
		return nil
	}
	return errors.Oracle(errors.PhaseIterate, nil, it.err)
}

// Collect drains the remaining elements.
func (it *Iterator) Collect() ([]polyglot.Value, error) {
	var out []polyglot.Value
	for it.HasNext() {
		v, err := it.Next()
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, it.Err()
}

func (it *Iterator) endErr() error {
	if it.err != nil {
		return it.Err()
	}
	return errors.Exhausted()
}
