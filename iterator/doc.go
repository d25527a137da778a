// Package iterator adapts a foreign value's native enumeration into a pull
// iterator with non-destructive lookahead.
//
// The iterator holds at most one pending element. HasNext and Peek fill that
// buffer on demand; Next drains it. Peeking is idempotent, so
//
//	it.HasNext(); it.HasNext(); v, _ := it.Next()
//
// yields the same element as a bare Next.
//
//	it, err := iterator.New(oracle, value) // errors.KindNotIterable if value cannot be enumerated
//	for it.HasNext() {
//	    v, _ := it.Next()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
//
// Next past the end returns errors.KindExhausted.
package iterator
