package iterator

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/internal/oracletest"
)

func TestNew_NotIterable(t *testing.T) {
	o := oracletest.New()

	for _, v := range []any{42, "str", &oracletest.Object{Members: []oracletest.Member{{Name: "a", Value: 1}}}} {
		it, err := New(o, v)
		if it != nil {
			t.Fatalf("New(%v) returned iterator", v)
		}
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Kind != errors.KindNotIterable {
			t.Fatalf("New(%v) err = %v, want not_iterable", v, err)
		}
		if !e.IsConfiguration() {
			t.Fatal("not_iterable should be a configuration error")
		}
	}
}

func TestIterator_Sequence(t *testing.T) {
	o := oracletest.New()
	arr := &oracletest.Object{Array: true, Elements: []any{1, 2, 3}}

	it, err := New(o, arr)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var got []any
	for it.HasNext() {
		v, err := it.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		got = append(got, v)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
}

func TestIterator_PeekIsIdempotent(t *testing.T) {
	o := oracletest.New()

	direct := &oracletest.Object{Iterable: true, Items: []any{"a", "b"}}
	peeked := &oracletest.Object{Iterable: true, Items: []any{"a", "b"}}

	d, _ := New(o, direct)
	p, _ := New(o, peeked)

	for i := 0; i < 5; i++ {
		if !p.HasNext() {
			t.Fatal("HasNext should be true")
		}
	}
	if v, err := p.Peek(); err != nil || v != "a" {
		t.Fatalf("Peek = %v, %v", v, err)
	}
	if peeked.Pulls != 1 {
		t.Fatalf("Expected 1 pull after repeated peeks, got %d", peeked.Pulls)
	}

	dv, _ := d.Next()
	pv, _ := p.Next()
	if dv != pv {
		t.Fatalf("Next after peeks = %v, direct Next = %v", pv, dv)
	}

	// Buffer is invalidated by Next
	pv, _ = p.Next()
	if pv != "b" {
		t.Fatalf("second Next = %v, want b", pv)
	}
	if p.HasNext() {
		t.Fatal("HasNext should be false at end")
	}
}

func TestIterator_Exhausted(t *testing.T) {
	it := FromCursor(polyglot.SliceCursor([]int{7}))

	if v, err := it.Next(); err != nil || v != 7 {
		t.Fatalf("Next = %v, %v", v, err)
	}
	_, err := it.Next()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseIterate, Kind: errors.KindExhausted}) {
		t.Fatalf("Next past end err = %v, want exhausted", err)
	}
	if _, err := it.Peek(); err == nil {
		t.Fatal("Peek past end should fail")
	}
	if it.HasNext() {
		t.Fatal("HasNext should stay false")
	}
}

func TestIterator_CursorFailure(t *testing.T) {
	o := oracletest.New()
	boom := stderrors.New("boom")
	src := &oracletest.Object{Iterable: true, Items: []any{1}, Fail: boom}

	it, err := New(o, src)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if it.HasNext() {
		t.Fatal("HasNext should be false on failure")
	}
	if !stderrors.Is(it.Err(), boom) {
		t.Fatalf("Err() = %v, want cause boom", it.Err())
	}
	if _, err := it.Next(); !stderrors.Is(err, boom) {
		t.Fatalf("Next err = %v, want cause boom", err)
	}
}

func TestIterator_Collect(t *testing.T) {
	o := oracletest.New()
	m := &oracletest.Object{Map: true, Entries: []polyglot.Entry{{Key: "a", Value: 1}, {Key: "b", Value: 2}}}

	it, err := New(o, m)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := it.Next(); err != nil {
		t.Fatal(err)
	}
	rest, err := it.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rest) != 1 || rest[0].(polyglot.Entry).Key != "b" {
		t.Fatalf("Collect = %v", rest)
	}
}
