package bridge

import (
	stderrors "errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/internal/oracletest"
	"github.com/wippyai/polyglot/traits"
)

func newBridge() *Bridge {
	return New(oracletest.New(), Options{Registry: traits.NewWithDefaults()})
}

func TestClassify(t *testing.T) {
	b := newBridge()

	tests := []struct {
		name string
		v    any
		want string
	}{
		{"array", &oracletest.Object{Array: true}, "ForeignArrayIterable"},
		{"executable array", &oracletest.Object{Array: true, Exec: func(...any) (any, error) { return nil, nil }}, "ForeignArrayExecutableIterable"},
		{"map", &oracletest.Object{Map: true}, "ForeignMapIterable"},
		{"pointer", &oracletest.Object{IsPtr: true}, "ForeignPointer"},
		{"class", &oracletest.Object{Class: "x.Y"}, "ForeignMetaObject"},
		{"string", "s", "ForeignString"},
		{"number", 3, "ForeignNumber"},
		{"boolean", true, "ForeignBoolean"},
		{"null", nil, "ForeignNull"},
		{"plain object", &oracletest.Object{Members: []oracletest.Member{{Name: "a"}}}, traits.BaseClassName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := b.Label(tt.v)
			if err != nil {
				t.Fatalf("Label failed: %v", err)
			}
			if label != tt.want {
				t.Errorf("Label() = %q, want %q", label, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	b := newBridge()

	got, err := b.Describe(&oracletest.Object{Array: true, Elements: []any{1, 2, 3}, Hash: 0x2a})
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if got != "#<ForeignArrayIterable:0x2a [1, 2, 3]>" {
		t.Fatalf("Describe() = %s", got)
	}

	inner := &oracletest.Object{Array: true, Elements: []any{1}}
	got, _ = b.Describe(&oracletest.Object{Array: true, Elements: []any{inner, inner}, Hash: 0x1})
	if got != "#<ForeignArrayIterable:0x1 [[...], [...]]>" {
		t.Fatalf("nested Describe() = %s", got)
	}

	s, _ := b.Shallow(inner)
	if s != "[...]" {
		t.Fatalf("Shallow() = %s", s)
	}
}

func TestWrap(t *testing.T) {
	b := newBridge()

	p, err := b.Wrap(&oracletest.Object{Array: true, Elements: []any{"x", "y"}})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	if p.Class().Name() != "ForeignArrayIterable" {
		t.Fatalf("class = %s", p.Class().Name())
	}
	if n, _ := p.Call("size"); n != 2 {
		t.Fatalf("size = %v", n)
	}
	if p.Oracle() != b.Oracle() {
		t.Fatal("proxy should carry the bridge oracle")
	}
}

func TestWrap_UnregisteredTrait(t *testing.T) {
	b := New(oracletest.New(), Options{Registry: traits.New(traits.BaseTrait())})

	_, err := b.Wrap("text")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindUnknownTrait}) {
		t.Fatalf("err = %v, want unknown trait cause", err)
	}

	// Values without traits still get the base class
	p, err := b.Wrap(&oracletest.Object{})
	if err != nil || !p.Class().IsBase() {
		t.Fatalf("Wrap(plain) = %v, %v", p, err)
	}
}

func TestWrap_Concurrent(t *testing.T) {
	b := newBridge()

	var wg sync.WaitGroup
	classes := make([]*traits.Class, 50)
	for i := range classes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := b.Wrap(&oracletest.Object{Map: true})
			if err != nil {
				t.Errorf("Wrap failed: %v", err)
				return
			}
			classes[i] = p.Class()
		}(i)
	}
	wg.Wait()

	for _, c := range classes[1:] {
		if c != classes[0] {
			t.Fatal("all wraps must share one class")
		}
	}
	if b.Registry().Builds() != 1 {
		t.Fatalf("Builds() = %d, want 1", b.Registry().Builds())
	}
}

func TestIterator(t *testing.T) {
	b := newBridge()

	it, err := b.Iterator(&oracletest.Object{Iterable: true, Items: []any{1, 2}})
	if err != nil {
		t.Fatalf("Iterator failed: %v", err)
	}
	all, err := it.Collect()
	if err != nil || len(all) != 2 {
		t.Fatalf("Collect = %v, %v", all, err)
	}

	if _, err := b.Iterator(42); err == nil {
		t.Fatal("Iterator on a number should fail")
	}
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := New(oracletest.New(), Options{
		Registry: traits.NewWithDefaults(),
		Logger:   zap.New(core),
	})

	if _, err := b.Wrap("s"); err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("wrapped foreign value").Len() != 1 {
		t.Fatalf("expected wrap log, got %v", logs.All())
	}
}
