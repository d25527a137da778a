package traits

import (
	stderrors "errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
)

func TestResolve_Empty(t *testing.T) {
	r := NewWithDefaults()

	c, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if c != r.Base() {
		t.Fatal("Resolve() should return the base class")
	}
	if c.Name() != BaseClassName || !c.IsBase() {
		t.Fatalf("base class = %q", c.Name())
	}
	if again, _ := r.Resolve(); again != c {
		t.Fatal("base class must be fixed")
	}
	if r.Len() != 0 || r.Builds() != 0 {
		t.Fatalf("empty resolve touched the cache: len=%d builds=%d", r.Len(), r.Builds())
	}
}

func TestResolve_CachesByKey(t *testing.T) {
	r := NewWithDefaults()

	a, err := r.Resolve(TraitArray, TraitExecutable)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if a.Name() != "ForeignArrayExecutable" {
		t.Fatalf("Name() = %q", a.Name())
	}
	if a.Key() != "ArrayExecutable" {
		t.Fatalf("Key() = %q", a.Key())
	}

	b, _ := r.Resolve(TraitArray, TraitExecutable)
	if a != b {
		t.Fatal("same combination must return the same class")
	}

	c, _ := r.Resolve(TraitExecutable, TraitArray)
	if c == a {
		t.Fatal("different order is a different key")
	}
	if r.Len() != 2 || r.Builds() != 2 {
		t.Fatalf("len=%d builds=%d, want 2/2", r.Len(), r.Builds())
	}

	if got, ok := r.Lookup(TraitArray, TraitExecutable); !ok || got != a {
		t.Fatal("Lookup should find the cached class")
	}
	if _, ok := r.Lookup(TraitString); ok {
		t.Fatal("Lookup must not build")
	}
}

func TestResolve_Concurrent(t *testing.T) {
	r := NewWithDefaults()

	const n = 100
	classes := make([]*Class, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			c, err := r.Resolve(TraitMap, TraitIterable, TraitString)
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
				return
			}
			classes[i] = c
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < n; i++ {
		if classes[i] != classes[0] {
			t.Fatalf("goroutine %d got a different class", i)
		}
	}
	if r.Builds() != 1 {
		t.Fatalf("Builds() = %d, want 1", r.Builds())
	}
}

func TestResolve_UnknownTrait(t *testing.T) {
	r := NewWithDefaults()
	if _, err := r.Resolve(TraitArray); err != nil {
		t.Fatal(err)
	}

	c, err := r.Resolve(TraitString, "Bogus")
	if c != nil {
		t.Fatal("unknown trait must not return a class")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("err = %v, want *errors.Error", err)
	}
	if e.Kind != errors.KindUnknownTrait || e.Trait != "Bogus" || !e.IsConfiguration() {
		t.Fatalf("err = %v", e)
	}
	if r.Len() != 1 || r.Builds() != 1 {
		t.Fatalf("cache changed: len=%d builds=%d", r.Len(), r.Builds())
	}
	if _, ok := r.Lookup(TraitString, "Bogus"); ok {
		t.Fatal("partial class published")
	}
}

func TestResolve_FirstListedWins(t *testing.T) {
	r := NewWithDefaults()

	am, _ := r.Resolve(TraitArray, TraitMap)
	ma, _ := r.Resolve(TraitMap, TraitArray)

	tests := []struct {
		class  *Class
		method string
		owner  string
	}{
		{am, "size", TraitArray},
		{am, "each", TraitArray},
		{am, "fetch", TraitMap},
		{am, "at", TraitArray},
		{ma, "size", TraitMap},
		{ma, "each", TraitMap},
		{ma, "at", TraitArray},
		{ma, "class", BaseClassName},
	}
	for _, tt := range tests {
		owner, ok := tt.class.Owner(tt.method)
		if !ok || owner != tt.owner {
			t.Errorf("%s.%s owner = %q, want %q", tt.class.Name(), tt.method, owner, tt.owner)
		}
	}

	anc := am.Ancestors()
	want := []string{"ForeignArrayMap", TraitArray, TraitMap, BaseClassName}
	if len(anc) != len(want) {
		t.Fatalf("Ancestors() = %v", anc)
	}
	for i := range want {
		if anc[i] != want[i] {
			t.Fatalf("Ancestors() = %v, want %v", anc, want)
		}
	}
}

func TestRegister(t *testing.T) {
	r := New(BaseTrait())

	if _, err := r.Resolve(TraitArray); err == nil {
		t.Fatal("bare registry should not know Array")
	}

	custom := Trait{
		Name: "Answer",
		Methods: map[string]Method{
			"answer": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) { return 42, nil },
		},
	}
	if err := r.Register(custom); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	for _, bad := range []Trait{custom, {Name: ""}, {Name: BaseClassName}} {
		err := r.Register(bad)
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Kind != errors.KindRegistration {
			t.Fatalf("Register(%q) err = %v, want registration error", bad.Name, err)
		}
	}

	c, err := r.Resolve("Answer")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	got, err := NewProxy(c, nil, nil).Call("answer")
	if err != nil || got != 42 {
		t.Fatalf("answer = %v, %v", got, err)
	}
	if names := r.Traits(); len(names) != 1 || names[0] != "Answer" {
		t.Fatalf("Traits() = %v", names)
	}
}

func TestReset(t *testing.T) {
	r := NewWithDefaults()

	before, _ := r.Resolve(TraitString)
	r.Reset()
	if r.Len() != 0 || r.Builds() != 0 {
		t.Fatalf("Reset left len=%d builds=%d", r.Len(), r.Builds())
	}
	after, _ := r.Resolve(TraitString)
	if after == before {
		t.Fatal("class should be rebuilt after Reset")
	}
	if before.Name() != "ForeignString" {
		t.Fatal("classes handed out before Reset stay valid")
	}
}

func TestDefault(t *testing.T) {
	Reset()
	defer Reset()

	a, err := Resolve(TraitPointer)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	b, _ := Default().Resolve(TraitPointer)
	if a != b {
		t.Fatal("package-level Resolve must use the default registry")
	}
	if Default().Len() != 1 {
		t.Fatalf("Len() = %d", Default().Len())
	}
}

func TestResolve_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	r := NewWithDefaults()
	if _, err := r.Resolve(TraitNull); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(TraitNull); err != nil {
		t.Fatal(err)
	}

	entries := logs.FilterMessage("composed foreign class").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 build log, got %d", len(entries))
	}
	if entries[0].ContextMap()["class"] != "ForeignNull" {
		t.Fatalf("log context = %v", entries[0].ContextMap())
	}
}
