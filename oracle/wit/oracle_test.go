package witoracle

import (
	stderrors "errors"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/polyglot/bridge"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/traits"
)

func strp(s string) *string { return &s }

var (
	geo   = &wit.Interface{Name: strp("geo")}
	point = &wit.TypeDef{
		Name:  strp("point"),
		Owner: geo,
		Kind: &wit.Record{Fields: []wit.Field{
			{Name: "x", Type: wit.S32{}},
			{Name: "y", Type: wit.S32{}},
			{Name: "label", Type: wit.String{}},
		}},
	}
	bytesT = &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}
	color  = &wit.TypeDef{
		Name: strp("color"),
		Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "red"}, {Name: "green"}}},
	}
	perms = &wit.TypeDef{
		Name: strp("perms"),
		Kind: &wit.Flags{Flags: []wit.Flag{{Name: "read"}, {Name: "write"}, {Name: "exec"}}},
	}
	file    = &wit.TypeDef{Name: strp("file"), Kind: &wit.Resource{}}
	ownFile = &wit.TypeDef{Kind: &wit.Own{Type: file}}
)

func newBridge() (*bridge.Bridge, *Oracle) {
	o := New(nil)
	return bridge.New(o, bridge.Options{Registry: traits.NewWithDefaults()}), o
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{
			name: "record",
			v:    Value{Type: point, Data: map[string]any{"x": int32(1), "y": int32(-2), "label": "origin"}},
			want: `#<ForeignObject[wit] geo.point:0x1 x=1, y=-2, label="origin">`,
		},
		{
			name: "list",
			v:    Value{Type: bytesT, Data: []byte{1, 2}},
			want: "#<ForeignArrayIterable[wit]:0x1 [1, 2]>",
		},
		{
			name: "list of records",
			v: Value{
				Type: &wit.TypeDef{Kind: &wit.List{Type: point}},
				Data: []any{map[string]any{"x": int32(0)}},
			},
			want: "#<ForeignArrayIterable[wit]:0x1 [{...}]>",
		},
		{
			name: "tuple",
			v: Value{
				Type: &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.String{}, color, perms}}},
				Data: []any{"a", uint32(1), uint64(0b101)},
			},
			want: `#<ForeignArrayIterable[wit]:0x1 ["a", green, flags(read, exec)]>`,
		},
		{
			name: "result",
			v: Value{
				Type: &wit.TypeDef{Kind: &wit.Result{OK: wit.U32{}, Err: wit.String{}}},
				Data: map[string]any{"err": "denied"},
			},
			want: `#<ForeignObject[wit]:0x1 err="denied">`,
		},
		{
			name: "resource handle",
			v:    Value{Type: ownFile, Data: uint32(3)},
			want: "#<ForeignPointer[wit] 0x3>",
		},
		{
			name: "class object",
			v:    point,
			want: "#<ForeignMetaObject[wit] class geo.point>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBridge()
			got, err := b.Describe(tt.v)
			if err != nil {
				t.Fatalf("Describe failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Describe() = %s\n want %s", got, tt.want)
			}
		})
	}
}

func TestUnbox(t *testing.T) {
	o := New(nil)
	opt := &wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}}

	if got := o.Unbox(Value{Type: opt, Data: uint32(7)}); got != uint32(7) {
		t.Fatalf("Unbox(some) = %v", got)
	}
	if got := o.Unbox(Value{Type: opt}); got != nil {
		t.Fatalf("Unbox(none) = %v", got)
	}
	if !o.IsNull(Value{Type: opt}) {
		t.Fatal("none should be null")
	}
	if got := o.Unbox(Value{Type: wit.String{}, Data: "s"}); got != "s" {
		t.Fatalf("Unbox(string) = %v", got)
	}

	rec := Value{Type: point, Data: map[string]any{}}
	if _, ok := o.Unbox(rec).(Value); !ok {
		t.Fatal("records stay boxed")
	}
}

func TestFormat(t *testing.T) {
	o := New(nil)

	tests := []struct {
		v    any
		want string
	}{
		{Value{Type: color, Data: uint32(0)}, "red"},
		{Value{Type: color, Data: "green"}, "green"},
		{Value{Type: perms, Data: []string{"write", "read"}}, "flags(read, write)"},
		{Value{Type: wit.Char{}, Data: 'x'}, "'x'"},
		{Value{Type: &wit.TypeDef{Kind: &wit.Option{Type: wit.Bool{}}}}, "none"},
		{Value{Type: ownFile, Data: uint32(9)}, "own<file>#9"},
		{&Func{Name: "add", Params: []wit.Type{wit.U32{}, wit.U32{}}, Results: []wit.Type{wit.U32{}}}, "func add(u32, u32) -> u32"},
		{bytesT, "list<u8>"},
	}
	for _, tt := range tests {
		got, ok := o.Format(tt.v)
		if !ok || got != tt.want {
			t.Errorf("Format(%v) = %q, %v; want %q", tt.v, got, ok, tt.want)
		}
	}

	if _, ok := o.Format(Value{Type: point, Data: map[string]any{}}); ok {
		t.Error("records have no primitive form")
	}
}

func TestExecute(t *testing.T) {
	o := New(nil)
	divmod := &Func{
		Name:    "divmod",
		Params:  []wit.Type{wit.U32{}, wit.U32{}},
		Results: []wit.Type{wit.U32{}, wit.U32{}},
		Call: func(args ...any) ([]any, error) {
			a, b := args[0].(uint32), args[1].(uint32)
			if b == 0 {
				return nil, stderrors.New("division by zero")
			}
			return []any{a / b, a % b}, nil
		},
	}

	got, err := o.Execute(divmod, uint32(7), Value{Type: wit.U32{}, Data: uint32(2)})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if n, _ := o.ArraySize(got); n != 2 {
		t.Fatalf("results = %v", got)
	}
	q, _ := o.ArrayElement(got, 0)
	if o.Unbox(q) != uint32(3) {
		t.Fatalf("quotient = %v", q)
	}

	_, err = o.Execute(divmod, uint32(1))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseOracle, Kind: errors.KindInvalidInput}) {
		t.Fatalf("arity err = %v", err)
	}
	_, err = o.Execute(divmod, uint32(1), uint32(0))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseOracle, Kind: errors.KindOracleFailure}) {
		t.Fatalf("call err = %v", err)
	}
}

func TestMembers(t *testing.T) {
	o := New(nil)
	rec := Value{Type: point, Data: map[string]any{"x": int32(5)}}

	names, _ := o.Members(rec)
	if len(names) != 3 || names[2] != "label" {
		t.Fatalf("Members() = %v", names)
	}
	x, err := o.ReadMember(rec, "x")
	if err != nil || o.Unbox(x) != int32(5) {
		t.Fatalf("ReadMember(x) = %v, %v", x, err)
	}
	if _, err := o.ReadMember(rec, "z"); err == nil {
		t.Fatal("expected not found")
	}

	meta, _ := o.MetaObject(rec)
	if name, _ := o.MetaQualifiedName(meta); name != "geo.point" {
		t.Fatalf("meta = %q", name)
	}
}

func TestIterator(t *testing.T) {
	b, _ := newBridge()

	it, err := b.Iterator(Value{Type: &wit.TypeDef{Kind: &wit.List{Type: wit.String{}}}, Data: []any{"a", "b"}})
	if err != nil {
		t.Fatalf("Iterator failed: %v", err)
	}
	if !it.HasNext() {
		t.Fatal("expected elements")
	}
	first, _ := it.Next()
	if s, _ := b.Oracle().AsString(first); s != "a" {
		t.Fatalf("first = %v", first)
	}

	_, err = b.Iterator(Value{Type: point, Data: map[string]any{}})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseIterate, Kind: errors.KindNotIterable}) {
		t.Fatalf("err = %v, want not_iterable", err)
	}
}
