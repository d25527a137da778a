package inspect

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/internal/oracletest"
)

func noop(args ...any) (any, error) { return nil, nil }

func TestDescribe(t *testing.T) {
	nested := &oracletest.Object{Array: true, Elements: []any{1, 2}, Hash: 0x99}
	record := &oracletest.Object{Members: []oracletest.Member{{Name: "a", Value: 1}}}

	tests := []struct {
		name string
		v    any
		want string
	}{
		{
			name: "array",
			v:    &oracletest.Object{Array: true, Elements: []any{1, 2, 3}, Hash: 0x2a},
			want: "#<ForeignObject:0x2a [1, 2, 3]>",
		},
		{
			name: "empty array",
			v:    &oracletest.Object{Array: true, Hash: 0x1},
			want: "#<ForeignObject:0x1 []>",
		},
		{
			name: "nested containers stay shallow",
			v:    &oracletest.Object{Array: true, Elements: []any{nested, record, "s", nil, 1.5}, Hash: 0x10},
			want: `#<ForeignObject:0x10 [[...], {...}, "s", nil, 1.5]>`,
		},
		{
			name: "array then proc",
			v:    &oracletest.Object{Array: true, Elements: []any{true}, Exec: noop, Hash: 0xff},
			want: "#<ForeignObject:0xff [true] proc>",
		},
		{
			name: "pointer replaces identity",
			v:    &oracletest.Object{IsPtr: true, Pointer: 0x7f001000, Hash: 0x3},
			want: "#<ForeignObject 0x7f001000>",
		},
		{
			name: "pointer with elements",
			v:    &oracletest.Object{IsPtr: true, Pointer: 0x10, Array: true, Elements: []any{104, 105}},
			want: "#<ForeignObject 0x10 [104, 105]>",
		},
		{
			name: "meta object and members",
			v: &oracletest.Object{
				Meta: "geo.Point",
				Hash: 0x5,
				Members: []oracletest.Member{
					{Name: "x", Value: 1},
					{Name: "hidden", Value: 0, Hidden: true},
					{Name: "label", Value: "origin"},
					{Name: "tags", Value: nested},
				},
			},
			want: `#<ForeignObject geo.Point:0x5 x=1, label="origin", tags=[...]>`,
		},
		{
			name: "no readable members",
			v:    &oracletest.Object{Hash: 0x6, Members: []oracletest.Member{{Name: "x", Hidden: true}}},
			want: "#<ForeignObject:0x6>",
		},
		{
			name: "host map",
			v: &oracletest.Object{
				Map:  true,
				Hash: 0x7,
				Entries: []polyglot.Entry{
					{Key: "a", Value: 1},
					{Key: 2, Value: record},
				},
				// members are ignored once the map matched
				Members: []oracletest.Member{{Name: "size", Value: 2}},
			},
			want: `#<ForeignObject:0x7 {"a"=>1, 2=>{...}}>`,
		},
		{
			name: "map with array elements renders as map",
			v: &oracletest.Object{
				Array: true, Elements: []any{1},
				Map: true, Entries: []polyglot.Entry{{Key: "k", Value: "v"}},
				Hash: 0x8,
			},
			want: `#<ForeignObject:0x8 {"k"=>"v"}>`,
		},
		{
			name: "executable only",
			v:    &oracletest.Object{Exec: noop, Hash: 0xab},
			want: "#<ForeignObject:0xab proc>",
		},
		{
			name: "language label",
			v:    &oracletest.Object{Lang: "wasm", Hash: 0xc},
			want: "#<ForeignObject[wasm]:0xc>",
		},
		{
			name: "class object",
			v:    &oracletest.Object{Class: "geo.Point", Lang: "proto", Array: true, Elements: []any{1}},
			want: "#<ForeignObject[proto] class geo.Point>",
		},
		{
			name: "boxed value is unwrapped",
			v:    &oracletest.Object{Boxed: &oracletest.Object{Array: true, Elements: []any{"x"}, Hash: 0xd}},
			want: `#<ForeignObject:0xd ["x"]>`,
		},
		{
			name: "no primitive form",
			v:    &oracletest.Object{Array: true, Elements: []any{&oracletest.Object{Exec: noop, Hash: 0xe, Lang: "js"}, &oracletest.Object{Hash: 0xf}}, Hash: 0x11},
			want: "#<ForeignObject:0x11 [<js:0xe ...>, <Foreign:0xf ...>]>",
		},
	}

	in := New(oracletest.New(), DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := in.Describe(tt.v)
			if err != nil {
				t.Fatalf("Describe failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Describe() = %s\n want %s", got, tt.want)
			}
		})
	}
}

func TestDescribe_Labeler(t *testing.T) {
	in := New(oracletest.New(), Options{
		Labeler: LabelFunc(func(v polyglot.Value) (string, error) {
			if ob, ok := v.(*oracletest.Object); ok && ob.Array {
				return "ForeignArray", nil
			}
			return "", stderrors.New("no class")
		}),
	})

	got, err := in.Describe(&oracletest.Object{Array: true, Elements: []any{1, 2, 3}, Hash: 0x2a})
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if got != "#<ForeignArray:0x2a [1, 2, 3]>" {
		t.Fatalf("Describe() = %s", got)
	}

	_, err = in.Describe(&oracletest.Object{Hash: 1})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Phase != errors.PhaseInspect {
		t.Fatalf("err = %v, want inspect error", err)
	}
}

func TestDescribe_OracleFailure(t *testing.T) {
	boom := stderrors.New("boom")
	in := New(oracletest.New(), DefaultOptions())

	for _, v := range []*oracletest.Object{
		{Array: true, Elements: []any{1}, Fail: boom},
		{Map: true, Fail: boom},
		{Members: []oracletest.Member{{Name: "a"}}, Fail: boom},
	} {
		_, err := in.Describe(v)
		if !stderrors.Is(err, boom) {
			t.Fatalf("err = %v, want cause boom", err)
		}
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseInspect, Kind: errors.KindOracleFailure}) {
			t.Fatalf("err = %v, want inspect oracle_failure", err)
		}
	}
}

func TestShallow(t *testing.T) {
	in := New(oracletest.New(), DefaultOptions())

	tests := []struct {
		v    any
		want string
	}{
		{"plain", `"plain"`},
		{"quote\"d\n", `"quote\"d\n"`},
		{&oracletest.Object{IsStr: true, Str: "boxed"}, `"boxed"`},
		{&oracletest.Object{Array: true, Elements: []any{&oracletest.Object{Array: true}}}, "[...]"},
		{&oracletest.Object{Map: true}, "{...}"},
		{&oracletest.Object{Map: true, Array: true, Elements: []any{1}}, "{...}"},
		{&oracletest.Object{Members: []oracletest.Member{{Name: "m"}}}, "{...}"},
		{42, "42"},
		{nil, "nil"},
		{false, "false"},
	}
	for _, tt := range tests {
		got, err := in.Shallow(tt.v)
		if err != nil {
			t.Fatalf("Shallow(%v) failed: %v", tt.v, err)
		}
		if got != tt.want {
			t.Errorf("Shallow(%v) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	in := New(oracletest.New(), DefaultOptions())

	if got := in.Placeholder(&oracletest.Object{Array: true}); got != "[...]" {
		t.Errorf("array placeholder = %s", got)
	}
	if got := in.Placeholder(&oracletest.Object{Map: true}); got != "{...}" {
		t.Errorf("map placeholder = %s", got)
	}
	if got := in.Placeholder(&oracletest.Object{Hash: 0x1f, Lang: "python"}); got != "<python:0x1f ...>" {
		t.Errorf("diagnostic placeholder = %s", got)
	}
}
