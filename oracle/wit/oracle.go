package witoracle

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/identity"
)

// Language is reported for every WIT value.
const Language = "wit"

// Value is a Component Model value in lifted form:
//
//	record          map[string]any keyed by field name
//	list, tuple     []any or a typed slice
//	option          nil for none, the payload otherwise
//	result          map[string]any with a single "ok" or "err" key
//	variant         map[string]any with a single case key
//	enum            uint32 case index or the case name
//	flags           uint64 bit set or []string of flag names
//	own, borrow     uint32 handle
//	primitives      the matching Go type; char is a rune
type Value struct {
	Type wit.Type
	Data any
}

// Func is a callable component export.
type Func struct {
	Call    func(args ...any) ([]any, error)
	Name    string
	Params  []wit.Type
	Results []wit.Type
}

// Oracle answers capability queries about Values, Funcs and *wit.TypeDef
// class objects. Go primitives pass through as untyped values.
type Oracle struct {
	ids *identity.Table
}

var (
	_ polyglot.Oracle          = (*Oracle)(nil)
	_ polyglot.PrimitiveOracle = (*Oracle)(nil)
)

// New creates an oracle. A nil table uses a private one.
func New(ids *identity.Table) *Oracle {
	if ids == nil {
		ids = identity.NewTable()
	}
	return &Oracle{ids: ids}
}

func (o *Oracle) Unbox(v polyglot.Value) polyglot.Value {
	x, ok := v.(Value)
	if !ok {
		return v
	}
	kind, _ := kindOf(x.Type)
	switch k := kind.(type) {
	case *wit.Option:
		if x.Data == nil {
			return nil
		}
		return o.Unbox(Value{Type: k.Type, Data: x.Data})
	}
	if isPrimitive(kind) {
		return x.Data
	}
	return v
}

func (o *Oracle) IsString(v polyglot.Value) bool {
	switch x := v.(type) {
	case string:
		return true
	case Value:
		kind, _ := kindOf(x.Type)
		switch kind.(type) {
		case wit.String, wit.Char:
			return true
		}
	}
	return false
}

func (o *Oracle) AsString(v polyglot.Value) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case Value:
		switch d := x.Data.(type) {
		case string:
			return d, nil
		case rune:
			return string(d), nil
		}
	}
	return "", errors.TypeMismatch(errors.PhaseOracle, nil, "string", v)
}

func (o *Oracle) IsPointer(v polyglot.Value) bool {
	x, ok := v.(Value)
	if !ok {
		return false
	}
	kind, _ := kindOf(x.Type)
	switch kind.(type) {
	case *wit.Own, *wit.Borrow:
		return true
	}
	return false
}

func (o *Oracle) AsPointer(v polyglot.Value) (uint64, error) {
	if o.IsPointer(v) {
		switch h := v.(Value).Data.(type) {
		case uint32:
			return uint64(h), nil
		case uint64:
			return h, nil
		case int:
			return uint64(h), nil
		}
	}
	return 0, errors.TypeMismatch(errors.PhaseOracle, nil, "resource handle", v)
}

// elements returns the slice behind a list or tuple and the type of
// element i.
func elements(v polyglot.Value) (reflect.Value, func(i int) wit.Type, bool) {
	x, ok := v.(Value)
	if !ok {
		return reflect.Value{}, nil, false
	}
	rv := reflect.ValueOf(x.Data)
	if x.Data != nil && rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return reflect.Value{}, nil, false
	}
	kind, _ := kindOf(x.Type)
	switch k := kind.(type) {
	case *wit.List:
		return rv, func(int) wit.Type { return k.Type }, true
	case *wit.Tuple:
		return rv, func(i int) wit.Type {
			if i < len(k.Types) {
				return k.Types[i]
			}
			return nil
		}, true
	}
	return reflect.Value{}, nil, false
}

func (o *Oracle) HasArrayElements(v polyglot.Value) bool {
	_, _, ok := elements(v)
	return ok
}

func (o *Oracle) ArraySize(v polyglot.Value) (int, error) {
	rv, _, ok := elements(v)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseOracle, nil, "list or tuple", v)
	}
	if !rv.IsValid() {
		return 0, nil
	}
	return rv.Len(), nil
}

func (o *Oracle) ArrayElement(v polyglot.Value, index int) (polyglot.Value, error) {
	rv, typeAt, ok := elements(v)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseOracle, nil, "list or tuple", v)
	}
	n := 0
	if rv.IsValid() {
		n = rv.Len()
	}
	if index < 0 || index >= n {
		return nil, errors.OutOfBounds(errors.PhaseOracle, nil, index, n)
	}
	return Value{Type: typeAt(index), Data: rv.Index(index).Interface()}, nil
}

// fields returns the member names of records, results and variants.
func fields(v polyglot.Value) ([]string, map[string]wit.Type, bool) {
	x, ok := v.(Value)
	if !ok {
		return nil, nil, false
	}
	kind, _ := kindOf(x.Type)
	switch k := kind.(type) {
	case *wit.Record:
		names := make([]string, len(k.Fields))
		types := make(map[string]wit.Type, len(k.Fields))
		for i, f := range k.Fields {
			names[i] = f.Name
			types[f.Name] = f.Type
		}
		return names, types, true
	case *wit.Result:
		c, _ := activeCase(x.Data)
		switch c {
		case "ok":
			return []string{c}, map[string]wit.Type{c: k.OK}, true
		case "err":
			return []string{c}, map[string]wit.Type{c: k.Err}, true
		}
	case *wit.Variant:
		c, _ := activeCase(x.Data)
		for _, vc := range k.Cases {
			if vc.Name == c {
				return []string{c}, map[string]wit.Type{c: vc.Type}, true
			}
		}
	}
	return nil, nil, false
}

func activeCase(data any) (string, any) {
	m, ok := data.(map[string]any)
	if !ok || len(m) != 1 {
		return "", nil
	}
	for k, v := range m {
		return k, v
	}
	return "", nil
}

func (o *Oracle) HasMembers(v polyglot.Value) bool {
	names, _, ok := fields(v)
	return ok && len(names) > 0
}

func (o *Oracle) Members(v polyglot.Value) ([]string, error) {
	names, _, _ := fields(v)
	return names, nil
}

func (o *Oracle) IsMemberReadable(v polyglot.Value, member string) bool {
	_, types, ok := fields(v)
	if !ok {
		return false
	}
	_, found := types[member]
	return found
}

func (o *Oracle) ReadMember(v polyglot.Value, member string) (polyglot.Value, error) {
	_, types, ok := fields(v)
	if ok {
		if t, found := types[member]; found {
			m, _ := v.(Value).Data.(map[string]any)
			if t == nil {
				return nil, nil
			}
			return Value{Type: t, Data: m[member]}, nil
		}
	}
	return nil, errors.NotFound(errors.PhaseOracle, "member", member)
}

func (o *Oracle) IsExecutable(v polyglot.Value) bool {
	f, ok := v.(*Func)
	return ok && f.Call != nil
}

// Execute calls a Func. Arguments may be Values or lifted Go data.
// Multiple results come back as a tuple Value.
func (o *Oracle) Execute(v polyglot.Value, args ...polyglot.Value) (polyglot.Value, error) {
	f, ok := v.(*Func)
	if !ok || f.Call == nil {
		return nil, errors.Unsupported(errors.PhaseOracle, fmt.Sprintf("executing %T", v))
	}
	if len(args) != len(f.Params) {
		return nil, errors.New(errors.PhaseOracle, errors.KindInvalidInput).
			Path(f.Name).
			Detail("expects %d argument(s), got %d", len(f.Params), len(args)).
			Build()
	}
	lowered := make([]any, len(args))
	for i, a := range args {
		if x, ok := a.(Value); ok {
			a = x.Data
		}
		lowered[i] = a
	}

	out, err := f.Call(lowered...)
	if err != nil {
		return nil, errors.New(errors.PhaseOracle, errors.KindOracleFailure).
			Path(f.Name).
			Detail("call failed").
			Cause(err).
			Build()
	}
	if len(out) != len(f.Results) {
		return nil, errors.New(errors.PhaseOracle, errors.KindOracleFailure).
			Path(f.Name).
			Detail("returned %d result(s), declared %d", len(out), len(f.Results)).
			Build()
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return Value{Type: f.Results[0], Data: out[0]}, nil
	}
	return Value{Type: &wit.TypeDef{Kind: &wit.Tuple{Types: f.Results}}, Data: out}, nil
}

func (o *Oracle) HasMetaObject(v polyglot.Value) bool {
	x, ok := v.(Value)
	if !ok {
		return false
	}
	_, named := kindOf(x.Type)
	return named != nil
}

func (o *Oracle) MetaObject(v polyglot.Value) (polyglot.Value, error) {
	if x, ok := v.(Value); ok {
		if _, named := kindOf(x.Type); named != nil {
			return named, nil
		}
	}
	return nil, errors.NotFound(errors.PhaseOracle, "meta object", fmt.Sprintf("%T", v))
}

func (o *Oracle) MetaQualifiedName(meta polyglot.Value) (string, error) {
	return o.ClassName(meta)
}

func (o *Oracle) IsClass(v polyglot.Value) bool {
	_, ok := v.(*wit.TypeDef)
	return ok
}

func (o *Oracle) ClassName(v polyglot.Value) (string, error) {
	if td, ok := v.(*wit.TypeDef); ok {
		return qualifiedName(td), nil
	}
	return "", errors.TypeMismatch(errors.PhaseOracle, nil, "type definition", v)
}

// IsHostMap is false: WIT has no map type.
func (o *Oracle) IsHostMap(polyglot.Value) bool { return false }

func (o *Oracle) HostMapEntries(v polyglot.Value) ([]polyglot.Entry, error) {
	return nil, errors.Unsupported(errors.PhaseOracle, "host maps")
}

func (o *Oracle) HasIterator(v polyglot.Value) bool {
	return o.HasArrayElements(v)
}

func (o *Oracle) Iterator(v polyglot.Value) (polyglot.Cursor, error) {
	if !o.HasIterator(v) {
		return nil, errors.NotIterable(v)
	}
	return polyglot.ArrayCursor(o, v)
}

// IdentityHash keys lists and records by their backing data so copies of
// a Value share one identity.
func (o *Oracle) IdentityHash(v polyglot.Value) uint64 {
	if x, ok := v.(Value); ok && x.Data != nil {
		switch reflect.TypeOf(x.Data).Kind() {
		case reflect.Slice, reflect.Map, reflect.Pointer:
			return uint64(o.ids.Of(x.Data))
		}
	}
	return uint64(o.ids.Of(v))
}

func (o *Oracle) Language(v polyglot.Value) (string, bool) {
	switch v.(type) {
	case Value, *Func, *wit.TypeDef:
		return Language, true
	}
	return "", false
}

func (o *Oracle) Format(v polyglot.Value) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "nil", true
	case string:
		return x, true
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(x), true
	case *Func:
		return signature(x), true
	case *wit.TypeDef:
		return qualifiedName(x), true
	case Value:
		return o.formatValue(x)
	}
	return "", false
}

func (o *Oracle) formatValue(x Value) (string, bool) {
	kind, _ := kindOf(x.Type)
	switch k := kind.(type) {
	case wit.Char:
		if r, ok := x.Data.(rune); ok {
			return strconv.QuoteRune(r), true
		}
	case *wit.Option:
		if x.Data == nil {
			return "none", true
		}
		return o.Format(Value{Type: k.Type, Data: x.Data})
	case *wit.Enum:
		return enumCase(k, x.Data)
	case *wit.Flags:
		return "flags(" + strings.Join(flagNames(k, x.Data), ", ") + ")", true
	case *wit.Own, *wit.Borrow:
		if h, err := o.AsPointer(x); err == nil {
			return typeName(x.Type) + "#" + strconv.FormatUint(h, 10), true
		}
	}
	if isPrimitive(kind) {
		return o.Format(x.Data)
	}
	return "", false
}

func enumCase(e *wit.Enum, data any) (string, bool) {
	switch d := data.(type) {
	case string:
		return d, true
	case uint32:
		if int(d) < len(e.Cases) {
			return e.Cases[d].Name, true
		}
	case int:
		if d >= 0 && d < len(e.Cases) {
			return e.Cases[d].Name, true
		}
	}
	return "", false
}

func flagNames(f *wit.Flags, data any) []string {
	switch d := data.(type) {
	case []string:
		names := append([]string(nil), d...)
		sort.Strings(names)
		return names
	case uint64:
		var names []string
		for i, fl := range f.Flags {
			if i < 64 && d&(1<<uint(i)) != 0 {
				names = append(names, fl.Name)
			}
		}
		return names
	case uint32:
		return flagNames(f, uint64(d))
	}
	return nil
}

func signature(f *Func) string {
	var sb strings.Builder
	sb.WriteString("func")
	if f.Name != "" {
		sb.WriteByte(' ')
		sb.WriteString(f.Name)
	}
	sb.WriteByte('(')
	sb.WriteString(typeList(f.Params))
	sb.WriteByte(')')
	switch len(f.Results) {
	case 0:
	case 1:
		sb.WriteString(" -> ")
		sb.WriteString(typeName(f.Results[0]))
	default:
		sb.WriteString(" -> tuple<")
		sb.WriteString(typeList(f.Results))
		sb.WriteByte('>')
	}
	return sb.String()
}

func (o *Oracle) IsNull(v polyglot.Value) bool {
	if v == nil {
		return true
	}
	x, ok := v.(Value)
	if !ok || x.Data != nil {
		return false
	}
	kind, _ := kindOf(x.Type)
	_, isOption := kind.(*wit.Option)
	return isOption
}

func (o *Oracle) IsBoolean(v polyglot.Value) bool {
	if x, ok := v.(Value); ok {
		kind, _ := kindOf(x.Type)
		_, isBool := kind.(wit.Bool)
		return isBool
	}
	_, ok := v.(bool)
	return ok
}

func (o *Oracle) IsNumber(v polyglot.Value) bool {
	if x, ok := v.(Value); ok {
		kind, _ := kindOf(x.Type)
		return isNumeric(kind)
	}
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}
