package protooracle

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/wippyai/polyglot"
)

// List is the value of a repeated field.
type List struct {
	Field protoreflect.FieldDescriptor
	List  protoreflect.List
}

// Map is the value of a map field.
type Map struct {
	Field protoreflect.FieldDescriptor
	Map   protoreflect.Map
}

// Enum is the value of an enum field.
type Enum struct {
	Desc   protoreflect.EnumDescriptor
	Number protoreflect.EnumNumber
}

// Name returns the enum value name, or the number for unknown values.
func (e Enum) Name() string {
	if ev := e.Desc.Values().ByNumber(e.Number); ev != nil {
		return string(ev.Name())
	}
	return fmt.Sprint(int32(e.Number))
}

// fieldValue lifts a field value out of protoreflect.
func fieldValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) polyglot.Value {
	switch {
	case fd.IsList():
		return List{Field: fd, List: v.List()}
	case fd.IsMap():
		return Map{Field: fd, Map: v.Map()}
	}
	return singular(fd, v)
}

func singular(fd protoreflect.FieldDescriptor, v protoreflect.Value) polyglot.Value {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		m := v.Message()
		if !m.IsValid() {
			return nil
		}
		return m.Interface()
	case protoreflect.EnumKind:
		return Enum{Desc: fd.Enum(), Number: v.Enum()}
	}
	return v.Interface()
}

// unbox unwraps well-known wrapper messages and structpb.Value.
func unbox(v polyglot.Value) polyglot.Value {
	switch x := v.(type) {
	case *wrapperspb.StringValue:
		return x.GetValue()
	case *wrapperspb.BoolValue:
		return x.GetValue()
	case *wrapperspb.Int32Value:
		return x.GetValue()
	case *wrapperspb.Int64Value:
		return x.GetValue()
	case *wrapperspb.UInt32Value:
		return x.GetValue()
	case *wrapperspb.UInt64Value:
		return x.GetValue()
	case *wrapperspb.FloatValue:
		return x.GetValue()
	case *wrapperspb.DoubleValue:
		return x.GetValue()
	case *wrapperspb.BytesValue:
		return x.GetValue()
	case *structpb.Value:
		switch k := x.GetKind().(type) {
		case *structpb.Value_NumberValue:
			return k.NumberValue
		case *structpb.Value_StringValue:
			return k.StringValue
		case *structpb.Value_BoolValue:
			return k.BoolValue
		case *structpb.Value_StructValue:
			return k.StructValue
		case *structpb.Value_ListValue:
			return k.ListValue
		}
		return nil
	}
	return v
}

// entries returns host map entries sorted by key.
func entries(v polyglot.Value) ([]polyglot.Entry, bool) {
	switch x := v.(type) {
	case *structpb.Struct:
		out := make([]polyglot.Entry, 0, len(x.GetFields()))
		for k, fv := range x.GetFields() {
			out = append(out, polyglot.Entry{Key: k, Value: unbox(fv)})
		}
		sortEntries(out)
		return out, true
	case Map:
		out := make([]polyglot.Entry, 0, x.Map.Len())
		vd := x.Field.MapValue()
		x.Map.Range(func(k protoreflect.MapKey, mv protoreflect.Value) bool {
			out = append(out, polyglot.Entry{Key: k.Interface(), Value: singular(vd, mv)})
			return true
		})
		sortEntries(out)
		return out, true
	}
	return nil, false
}

func sortEntries(es []polyglot.Entry) {
	sort.Slice(es, func(i, j int) bool {
		return keyLess(es[i].Key, es[j].Key)
	})
}

// keyLess orders map keys of one kind: strings lexically, integers
// numerically, false before true.
func keyLess(a, b any) bool {
	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		return x < y
	case bool:
		y, _ := b.(bool)
		return !x && y
	case int32:
		y, _ := b.(int32)
		return x < y
	case int64:
		y, _ := b.(int64)
		return x < y
	case uint32:
		y, _ := b.(uint32)
		return x < y
	case uint64:
		y, _ := b.(uint64)
		return x < y
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

// elements returns the array size and element accessor of repeated
// fields and structpb lists.
func elements(v polyglot.Value) (int, func(i int) polyglot.Value, bool) {
	switch x := v.(type) {
	case List:
		return x.List.Len(), func(i int) polyglot.Value {
			return singular(x.Field, x.List.Get(i))
		}, true
	case *structpb.ListValue:
		vals := x.GetValues()
		return len(vals), func(i int) polyglot.Value {
			return unbox(vals[i])
		}, true
	}
	return 0, nil, false
}

// message returns v as a message, excluding the types that behave as
// primitives or containers.
func message(v polyglot.Value) (protoreflect.Message, bool) {
	switch v.(type) {
	case *structpb.Struct, *structpb.ListValue, *structpb.Value,
		*wrapperspb.StringValue, *wrapperspb.BoolValue, *wrapperspb.BytesValue,
		*wrapperspb.Int32Value, *wrapperspb.Int64Value,
		*wrapperspb.UInt32Value, *wrapperspb.UInt64Value,
		*wrapperspb.FloatValue, *wrapperspb.DoubleValue:
		return nil, false
	}
	m, ok := v.(proto.Message)
	if !ok {
		return nil, false
	}
	return m.ProtoReflect(), true
}
