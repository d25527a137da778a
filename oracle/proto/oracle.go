package protooracle

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/identity"
)

// Language is reported for every protobuf value.
const Language = "protobuf"

// Oracle answers capability queries about protobuf messages through
// protoreflect. Messages expose their fields as members in declaration
// order; repeated fields are arrays and map fields are host maps.
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

// Unbox unwraps wrapperspb messages and structpb.Value.
func (o *Oracle) Unbox(v polyglot.Value) polyglot.Value {
	return unbox(v)
}

func (o *Oracle) IsString(v polyglot.Value) bool {
	_, ok := unbox(v).(string)
	return ok
}

func (o *Oracle) AsString(v polyglot.Value) (string, error) {
	if s, ok := unbox(v).(string); ok {
		return s, nil
	}
	return "", errors.TypeMismatch(errors.PhaseOracle, nil, "string", v)
}

// IsPointer is false: protobuf has no pointers.
func (o *Oracle) IsPointer(polyglot.Value) bool { return false }

func (o *Oracle) AsPointer(v polyglot.Value) (uint64, error) {
	return 0, errors.Unsupported(errors.PhaseOracle, "pointers")
}

func (o *Oracle) HasArrayElements(v polyglot.Value) bool {
	_, _, ok := elements(unbox(v))
	return ok
}

func (o *Oracle) ArraySize(v polyglot.Value) (int, error) {
	n, _, ok := elements(unbox(v))
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseOracle, nil, "repeated field", v)
	}
	return n, nil
}

func (o *Oracle) ArrayElement(v polyglot.Value, index int) (polyglot.Value, error) {
	n, at, ok := elements(unbox(v))
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseOracle, nil, "repeated field", v)
	}
	if index < 0 || index >= n {
		return nil, errors.OutOfBounds(errors.PhaseOracle, nil, index, n)
	}
	return at(index), nil
}

func (o *Oracle) HasMembers(v polyglot.Value) bool {
	m, ok := message(v)
	return ok && m.Descriptor().Fields().Len() > 0
}

func (o *Oracle) Members(v polyglot.Value) ([]string, error) {
	m, ok := message(v)
	if !ok {
		return nil, nil
	}
	fields := m.Descriptor().Fields()
	names := make([]string, fields.Len())
	for i := range names {
		names[i] = string(fields.Get(i).Name())
	}
	return names, nil
}

func (o *Oracle) IsMemberReadable(v polyglot.Value, member string) bool {
	m, ok := message(v)
	return ok && m.Descriptor().Fields().ByName(protoreflect.Name(member)) != nil
}

func (o *Oracle) ReadMember(v polyglot.Value, member string) (polyglot.Value, error) {
	m, ok := message(v)
	if ok {
		if fd := m.Descriptor().Fields().ByName(protoreflect.Name(member)); fd != nil {
			return fieldValue(fd, m.Get(fd)), nil
		}
	}
	return nil, errors.NotFound(errors.PhaseOracle, "field", member)
}

// IsExecutable is false: messages carry data only.
func (o *Oracle) IsExecutable(polyglot.Value) bool { return false }

func (o *Oracle) Execute(v polyglot.Value, args ...polyglot.Value) (polyglot.Value, error) {
	return nil, errors.Unsupported(errors.PhaseOracle, "executing protobuf values")
}

func (o *Oracle) HasMetaObject(v polyglot.Value) bool {
	_, ok := v.(proto.Message)
	return ok
}

func (o *Oracle) MetaObject(v polyglot.Value) (polyglot.Value, error) {
	if m, ok := v.(proto.Message); ok {
		return m.ProtoReflect().Descriptor(), nil
	}
	return nil, errors.NotFound(errors.PhaseOracle, "meta object", fmt.Sprintf("%T", v))
}

func (o *Oracle) MetaQualifiedName(meta polyglot.Value) (string, error) {
	return o.ClassName(meta)
}

// IsClass reports message and enum descriptors.
func (o *Oracle) IsClass(v polyglot.Value) bool {
	switch v.(type) {
	case protoreflect.MessageDescriptor, protoreflect.EnumDescriptor:
		return true
	}
	return false
}

func (o *Oracle) ClassName(v polyglot.Value) (string, error) {
	switch d := v.(type) {
	case protoreflect.MessageDescriptor:
		return string(d.FullName()), nil
	case protoreflect.EnumDescriptor:
		return string(d.FullName()), nil
	}
	return "", errors.TypeMismatch(errors.PhaseOracle, nil, "descriptor", v)
}

func (o *Oracle) IsHostMap(v polyglot.Value) bool {
	switch unbox(v).(type) {
	case Map, *structpb.Struct:
		return true
	}
	return false
}

func (o *Oracle) HostMapEntries(v polyglot.Value) ([]polyglot.Entry, error) {
	es, ok := entries(unbox(v))
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseOracle, nil, "map field", v)
	}
	return es, nil
}

func (o *Oracle) HasIterator(v polyglot.Value) bool {
	return o.HasArrayElements(v) || o.IsHostMap(v)
}

// Iterator walks array elements, or host map entries in key order.
func (o *Oracle) Iterator(v polyglot.Value) (polyglot.Cursor, error) {
	if o.HasArrayElements(v) {
		return polyglot.ArrayCursor(o, v)
	}
	if es, ok := entries(unbox(v)); ok {
		return polyglot.SliceCursor(es), nil
	}
	return nil, errors.NotIterable(v)
}

func (o *Oracle) IdentityHash(v polyglot.Value) uint64 {
	return uint64(o.ids.Of(v))
}

func (o *Oracle) Language(v polyglot.Value) (string, bool) {
	switch v.(type) {
	case proto.Message, List, Map, Enum, protoreflect.Descriptor:
		return Language, true
	}
	return "", false
}

func (o *Oracle) Format(v polyglot.Value) (string, bool) {
	switch x := unbox(v).(type) {
	case nil:
		return "nil", true
	case string:
		return x, true
	case []byte:
		return "0x" + hex.EncodeToString(x), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case bool, int32, int64, uint32, uint64, int:
		return fmt.Sprint(x), true
	case Enum:
		return x.Name(), true
	case protoreflect.Descriptor:
		return string(x.FullName()), true
	}
	return "", false
}

func (o *Oracle) IsNull(v polyglot.Value) bool {
	return unbox(v) == nil
}

func (o *Oracle) IsBoolean(v polyglot.Value) bool {
	_, ok := unbox(v).(bool)
	return ok
}

func (o *Oracle) IsNumber(v polyglot.Value) bool {
	switch unbox(v).(type) {
	case int, int32, int64, uint32, uint64, float32, float64:
		return true
	}
	return false
}
