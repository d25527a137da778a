package witoracle

import (
	"strings"

	"go.bytecodealliance.org/wit"
)

// kindOf follows type aliases and returns the underlying kind and the
// nearest named definition. Primitive types are returned as the kind.
func kindOf(t wit.Type) (kind any, named *wit.TypeDef) {
	for depth := 0; depth < 32; depth++ {
		td, ok := t.(*wit.TypeDef)
		if !ok {
			return t, named
		}
		if named == nil && td.Name != nil {
			named = td
		}
		next, alias := td.Kind.(*wit.TypeDef)
		if !alias {
			return td.Kind, named
		}
		t = next
	}
	return nil, named
}

// qualifiedName renders iface.name for types owned by an interface.
func qualifiedName(td *wit.TypeDef) string {
	if td.Name == nil {
		return typeName(td)
	}
	if iface, ok := td.Owner.(*wit.Interface); ok && iface.Name != nil {
		return *iface.Name + "." + *td.Name
	}
	return *td.Name
}

// typeName renders t in WIT syntax.
func typeName(t wit.Type) string {
	if td, ok := t.(*wit.TypeDef); ok && td.Name != nil {
		return *td.Name
	}
	kind, _ := kindOf(t)
	switch k := kind.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.U16:
		return "u16"
	case wit.U32:
		return "u32"
	case wit.U64:
		return "u64"
	case wit.S8:
		return "s8"
	case wit.S16:
		return "s16"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.List:
		return "list<" + typeName(k.Type) + ">"
	case *wit.Option:
		return "option<" + typeName(k.Type) + ">"
	case *wit.Tuple:
		return "tuple<" + typeList(k.Types) + ">"
	case *wit.Result:
		var parts []string
		if k.OK != nil {
			parts = append(parts, typeName(k.OK))
		} else if k.Err != nil {
			parts = append(parts, "_")
		}
		if k.Err != nil {
			parts = append(parts, typeName(k.Err))
		}
		if len(parts) == 0 {
			return "result"
		}
		return "result<" + strings.Join(parts, ", ") + ">"
	case *wit.Own:
		return "own<" + handleTarget(k.Type) + ">"
	case *wit.Borrow:
		return "borrow<" + handleTarget(k.Type) + ">"
	case *wit.Record:
		return "record"
	case *wit.Enum:
		return "enum"
	case *wit.Flags:
		return "flags"
	case *wit.Variant:
		return "variant"
	}
	return "unknown"
}

func typeList(ts []wit.Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = typeName(t)
	}
	return strings.Join(names, ", ")
}

func handleTarget(td *wit.TypeDef) string {
	if td == nil || td.Name == nil {
		return "resource"
	}
	return *td.Name
}

func isNumeric(kind any) bool {
	switch kind.(type) {
	case wit.U8, wit.U16, wit.U32, wit.U64, wit.S8, wit.S16, wit.S32, wit.S64, wit.F32, wit.F64:
		return true
	}
	return false
}

func isPrimitive(kind any) bool {
	switch kind.(type) {
	case wit.Bool, wit.Char, wit.String:
		return true
	}
	return isNumeric(kind)
}
