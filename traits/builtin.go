package traits

import (
	"reflect"
	"unicode/utf8"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/iterator"
)

// Builtin trait names.
const (
	TraitMap        = "Map"
	TraitArray      = "Array"
	TraitExecutable = "Executable"
	TraitIterable   = "Iterable"
	TraitMetaObject = "MetaObject"
	TraitPointer    = "Pointer"
	TraitString     = "String"
	TraitNumber     = "Number"
	TraitBoolean    = "Boolean"
	TraitNull       = "Null"
)

// BaseTrait returns the methods every foreign class answers.
func BaseTrait() Trait {
	return Trait{
		Name: BaseClassName,
		Methods: map[string]Method{
			"class": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				if err := arity("class", args, 0); err != nil {
					return nil, err
				}
				return p.class.Name(), nil
			},
			"members": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				if err := arity("members", args, 0); err != nil {
					return nil, err
				}
				if !p.oracle.HasMembers(p.value) {
					return []string{}, nil
				}
				return oracleCall(p.oracle.Members(p.value))
			},
			"read": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				if err := arity("read", args, 1); err != nil {
					return nil, err
				}
				name, ok := args[0].(string)
				if !ok {
					return nil, errors.TypeMismatch(errors.PhaseBridge, []string{"read"}, "string", args[0])
				}
				if !p.oracle.IsMemberReadable(p.value, name) {
					return nil, errors.NotFound(errors.PhaseBridge, "readable member", name)
				}
				return oracleCall(p.oracle.ReadMember(p.value, name))
			},
			"identity": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				return p.oracle.IdentityHash(p.value), nil
			},
			"language": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				if lang, ok := p.oracle.Language(p.value); ok {
					return lang, nil
				}
				return nil, nil
			},
		},
	}
}

// Builtins returns the builtin capability traits.
func Builtins() []Trait {
	return []Trait{
		arrayTrait(),
		mapTrait(),
		executableTrait(),
		iterableTrait(),
		metaObjectTrait(),
		pointerTrait(),
		stringTrait(),
		scalarTrait(TraitNumber),
		scalarTrait(TraitBoolean),
		nullTrait(),
	}
}

func arrayTrait() Trait {
	return Trait{
		Name: TraitArray,
		Methods: map[string]Method{
			"size": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				return oracleCall(p.oracle.ArraySize(p.value))
			},
			"at": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				if err := arity("at", args, 1); err != nil {
					return nil, err
				}
				idx, err := intArg("at", args[0])
				if err != nil {
					return nil, err
				}
				n, err := p.oracle.ArraySize(p.value)
				if err != nil {
					return nil, errors.Oracle(errors.PhaseBridge, []string{"at"}, err)
				}
				if idx < 0 {
					idx += n
				}
				if idx < 0 || idx >= n {
					return nil, errors.OutOfBounds(errors.PhaseBridge, []string{"at"}, idx, n)
				}
				return oracleCall(p.oracle.ArrayElement(p.value, idx))
			},
			"to_a": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				cur, err := polyglot.ArrayCursor(p.oracle, p.value)
				if err != nil {
					return nil, errors.Oracle(errors.PhaseBridge, []string{"to_a"}, err)
				}
				return iterator.FromCursor(cur).Collect()
			},
			"each": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				cur, err := polyglot.ArrayCursor(p.oracle, p.value)
				if err != nil {
					return nil, errors.Oracle(errors.PhaseBridge, []string{"each"}, err)
				}
				return iterator.FromCursor(cur), nil
			},
		},
	}
}

func mapTrait() Trait {
	entries := func(p *Proxy) ([]polyglot.Entry, error) {
		es, err := p.oracle.HostMapEntries(p.value)
		if err != nil {
			return nil, errors.Oracle(errors.PhaseBridge, []string{"entries"}, err)
		}
		return es, nil
	}
	return Trait{
		Name: TraitMap,
		Methods: map[string]Method{
			"size": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				es, err := entries(p)
				if err != nil {
					return nil, err
				}
				return len(es), nil
			},
			"keys": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				es, err := entries(p)
				if err != nil {
					return nil, err
				}
				keys := make([]polyglot.Value, len(es))
				for i, e := range es {
					keys[i] = e.Key
				}
				return keys, nil
			},
			"fetch": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				if err := arity("fetch", args, 1); err != nil {
					return nil, err
				}
				es, err := entries(p)
				if err != nil {
					return nil, err
				}
				for _, e := range es {
					if sameKey(e.Key, args[0]) {
						return e.Value, nil
					}
				}
				return nil, errors.New(errors.PhaseBridge, errors.KindNotFound).
					Path("fetch").
					Value(args[0]).
					Detail("key %v not found", args[0]).
					Build()
			},
			"to_a": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				es, err := entries(p)
				if err != nil {
					return nil, err
				}
				out := make([]polyglot.Value, len(es))
				for i, e := range es {
					out[i] = e
				}
				return out, nil
			},
			"each": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				es, err := entries(p)
				if err != nil {
					return nil, err
				}
				return iterator.FromCursor(polyglot.SliceCursor(es)), nil
			},
		},
	}
}

func executableTrait() Trait {
	return Trait{
		Name: TraitExecutable,
		Methods: map[string]Method{
			"call": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				return oracleCall(p.oracle.Execute(p.value, args...))
			},
		},
	}
}

func iterableTrait() Trait {
	return Trait{
		Name: TraitIterable,
		Methods: map[string]Method{
			"each": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				it, err := iterator.New(p.oracle, p.value)
				if err != nil {
					return nil, err
				}
				return it, nil
			},
			"to_a": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				it, err := iterator.New(p.oracle, p.value)
				if err != nil {
					return nil, err
				}
				return it.Collect()
			},
		},
	}
}

func metaObjectTrait() Trait {
	return Trait{
		Name: TraitMetaObject,
		Methods: map[string]Method{
			"name": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				return oracleCall(p.oracle.ClassName(p.value))
			},
		},
	}
}

func pointerTrait() Trait {
	return Trait{
		Name: TraitPointer,
		Methods: map[string]Method{
			"address": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				return oracleCall(p.oracle.AsPointer(p.value))
			},
			"null?": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				addr, err := p.oracle.AsPointer(p.value)
				if err != nil {
					return nil, errors.Oracle(errors.PhaseBridge, []string{"null?"}, err)
				}
				return addr == 0, nil
			},
		},
	}
}

func stringTrait() Trait {
	return Trait{
		Name: TraitString,
		Methods: map[string]Method{
			"to_s": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				return oracleCall(p.oracle.AsString(p.value))
			},
			"size": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				s, err := p.oracle.AsString(p.value)
				if err != nil {
					return nil, errors.Oracle(errors.PhaseBridge, []string{"size"}, err)
				}
				return utf8.RuneCountInString(s), nil
			},
		},
	}
}

func scalarTrait(name string) Trait {
	return Trait{
		Name: name,
		Methods: map[string]Method{
			"value": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				return p.oracle.Unbox(p.value), nil
			},
		},
	}
}

func nullTrait() Trait {
	return Trait{
		Name: TraitNull,
		Methods: map[string]Method{
			"value": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				return nil, nil
			},
			"nil?": func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error) {
				return true, nil
			},
		},
	}
}

func oracleCall[T any](v T, err error) (polyglot.Value, error) {
	if err != nil {
		return nil, errors.Oracle(errors.PhaseBridge, nil, err)
	}
	return v, nil
}

func arity(method string, args []polyglot.Value, want int) error {
	if len(args) != want {
		return errors.New(errors.PhaseBridge, errors.KindInvalidInput).
			Path(method).
			Detail("expects %d argument(s), got %d", want, len(args)).
			Build()
	}
	return nil
}

func intArg(method string, v polyglot.Value) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, errors.TypeMismatch(errors.PhaseBridge, []string{method}, "integer", v)
}

func sameKey(a, b polyglot.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
