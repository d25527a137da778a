package wasmoracle

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/identity"
)

// Language is reported for every wasm value.
const Language = "wasm"

const pageSize = 65536

// Options configures an Oracle.
type Options struct {
	// Context is passed to guest function calls.
	Context context.Context
	// Identity assigns identity hashes. Defaults to a private table.
	Identity *identity.Table
}

// DefaultOptions returns options with a background context.
func DefaultOptions() Options {
	return Options{Context: context.Background()}
}

// Oracle answers capability queries about wazero values:
// *Instance, api.Module, api.Function, api.Memory, api.Global, View,
// wazero.CompiledModule and Type. Go strings, numbers, bools and nil are
// treated as wasm primitives.
type Oracle struct {
	ctx   context.Context
	ids   *identity.Table
	funcs sync.Map // funcKey -> *Func, for exports read off a bare api.Module
}

type funcKey struct {
	module api.Module
	name   string
}

var (
	_ polyglot.Oracle          = (*Oracle)(nil)
	_ polyglot.PrimitiveOracle = (*Oracle)(nil)
)

// New creates an oracle.
func New(opts Options) *Oracle {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Identity == nil {
		opts.Identity = identity.NewTable()
	}
	return &Oracle{ctx: opts.Context, ids: opts.Identity}
}

// NewWithDefaults creates an oracle with DefaultOptions.
func NewWithDefaults() *Oracle {
	return New(DefaultOptions())
}

// Instance is an instantiated module together with the export list scanned
// from its binary. Unlike a bare api.Module it also lists global exports.
type Instance struct {
	Module   api.Module
	Compiled wazero.CompiledModule
	Exports  []Export
	funcs    map[string]*Func
}

// Func is an exported function bound to the name of the instance it was
// read from. The runtime hands out a new api.Function per lookup, so Func
// is what keeps a function export's identity stable.
type Func struct {
	api.Function
	Module string
	Export string
}

func newFunc(fn api.Function, module, export string) *Func {
	return &Func{Function: fn, Module: module, Export: export}
}

// QualifiedName returns module.export, or the export alone for an
// unnamed module.
func (f *Func) QualifiedName() string {
	if f.Module == "" {
		return f.Export
	}
	return f.Module + "." + f.Export
}

// Load compiles and instantiates bin under name.
func Load(ctx context.Context, rt wazero.Runtime, bin []byte, name string) (*Instance, error) {
	exports, err := ScanExports(bin)
	if err != nil {
		return nil, err
	}
	compiled, err := rt.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Load("instantiate module", err)
	}
	funcs := make(map[string]*Func)
	for _, e := range exports {
		if e.Kind != ExternFunc {
			continue
		}
		if fn := mod.ExportedFunction(e.Name); fn != nil {
			funcs[e.Name] = newFunc(fn, name, e.Name)
		}
	}
	Logger().Debug("loaded wasm module",
		zap.String("name", name),
		zap.Int("exports", len(exports)),
	)
	return &Instance{Module: mod, Compiled: compiled, Exports: exports, funcs: funcs}, nil
}

// Function returns the exported function called name, or nil.
// Repeated calls return the same *Func.
func (i *Instance) Function(name string) *Func {
	return i.funcs[name]
}

// Close closes the module and releases its compiled form.
func (i *Instance) Close(ctx context.Context) error {
	err := i.Module.Close(ctx)
	if cerr := i.Compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// Export returns the export entry called name.
func (i *Instance) Export(name string) (Export, bool) {
	for _, e := range i.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// View is a window onto linear memory. It behaves as a pointer whose
// address is Offset, with one byte element per address.
type View struct {
	Memory api.Memory
	Offset uint32
	Length uint32
}

// Type is the meta object of a wasm value.
type Type struct {
	Name string
}

func (o *Oracle) Unbox(v polyglot.Value) polyglot.Value {
	if g, ok := v.(api.Global); ok {
		return decodeValue(g.Type(), g.Get())
	}
	return v
}

func (o *Oracle) IsString(v polyglot.Value) bool {
	_, ok := v.(string)
	return ok
}

func (o *Oracle) AsString(v polyglot.Value) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", errors.TypeMismatch(errors.PhaseOracle, nil, "string", v)
}

func (o *Oracle) IsPointer(v polyglot.Value) bool {
	_, ok := v.(View)
	return ok
}

func (o *Oracle) AsPointer(v polyglot.Value) (uint64, error) {
	if view, ok := v.(View); ok {
		return uint64(view.Offset), nil
	}
	return 0, errors.TypeMismatch(errors.PhaseOracle, nil, "memory view", v)
}

func (o *Oracle) HasArrayElements(v polyglot.Value) bool {
	_, ok := v.(View)
	return ok
}

func (o *Oracle) ArraySize(v polyglot.Value) (int, error) {
	view, ok := v.(View)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseOracle, nil, "memory view", v)
	}
	return int(view.Length), nil
}

func (o *Oracle) ArrayElement(v polyglot.Value, index int) (polyglot.Value, error) {
	view, ok := v.(View)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseOracle, nil, "memory view", v)
	}
	if index < 0 || index >= int(view.Length) {
		return nil, errors.OutOfBounds(errors.PhaseOracle, nil, index, int(view.Length))
	}
	b, ok := view.Memory.ReadByte(view.Offset + uint32(index))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseOracle, []string{"memory"}, int(view.Offset)+index, int(view.Memory.Size()))
	}
	return b, nil
}

func (o *Oracle) HasMembers(v polyglot.Value) bool {
	switch x := v.(type) {
	case *Instance:
		return len(x.Exports) > 0
	case api.Memory:
		return true
	case api.Module:
		return len(moduleExports(x)) > 0
	}
	return false
}

func (o *Oracle) Members(v polyglot.Value) ([]string, error) {
	switch x := v.(type) {
	case *Instance:
		names := make([]string, len(x.Exports))
		for i, e := range x.Exports {
			names[i] = e.Name
		}
		return names, nil
	case api.Memory:
		return []string{"pages", "size", "data"}, nil
	case api.Module:
		return moduleExports(x), nil
	}
	return nil, nil
}

func (o *Oracle) IsMemberReadable(v polyglot.Value, member string) bool {
	switch x := v.(type) {
	case *Instance:
		e, ok := x.Export(member)
		return ok && e.Kind != ExternTable
	case api.Memory:
		return member == "pages" || member == "size" || member == "data"
	case api.Module:
		return o.readExport(x, member) != nil
	}
	return false
}

func (o *Oracle) ReadMember(v polyglot.Value, member string) (polyglot.Value, error) {
	switch x := v.(type) {
	case *Instance:
		e, ok := x.Export(member)
		if !ok {
			break
		}
		switch e.Kind {
		case ExternFunc:
			if fn := x.Function(member); fn != nil {
				return fn, nil
			}
			return nil, errors.NotFound(errors.PhaseOracle, "function", member)
		case ExternMemory:
			return x.Module.ExportedMemory(member), nil
		case ExternGlobal:
			return x.Module.ExportedGlobal(member), nil
		}
		return nil, errors.Unsupported(errors.PhaseOracle, "reading table exports")
	case api.Memory:
		switch member {
		case "pages":
			return x.Size() / pageSize, nil
		case "size":
			return x.Size(), nil
		case "data":
			return View{Memory: x, Length: x.Size()}, nil
		}
	case api.Module:
		if ex := o.readExport(x, member); ex != nil {
			return ex, nil
		}
	}
	return nil, errors.NotFound(errors.PhaseOracle, "member", member)
}

func (o *Oracle) IsExecutable(v polyglot.Value) bool {
	switch v.(type) {
	case api.Function, api.Memory:
		return true
	}
	return false
}

// Execute calls a function with Go numbers converted to its parameter types.
// A memory called with (offset, length) returns the View over that range.
func (o *Oracle) Execute(v polyglot.Value, args ...polyglot.Value) (polyglot.Value, error) {
	switch x := v.(type) {
	case api.Function:
		return o.call(x, args)
	case api.Memory:
		return slice(x, args)
	}
	return nil, errors.Unsupported(errors.PhaseOracle, fmt.Sprintf("executing %T", v))
}

func (o *Oracle) call(fn api.Function, args []polyglot.Value) (polyglot.Value, error) {
	def := fn.Definition()
	params := def.ParamTypes()
	if len(args) != len(params) {
		return nil, errors.New(errors.PhaseOracle, errors.KindInvalidInput).
			Path(funcName(def)).
			Detail("expects %d argument(s), got %d", len(params), len(args)).
			Build()
	}
	stack := make([]uint64, len(params))
	for i, t := range params {
		enc, err := encodeValue(t, args[i])
		if err != nil {
			return nil, errors.New(errors.PhaseOracle, errors.KindTypeMismatch).
				Path(funcName(def), fmt.Sprintf("arg%d", i)).
				Value(args[i]).
				Cause(err).
				Build()
		}
		stack[i] = enc
	}

	out, err := fn.Call(o.ctx, stack...)
	if err != nil {
		return nil, errors.New(errors.PhaseOracle, errors.KindOracleFailure).
			Path(funcName(def)).
			Detail("call failed").
			Cause(err).
			Build()
	}

	results := def.ResultTypes()
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return decodeValue(results[0], out[0]), nil
	}
	vals := make([]polyglot.Value, len(results))
	for i, t := range results {
		vals[i] = decodeValue(t, out[i])
	}
	return vals, nil
}

func slice(mem api.Memory, args []polyglot.Value) (polyglot.Value, error) {
	if len(args) != 2 {
		return nil, errors.InvalidInput(errors.PhaseOracle, "memory expects (offset, length)")
	}
	off, err1 := toInt64(args[0])
	n, err2 := toInt64(args[1])
	if err1 != nil || err2 != nil || off < 0 || n < 0 {
		return nil, errors.InvalidInput(errors.PhaseOracle, "offset and length must be non-negative integers")
	}
	size := int64(mem.Size())
	if off > size || n > size-off {
		return nil, errors.New(errors.PhaseOracle, errors.KindOutOfBounds).
			Path("memory").
			Detail("range [%d, +%d) exceeds memory size %d", off, n, size).
			Build()
	}
	return View{Memory: mem, Offset: uint32(off), Length: uint32(n)}, nil
}

func (o *Oracle) HasMetaObject(v polyglot.Value) bool {
	switch v.(type) {
	case *Instance, api.Module, api.Function, api.Memory, api.Global:
		return true
	}
	return false
}

func (o *Oracle) MetaObject(v polyglot.Value) (polyglot.Value, error) {
	switch x := v.(type) {
	case *Instance:
		return Type{Name: x.Module.Name()}, nil
	case api.Module:
		return Type{Name: x.Name()}, nil
	case *Func:
		return Type{Name: x.QualifiedName()}, nil
	case api.Function:
		def := x.Definition()
		if mod := def.ModuleName(); mod != "" {
			return Type{Name: mod + "." + funcName(def)}, nil
		}
		return Type{Name: funcName(def)}, nil
	case api.Memory:
		return Type{Name: "memory"}, nil
	case api.Global:
		return Type{Name: "global " + api.ValueTypeName(x.Type())}, nil
	}
	return nil, errors.NotFound(errors.PhaseOracle, "meta object", fmt.Sprintf("%T", v))
}

func (o *Oracle) MetaQualifiedName(meta polyglot.Value) (string, error) {
	return o.ClassName(meta)
}

func (o *Oracle) IsClass(v polyglot.Value) bool {
	switch v.(type) {
	case Type, wazero.CompiledModule:
		return true
	}
	return false
}

func (o *Oracle) ClassName(v polyglot.Value) (string, error) {
	switch x := v.(type) {
	case Type:
		return x.Name, nil
	case wazero.CompiledModule:
		if name := x.Name(); name != "" {
			return name, nil
		}
		return "module", nil
	}
	return "", errors.TypeMismatch(errors.PhaseOracle, nil, "class", v)
}

// IsHostMap is false: wasm has no host-side maps.
func (o *Oracle) IsHostMap(polyglot.Value) bool { return false }

func (o *Oracle) HostMapEntries(v polyglot.Value) ([]polyglot.Entry, error) {
	return nil, errors.Unsupported(errors.PhaseOracle, "host maps")
}

func (o *Oracle) HasIterator(v polyglot.Value) bool {
	_, ok := v.(View)
	return ok
}

func (o *Oracle) Iterator(v polyglot.Value) (polyglot.Cursor, error) {
	if !o.HasIterator(v) {
		return nil, errors.NotIterable(v)
	}
	return polyglot.ArrayCursor(o, v)
}

func (o *Oracle) IdentityHash(v polyglot.Value) uint64 {
	return uint64(o.ids.Of(v))
}

func (o *Oracle) Language(v polyglot.Value) (string, bool) {
	switch v.(type) {
	case *Instance, View, Type, api.Module, api.Function, api.Memory, api.Global, wazero.CompiledModule:
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
	case bool, int, int32, int64, uint8, uint32, uint64, float32, float64:
		return fmt.Sprint(x), true
	case api.Global:
		return fmt.Sprint(o.Unbox(x)), true
	case api.Function:
		return signature(x.Definition()), true
	case Type:
		return x.Name, true
	}
	return "", false
}

func (o *Oracle) IsNull(v polyglot.Value) bool { return v == nil }

func (o *Oracle) IsBoolean(v polyglot.Value) bool {
	_, ok := v.(bool)
	return ok
}

func (o *Oracle) IsNumber(v polyglot.Value) bool {
	switch x := v.(type) {
	case int, int32, int64, uint8, uint32, uint64, float32, float64:
		return true
	case api.Global:
		switch x.Type() {
		case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
			return true
		}
	}
	return false
}

// moduleExports lists exported function and memory names, sorted.
// Globals cannot be enumerated from a bare api.Module; use Instance.
func moduleExports(m api.Module) []string {
	seen := make(map[string]struct{})
	for name := range m.ExportedFunctionDefinitions() {
		seen[name] = struct{}{}
	}
	for name := range m.ExportedMemoryDefinitions() {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readExport resolves an export of a bare module. Functions are cached
// per module and name so each export keeps one identity.
func (o *Oracle) readExport(m api.Module, name string) polyglot.Value {
	key := funcKey{module: m, name: name}
	if fn, ok := o.funcs.Load(key); ok {
		return fn.(*Func)
	}
	if fn := m.ExportedFunction(name); fn != nil {
		actual, _ := o.funcs.LoadOrStore(key, newFunc(fn, m.Name(), name))
		return actual.(*Func)
	}
	if mem := m.ExportedMemory(name); mem != nil {
		return mem
	}
	if g := m.ExportedGlobal(name); g != nil {
		return g
	}
	return nil
}

func signature(def api.FunctionDefinition) string {
	var sb strings.Builder
	sb.WriteString("func ")
	sb.WriteString(funcName(def))
	sb.WriteByte('(')
	for i, t := range def.ParamTypes() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(api.ValueTypeName(t))
	}
	sb.WriteByte(')')
	results := def.ResultTypes()
	for i, t := range results {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(api.ValueTypeName(t))
	}
	return sb.String()
}

// funcName prefers the export name over the name section entry.
func funcName(def api.FunctionDefinition) string {
	if names := def.ExportNames(); len(names) > 0 {
		return names[0]
	}
	if name := def.Name(); name != "" {
		return name
	}
	return def.DebugName()
}
