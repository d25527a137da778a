// Package wasmoracle implements polyglot.Oracle over wazero values.
//
// # Value Model
//
//	*Instance               members are the module exports in declaration order
//	api.Module              members are exported functions and memories, sorted
//	api.Function            executable; Go numbers are lowered per parameter type
//	*Func                   a function export bound to its instance name
//	api.Memory              members pages, size, data; executable as (offset, length)
//	View                    pointer to linear memory with byte elements; iterable
//	api.Global              boxed number; Unbox yields int32, int64, float32 or float64
//	wazero.CompiledModule   class object
//	Type                    meta object of the values above; a class object
//
// Load compiles and instantiates a binary and scans its export section, so
// global exports are visible as members. Each function export is resolved
// once, so reading it twice yields the same *Func:
//
//	inst, err := wasmoracle.Load(ctx, rt, wasmBytes, "demo")
//	if err != nil {
//	    return err
//	}
//	defer inst.Close(ctx)
//
//	b := bridge.New(wasmoracle.NewWithDefaults(), bridge.DefaultOptions())
//	s, _ := b.Describe(inst)
//	// #<ForeignObject[wasm] demo:0x1 memory={...}, add=func add(i32, i32) i32, answer=42>
//
// Function calls use the context from Options.
package wasmoracle
