// Package polyglot exposes values owned by a foreign runtime to Go code.
//
// A foreign value is an opaque handle. Everything the bridge learns about it
// comes from an Oracle: whether it has array elements, members, a meta
// object, an iterator, and so on. Oracles exist for core WebAssembly modules
// (wazero), WIT component values and protobuf messages.
//
// # Architecture Overview
//
//	polyglot/            Value, Oracle, Cursor and shared cursor helpers
//	├── traits/          Trait class registry and proxies
//	├── inspect/         One-line descriptions of foreign values
//	├── iterator/        Lookahead iterator over foreign enumerations
//	├── bridge/          Classifies values and ties the above together
//	├── identity/        Stable identity tags for values without one
//	├── errors/          Structured error types
//	├── oracle/wasm/     Oracle over wazero modules, functions, memories
//	├── oracle/wit/      Oracle over WIT typed values
//	├── oracle/proto/    Oracle over protobuf messages
//	└── cmd/inspect/     CLI to browse the exports of a wasm module
//
// # Quick Start
//
//	inst, _ := wasmoracle.Load(ctx, rt, wasmBytes, "demo")
//	b := bridge.New(wasmoracle.NewWithDefaults(), bridge.DefaultOptions())
//
//	s, _ := b.Describe(inst)
//	// #<ForeignObject[wasm] demo:0x1 memory={...}, add=func add(i32, i32) i32>
//
//	p, _ := b.Wrap(inst.Function("add"))
//	sum, _ := p.Call("call", 1, 2) // int32(3)
//
// # Trait Classes
//
// Each distinct combination of capabilities maps to one composite class,
// built once and cached. The class of an array that can also be iterated is
// ForeignArrayIterable; its methods are the union of the Array and Iterable
// trait methods, with the first-listed trait winning conflicts.
//
// # Thread Safety
//
// The registry, identity tables and bridges are safe for concurrent use.
// Iterators are not and belong to one goroutine. Oracle implementations
// document their own guarantees.
package polyglot
