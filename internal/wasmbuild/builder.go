// Package wasmbuild assembles small core wasm modules in memory.
package wasmbuild

import (
	"math"

	"github.com/tetratelabs/wazero/api"
)

// Builder collects functions, one memory and globals, and emits a module
// that exports all of them in the order they were added.
type Builder struct {
	exports []export
	funcs   []fn
	globals []global
	data    []segment
	pages   uint32
	hasMem  bool
}

type fn struct {
	params  []api.ValueType
	results []api.ValueType
	body    []byte
}

type global struct {
	valType api.ValueType
	mutable bool
	init    uint64
}

type segment struct {
	offset uint32
	bytes  []byte
}

type export struct {
	name  string
	kind  byte
	index uint32
}

// New creates an empty builder.
func New() *Builder {
	return &Builder{}
}

// Func adds an exported function. body is the instruction sequence without
// the trailing end opcode; locals are not supported.
func (b *Builder) Func(name string, params, results []api.ValueType, body ...byte) *Builder {
	b.exports = append(b.exports, export{name: name, kind: 0x00, index: uint32(len(b.funcs))})
	b.funcs = append(b.funcs, fn{params: params, results: results, body: body})
	return b
}

// Memory adds the exported memory with a minimum size in pages.
func (b *Builder) Memory(name string, pages uint32) *Builder {
	b.exports = append(b.exports, export{name: name, kind: 0x02})
	b.pages = pages
	b.hasMem = true
	return b
}

// Data places bytes into memory at offset on instantiation.
func (b *Builder) Data(offset uint32, bytes []byte) *Builder {
	b.data = append(b.data, segment{offset: offset, bytes: bytes})
	return b
}

// Global adds an exported global. init is interpreted per valType:
// integers as two's complement, floats via their IEEE bits.
func (b *Builder) Global(name string, valType api.ValueType, mutable bool, init uint64) *Builder {
	b.exports = append(b.exports, export{name: name, kind: 0x03, index: uint32(len(b.globals))})
	b.globals = append(b.globals, global{valType: valType, mutable: mutable, init: init})
	return b
}

// GlobalF64 adds an exported f64 global.
func (b *Builder) GlobalF64(name string, mutable bool, init float64) *Builder {
	return b.Global(name, api.ValueTypeF64, mutable, math.Float64bits(init))
}

// Build generates the module bytes.
func (b *Builder) Build() []byte {
	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	if len(b.funcs) > 0 {
		wasm = appendSection(wasm, 0x01, b.typeSection())
		wasm = appendSection(wasm, 0x03, b.funcSection())
	}
	if b.hasMem {
		wasm = appendSection(wasm, 0x05, append([]byte{0x01, 0x00}, encodeULEB128(b.pages)...))
	}
	if len(b.globals) > 0 {
		wasm = appendSection(wasm, 0x06, b.globalSection())
	}
	wasm = appendSection(wasm, 0x07, b.exportSection())
	if len(b.funcs) > 0 {
		wasm = appendSection(wasm, 0x0a, b.codeSection())
	}
	if len(b.data) > 0 && b.hasMem {
		wasm = appendSection(wasm, 0x0b, b.dataSection())
	}
	return wasm
}

func appendSection(wasm []byte, id byte, section []byte) []byte {
	wasm = append(wasm, id)
	wasm = append(wasm, encodeULEB128(uint32(len(section)))...)
	return append(wasm, section...)
}

// typeSection declares one signature per function, duplicates included.
func (b *Builder) typeSection() []byte {
	s := encodeULEB128(uint32(len(b.funcs)))
	for _, f := range b.funcs {
		s = append(s, 0x60)
		s = append(s, encodeULEB128(uint32(len(f.params)))...)
		for _, t := range f.params {
			s = append(s, t)
		}
		s = append(s, encodeULEB128(uint32(len(f.results)))...)
		for _, t := range f.results {
			s = append(s, t)
		}
	}
	return s
}

func (b *Builder) funcSection() []byte {
	s := encodeULEB128(uint32(len(b.funcs)))
	for i := range b.funcs {
		s = append(s, encodeULEB128(uint32(i))...)
	}
	return s
}

func (b *Builder) globalSection() []byte {
	s := encodeULEB128(uint32(len(b.globals)))
	for _, g := range b.globals {
		s = append(s, g.valType)
		if g.mutable {
			s = append(s, 0x01)
		} else {
			s = append(s, 0x00)
		}
		switch g.valType {
		case api.ValueTypeI64:
			s = append(s, 0x42)
			s = append(s, encodeSLEB128(int64(g.init))...)
		case api.ValueTypeF32:
			bits := uint32(g.init)
			s = append(s, 0x43, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
		case api.ValueTypeF64:
			s = append(s, 0x44)
			for i := 0; i < 8; i++ {
				s = append(s, byte(g.init>>(8*i)))
			}
		default:
			s = append(s, 0x41)
			s = append(s, encodeSLEB128(int64(int32(g.init)))...)
		}
		s = append(s, 0x0B)
	}
	return s
}

func (b *Builder) exportSection() []byte {
	s := encodeULEB128(uint32(len(b.exports)))
	for _, e := range b.exports {
		s = append(s, encodeULEB128(uint32(len(e.name)))...)
		s = append(s, e.name...)
		s = append(s, e.kind)
		s = append(s, encodeULEB128(e.index)...)
	}
	return s
}

func (b *Builder) codeSection() []byte {
	s := encodeULEB128(uint32(len(b.funcs)))
	for _, f := range b.funcs {
		body := []byte{0x00} // no locals
		body = append(body, f.body...)
		body = append(body, 0x0B)
		s = append(s, encodeULEB128(uint32(len(body)))...)
		s = append(s, body...)
	}
	return s
}

func (b *Builder) dataSection() []byte {
	s := encodeULEB128(uint32(len(b.data)))
	for _, d := range b.data {
		s = append(s, 0x00, 0x41)
		s = append(s, encodeSLEB128(int64(int32(d.offset)))...)
		s = append(s, 0x0B)
		s = append(s, encodeULEB128(uint32(len(d.bytes)))...)
		s = append(s, d.bytes...)
	}
	return s
}

func encodeULEB128(v uint32) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if v == 0 {
			return result
		}
	}
}

func encodeSLEB128(v int64) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(result, b)
		}
		result = append(result, b|0x80)
	}
}

// Instruction helpers for function bodies.

// LocalGet emits local.get idx.
func LocalGet(idx uint32) []byte {
	return append([]byte{0x20}, encodeULEB128(idx)...)
}

// I32Const emits i32.const v.
func I32Const(v int32) []byte {
	return append([]byte{0x41}, encodeSLEB128(int64(v))...)
}

// Numeric opcodes.
const (
	OpI32Add byte = 0x6A
	OpI32Mul byte = 0x6C
	OpI64Add byte = 0x7C
	OpF64Add byte = 0xA0
)

// Concat joins instruction fragments into one body.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
