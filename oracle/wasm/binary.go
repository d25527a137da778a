package wasmoracle

import (
	"bytes"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/polyglot/errors"
)

// ExternKind is the kind byte of an import or export entry.
type ExternKind byte

const (
	ExternFunc   ExternKind = 0x00
	ExternTable  ExternKind = 0x01
	ExternMemory ExternKind = 0x02
	ExternGlobal ExternKind = 0x03
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Export is one entry of a module's export section.
type Export struct {
	Name  string
	Index uint32
	Kind  ExternKind
	// Global only
	ValType api.ValueType
	Mutable bool
}

const (
	sectionImport = 0x02
	sectionGlobal = 0x06
	sectionExport = 0x07
)

var magic = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// reader walks a wasm binary. The first out-of-range read latches err and
// every later read returns zero values.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) fail(detail string) {
	if r.err == nil {
		r.err = errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("%s at offset %d", detail, r.pos).
			Build()
	}
}

func (r *reader) byte() byte {
	if r.err != nil {
		return 0
	}
	if r.pos >= len(r.buf) {
		r.fail("unexpected end of binary")
		return 0
	}
	b := r.buf[r.pos]
	r.pos++
	return b
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, n := decodeULEB128(r.buf[r.pos:])
	if n == 0 {
		r.fail("truncated LEB128")
		return 0
	}
	r.pos += n
	return v
}

func (r *reader) name() string {
	n := int(r.u32())
	if r.err != nil {
		return ""
	}
	if n > len(r.buf)-r.pos {
		r.fail("name overruns section")
		return ""
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s
}

func (r *reader) limits() {
	flag := r.byte()
	r.u32()
	if flag&0x01 != 0 {
		r.u32()
	}
}

// leb skips one LEB128 value of either signedness.
func (r *reader) leb() {
	for r.err == nil && r.byte()&0x80 != 0 {
	}
}

func (r *reader) skip(n int) {
	if r.err != nil {
		return
	}
	if n > len(r.buf)-r.pos {
		r.fail("immediate overruns binary")
		return
	}
	r.pos += n
}

// constExpr skips a constant expression up to and including its end opcode.
func (r *reader) constExpr() {
	for r.err == nil {
		switch op := r.byte(); op {
		case 0x0B: // end
			return
		case 0x41, 0x42, 0x23, 0xD2: // i32.const, i64.const, global.get, ref.func
			r.leb()
		case 0x43: // f32.const
			r.skip(4)
		case 0x44: // f64.const
			r.skip(8)
		case 0xD0: // ref.null
			r.byte()
		case 0x6A, 0x6B, 0x6C, 0x7C, 0x7D, 0x7E: // extended const arithmetic
		default:
			if r.err == nil {
				r.fail(fmt.Sprintf("unsupported opcode 0x%02x in constant expression", op))
			}
		}
	}
}

// ScanExports lists the exports of a core wasm binary in declaration order.
// Global exports carry their value type and mutability, which the runtime
// API does not expose.
func ScanExports(bin []byte) ([]Export, error) {
	if len(bin) < len(magic) || !bytes.Equal(bin[:len(magic)], magic) {
		return nil, errors.Load("not a core wasm binary", nil)
	}

	type global struct {
		valType api.ValueType
		mutable bool
	}
	var globals []global
	var exports []Export

	r := &reader{buf: bin, pos: len(magic)}
	for r.pos < len(bin) && r.err == nil {
		id := r.byte()
		size := int(r.u32())
		if r.err != nil {
			break
		}
		end := r.pos + size
		if size < 0 || end > len(bin) {
			r.fail("section overruns binary")
			break
		}

		switch id {
		case sectionImport:
			count := r.u32()
			for i := uint32(0); i < count && r.err == nil; i++ {
				r.name()
				r.name()
				switch ExternKind(r.byte()) {
				case ExternFunc:
					r.u32()
				case ExternTable:
					r.byte()
					r.limits()
				case ExternMemory:
					r.limits()
				case ExternGlobal:
					vt := parseValType(r.byte())
					globals = append(globals, global{valType: vt, mutable: r.byte() == 0x01})
				default:
					r.fail("unknown import kind")
				}
			}
		case sectionGlobal:
			count := r.u32()
			for i := uint32(0); i < count && r.err == nil; i++ {
				vt := parseValType(r.byte())
				globals = append(globals, global{valType: vt, mutable: r.byte() == 0x01})
				r.constExpr()
			}
		case sectionExport:
			count := r.u32()
			for i := uint32(0); i < count && r.err == nil; i++ {
				e := Export{Name: r.name(), Kind: ExternKind(r.byte())}
				e.Index = r.u32()
				if e.Kind == ExternGlobal && int(e.Index) < len(globals) {
					e.ValType = globals[e.Index].valType
					e.Mutable = globals[e.Index].mutable
				}
				exports = append(exports, e)
			}
		}
		if r.err == nil {
			r.pos = end
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return exports, nil
}

// decodeULEB128 returns n == 0 when data ends before the value does.
func decodeULEB128(data []byte) (uint32, int) {
	var result uint32
	var shift uint32
	for i, b := range data {
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
		if shift > 35 {
			return result, i + 1
		}
	}
	return 0, 0
}

// valueTypeFuncref is the funcref encoding; the runtime API only names externref.
const valueTypeFuncref api.ValueType = 0x70

func parseValType(b byte) api.ValueType {
	switch b {
	case 0x7E:
		return api.ValueTypeI64
	case 0x7D:
		return api.ValueTypeF32
	case 0x7C:
		return api.ValueTypeF64
	case 0x70:
		return valueTypeFuncref
	case 0x6F:
		return api.ValueTypeExternref
	default:
		return api.ValueTypeI32
	}
}
