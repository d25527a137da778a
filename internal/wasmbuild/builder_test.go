package wasmbuild

import (
	"bytes"
	"testing"

	"github.com/tetratelabs/wazero/api"
)

func TestEncodeSLEB128(t *testing.T) {
	tests := []struct {
		in   int64
		want []byte
	}{
		{0, []byte{0x00}},
		{42, []byte{0x2a}},
		{-1, []byte{0x7f}},
		{64, []byte{0xc0, 0x00}},
		{-65, []byte{0xbf, 0x7f}},
	}
	for _, tt := range tests {
		if got := encodeSLEB128(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("encodeSLEB128(%d) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	bin := New().
		Func("add", []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32},
			Concat(LocalGet(0), LocalGet(1), []byte{OpI32Add})...).
		Memory("memory", 1).
		Global("answer", api.ValueTypeI32, false, 42).
		Build()

	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
		0x03, 0x02, 0x01, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x06, 0x06, 0x01, 0x7f, 0x00, 0x41, 0x2a, 0x0b,
		0x07, 0x19, 0x03,
		0x03, 'a', 'd', 'd', 0x00, 0x00,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
		0x06, 'a', 'n', 's', 'w', 'e', 'r', 0x03, 0x00,
		0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
	}
	if !bytes.Equal(bin, want) {
		t.Fatalf("Build() =\n%x\nwant\n%x", bin, want)
	}
}

func TestBuild_Empty(t *testing.T) {
	bin := New().Build()
	// header plus an empty export section
	if !bytes.Equal(bin, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x07, 0x01, 0x00}) {
		t.Fatalf("Build() = %x", bin)
	}
}
