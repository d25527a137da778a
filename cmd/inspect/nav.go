package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/bridge"
	"github.com/wippyai/polyglot/internal/wasmbuild"
)

// child is one step down from a value: an element, an entry or a member.
type child struct {
	label string
	value polyglot.Value
}

// children lists what v contains, in the order Describe prints it.
func children(b *bridge.Bridge, v polyglot.Value) ([]child, error) {
	o := b.Oracle()
	v = o.Unbox(v)

	switch {
	case o.IsHostMap(v):
		entries, err := o.HostMapEntries(v)
		if err != nil {
			return nil, err
		}
		out := make([]child, 0, len(entries))
		for _, e := range entries {
			k, err := b.Shallow(e.Key)
			if err != nil {
				return nil, err
			}
			out = append(out, child{label: k, value: e.Value})
		}
		return out, nil

	case o.HasArrayElements(v):
		n, err := o.ArraySize(v)
		if err != nil {
			return nil, err
		}
		out := make([]child, 0, n)
		for i := 0; i < n; i++ {
			e, err := o.ArrayElement(v, i)
			if err != nil {
				return nil, err
			}
			out = append(out, child{label: "[" + strconv.Itoa(i) + "]", value: e})
		}
		return out, nil

	case o.HasMembers(v):
		names, err := o.Members(v)
		if err != nil {
			return nil, err
		}
		out := make([]child, 0, len(names))
		for _, name := range names {
			if !o.IsMemberReadable(v, name) {
				continue
			}
			mv, err := o.ReadMember(v, name)
			if err != nil {
				return nil, err
			}
			out = append(out, child{label: name, value: mv})
		}
		return out, nil
	}
	return nil, nil
}

// resolve walks a dotted path from root. Numeric segments index arrays,
// anything else reads a member.
func resolve(b *bridge.Bridge, root polyglot.Value, path string) (polyglot.Value, error) {
	o := b.Oracle()
	v := root
	if path == "" {
		return v, nil
	}
	for _, seg := range strings.Split(path, ".") {
		if idx, err := strconv.Atoi(seg); err == nil && o.HasArrayElements(v) {
			e, err := o.ArrayElement(v, idx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", seg, err)
			}
			v = e
			continue
		}
		mv, err := o.ReadMember(v, seg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", seg, err)
		}
		v = mv
	}
	return v, nil
}

// parseArgs splits a comma-separated argument list. Each argument is
// an integer, a float, or else kept as a string.
func parseArgs(s string) []polyglot.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	args := make([]polyglot.Value, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if n, err := strconv.ParseInt(p, 0, 64); err == nil {
			args[i] = n
		} else if f, err := strconv.ParseFloat(p, 64); err == nil {
			args[i] = f
		} else {
			args[i] = p
		}
	}
	return args
}

// demoModule is inspected with -demo when no binary is at hand.
func demoModule() []byte {
	i32, i64, f64 := api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF64
	return wasmbuild.New().
		Memory("memory", 1).
		Data(0, []byte("hello, polyglot")).
		Func("add", []api.ValueType{i32, i32}, []api.ValueType{i32},
			wasmbuild.Concat(wasmbuild.LocalGet(0), wasmbuild.LocalGet(1), []byte{wasmbuild.OpI32Add})...).
		Func("mul", []api.ValueType{i32, i32}, []api.ValueType{i32},
			wasmbuild.Concat(wasmbuild.LocalGet(0), wasmbuild.LocalGet(1), []byte{wasmbuild.OpI32Mul})...).
		Func("sum64", []api.ValueType{i64, i64}, []api.ValueType{i64},
			wasmbuild.Concat(wasmbuild.LocalGet(0), wasmbuild.LocalGet(1), []byte{wasmbuild.OpI64Add})...).
		Func("fadd", []api.ValueType{f64, f64}, []api.ValueType{f64},
			wasmbuild.Concat(wasmbuild.LocalGet(0), wasmbuild.LocalGet(1), []byte{wasmbuild.OpF64Add})...).
		Global("version", i32, false, 3).
		GlobalF64("ratio", true, 0.25).
		Build()
}
