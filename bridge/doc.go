// Package bridge ties an oracle to the trait registry, inspector and
// iterator adapter.
//
// A Bridge derives the ordered trait list of a foreign value from its
// capabilities (Map, Array, Executable, Iterable, MetaObject, Pointer,
// String, then Number/Boolean/Null when the oracle can tell), resolves the
// composite class, and uses that class name as the label in descriptions:
//
//	b := bridge.New(oracle, bridge.DefaultOptions())
//	p, _ := b.Wrap(value)        // *traits.Proxy
//	p.Call("size")
//	s, _ := b.Describe(value)    // "#<ForeignArrayIterable[wasm]:0x3 [1, 2]>"
//	it, _ := b.Iterator(value)
package bridge
