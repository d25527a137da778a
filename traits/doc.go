// Package traits resolves composite proxy classes for foreign values.
//
// A Trait names one capability (Array, Map, Executable, ...) and carries the
// methods it contributes. A Class combines an ordered list of traits on top
// of the base ForeignObject methods. The Registry builds each combination
// once and caches it under its canonical key, the trait names concatenated
// in the requested order:
//
//	c, err := traits.Resolve("Array", "Executable")
//	c.Name()      // "ForeignArrayExecutable"
//	p := traits.NewProxy(c, oracle, value)
//	n, err := p.Call("size")
//
// # Method Precedence
//
// Traits are applied in reverse of the requested order, so when two traits
// define the same method the first-listed one wins:
//
//	Resolve("Array", "Map")  // size comes from Array
//	Resolve("Map", "Array")  // size comes from Map
//
// # Cache Semantics
//
//   - Resolve() with no traits returns the fixed base class; the cache is untouched.
//   - Unknown trait names fail with errors.KindUnknownTrait; nothing is published.
//   - The cache only grows. Reset exists for test isolation.
//
// # Thread Safety
//
// Registry is safe for concurrent use. Cache reads are lock-free; the first
// build of any key takes a single registry-wide mutex and re-checks the
// cache, so concurrent callers always observe the same *Class.
package traits
