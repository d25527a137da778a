// Package inspect renders human-readable descriptions of foreign values.
//
// Describe produces one line per value, queried entirely through a
// polyglot.Oracle:
//
//	#<ForeignArray:0x2a [1, 2, 3]>
//	#<ForeignArrayExecutable[wasm]:0x7 [1] proc>
//	#<ForeignPointer 0x7f001000>
//	#<ForeignObject[protobuf] example.User:0x3 name="ada", tags=[...]>
//	#<ForeignMetaObject class example.User>
//
// The head is the class label (from a Labeler, usually the bridge), the
// owning language in brackets, the meta object's qualified name, and either
// the pointer address or the identity tag. Then at most one of array
// elements, host map entries, or readable members, and " proc" when the
// value is executable.
//
// # Recursion
//
// Nested values are never described. Shallow renders them one step deep:
// strings quoted, arrays as [...], maps and objects as {...}, everything
// else in its primitive form. Describe therefore terminates on
// self-referential and deeply nested structures.
//
// A value with no primitive form and no container shape gets a diagnostic
// placeholder such as <wasm:0x1f ...>. Seeing one points at an oracle that
// classifies a value inconsistently.
package inspect
