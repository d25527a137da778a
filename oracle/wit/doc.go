// Package witoracle implements polyglot.Oracle over Component Model values.
//
// A Value pairs a wit.Type with data in the form the canonical ABI lifts it
// to: records as map[string]any, lists and tuples as slices, enums as case
// indexes, flags as bit sets, results and variants as single-key maps,
// resource handles as uint32.
//
//	list, tuple         array elements, iterable
//	record              members in field order
//	result, variant     one member named after the active case
//	own, borrow         pointer whose address is the handle
//	option              unboxes to nil or its payload
//	enum, flags         formatted by case and flag names
//	*Func               executable
//	*wit.TypeDef        class object; named definitions are the meta object
//	                    of their values, qualified as interface.name
package witoracle
