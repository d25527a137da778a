// Package identity assigns stable identity tags to foreign objects.
//
// Go values carry no identity hash, so oracles that expose foreign objects
// keep a Table mapping each object to a monotonically increasing Tag:
//
//	table := identity.NewTable()
//	tag := table.Of(module)   // same tag on every call for the same module
//	obj, ok := table.Get(tag)
//	table.Forget(module)
//
// Pointers, maps, slices, funcs and channels are identified by address.
// Comparable values are identified by value. Tag 0 is reserved.
//
// # Thread Safety
//
// Table is safe for concurrent use.
package identity
