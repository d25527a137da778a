// Package protooracle implements polyglot.Oracle over protobuf messages.
//
// Any proto.Message is a foreign object; generated and dynamicpb messages
// are treated alike through protoreflect.
//
//	message              members in field declaration order, meta object is
//	                     its descriptor
//	repeated field       List: array elements, iterable
//	map field            Map: host map, entries sorted by key
//	enum field           Enum: formatted by value name
//	structpb.Struct      host map
//	structpb.ListValue   array elements
//	structpb.Value       unboxes to its kind
//	wrapperspb.*         unbox to their Go scalar
//	descriptor           class object named by its full name
package protooracle
