// Package keys maps (namespace, path) pairs onto the flat physical keys of a
// db.KVDB and back.
//
// A physical key is namespace + Separator + path. With Separator = 0x00 every
// namespace occupies one contiguous range of the sorted key space, and inside a
// namespace every strict descendant of a path p shares the prefix p + ".".
// The traversal algorithms in package tree rely on both properties.
//
// Namespaces and paths that contain 0x00 are rejected by Validate.
package keys
