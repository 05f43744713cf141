// Package tree implements the operations that work on whole subtrees:
// NodesAtDepth lists the nodes a number of layers below a node,
// DeleteSubtree removes a node with all its descendants and Search finds
// paths by substring.
//
// All functions take a db.KVDB and rely only on its ordered prefix scan.
// They do not lock; callers (see lstore) serialize access to the engine.
package tree
