package tree

import (
	"slices"
	"strings"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/lib/store/keys"
)

// --------------------------------------------------------------------------
// Traversal
// --------------------------------------------------------------------------

// NodesAtDepth lists the nodes exactly layers levels below node.
//
// Every descendant path of node with at least len(Segments(node))+layers
// segments contributes its prefix of that many segments; shallower
// descendants are dropped. With layers == 0 all descendants are returned
// unchanged, together with node itself if it is an entry. The result is
// sorted and free of duplicates.
//
// A non-root node without descendants that is not an entry is RetCNotFound.
// The root never is.
func NodesAtDepth(d db.KVDB, namespace, node string, layers int) ([]string, error) {
	if layers < 0 {
		return nil, store.Errorf(store.RetCInvalidArgument, "layers must not be negative, got %d", layers)
	}
	if err := keys.Validate(namespace, node); err != nil {
		return nil, store.NewError(store.RetCInvalidArgument, err.Error())
	}

	descendants, _, err := scanPaths(d, namespace, keys.SubtreePrefix(namespace, node))
	if err != nil {
		return nil, err
	}

	isEntry, err := exists(d, namespace, node)
	if err != nil {
		return nil, err
	}

	if node != "" && !isEntry && len(descendants) == 0 {
		return nil, store.Errorf(store.RetCNotFound, "node '%s' not found in namespace '%s'", node, namespace)
	}

	if layers == 0 {
		if isEntry {
			descendants = append(descendants, node)
		}
		return sortedUnique(descendants), nil
	}

	// compare relative depths, node depth + layers may overflow
	base := len(keys.Segments(node))
	nodes := make([]string, 0, len(descendants))
	for _, path := range descendants {
		if len(keys.Segments(path))-base < layers {
			continue
		}
		nodes = append(nodes, keys.Truncate(path, base+layers))
	}
	return sortedUnique(nodes), nil
}

// DeleteSubtree deletes node (if it is an entry) and every descendant and
// returns the deleted paths in ascending order.
//
// Engines with db.FeatureAtomicBatch delete everything in one batch. Other
// engines delete key by key; a failure after the first key aborts the loop
// with RetCPartialFailure and leaves the keys deleted so far deleted.
func DeleteSubtree(d db.KVDB, namespace, node string) ([]string, error) {
	if node == "" {
		return nil, store.NewError(store.RetCInvalidArgument, "the root node cannot be deleted, name a node")
	}
	if err := keys.Validate(namespace, node); err != nil {
		return nil, store.NewError(store.RetCInvalidArgument, err.Error())
	}

	paths, physical, err := scanPaths(d, namespace, keys.SubtreePrefix(namespace, node))
	if err != nil {
		return nil, err
	}

	isEntry, err := exists(d, namespace, node)
	if err != nil {
		return nil, err
	}
	if isEntry {
		// node sorts before its descendants
		paths = append([]string{node}, paths...)
		physical = append([]string{keys.Encode(namespace, node)}, physical...)
	}

	if len(physical) == 0 {
		return []string{}, nil
	}

	if d.SupportsFeature(db.FeatureAtomicBatch) {
		if err := d.DeleteBatch(physical); err != nil {
			return nil, store.FromEngine("delete subtree '"+node+"'", err)
		}
		return paths, nil
	}

	for i, key := range physical {
		if err := d.Delete(key); err != nil {
			if i == 0 {
				return nil, store.FromEngine("delete '"+paths[i]+"'", err)
			}
			return nil, store.Errorf(store.RetCPartialFailure,
				"deleted %d of %d keys below '%s', stopped at '%s': %v", i, len(physical), node, paths[i], err)
		}
	}
	return paths, nil
}

// --------------------------------------------------------------------------
// Search
// --------------------------------------------------------------------------

// Search returns every path of namespace containing substring, sorted.
// The match is case-sensitive and unanchored; "" matches all paths.
func Search(d db.KVDB, namespace, substring string) ([]string, error) {
	if err := keys.Validate(namespace, ""); err != nil {
		return nil, store.NewError(store.RetCInvalidArgument, err.Error())
	}

	paths, _, err := scanPaths(d, namespace, keys.NamespacePrefix(namespace))
	if err != nil {
		return nil, err
	}

	matches := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.Contains(path, substring) {
			matches = append(matches, path)
		}
	}
	// physical order is path order within one namespace
	return matches, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// scanPaths collects all keys under prefix, as logical paths and as physical keys.
func scanPaths(d db.KVDB, namespace, prefix string) (paths []string, physical []string, err error) {
	var decodeErr error
	scanErr := d.ScanPrefix(prefix, func(key string, _ []byte) bool {
		path, err := keys.Decode(key, namespace)
		if err != nil {
			decodeErr = err
			return false
		}
		paths = append(paths, path)
		physical = append(physical, key)
		return true
	})
	if scanErr != nil {
		return nil, nil, store.FromEngine("scan namespace '"+namespace+"'", scanErr)
	}
	if decodeErr != nil {
		return nil, nil, store.NewError(store.RetCInternalError, decodeErr.Error())
	}
	return paths, physical, nil
}

// exists reports whether (namespace, path) is an entry. The root never is.
func exists(d db.KVDB, namespace, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	_, ok, err := d.Get(keys.Encode(namespace, path))
	if err != nil {
		return false, store.FromEngine("read '"+path+"'", err)
	}
	return ok, nil
}

func sortedUnique(paths []string) []string {
	if len(paths) == 0 {
		return []string{}
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}
