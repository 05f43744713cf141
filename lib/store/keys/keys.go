package keys

import (
	"fmt"
	"strings"
)

const (
	// Separator joins namespace and path in a physical key. It sorts below
	// every printable byte, so a namespace's keys form one contiguous range.
	Separator = "\x00"

	// PathDelimiter splits a path into its segments.
	PathDelimiter = "."
)

// Encode returns the physical key of (namespace, path).
func Encode(namespace, path string) string {
	return namespace + Separator + path
}

// Decode strips the namespace prefix from a physical key.
func Decode(physicalKey, namespace string) (string, error) {
	prefix := NamespacePrefix(namespace)
	if !strings.HasPrefix(physicalKey, prefix) {
		return "", fmt.Errorf("key %q does not belong to namespace %q", physicalKey, namespace)
	}
	return physicalKey[len(prefix):], nil
}

// NamespacePrefix is the common prefix of every physical key in namespace.
func NamespacePrefix(namespace string) string {
	return namespace + Separator
}

// SubtreePrefix is the common prefix of every strict descendant of path.
// The root ("") has the whole namespace as its subtree.
func SubtreePrefix(namespace, path string) string {
	if path == "" {
		return NamespacePrefix(namespace)
	}
	return namespace + Separator + path + PathDelimiter
}

// Validate rejects namespaces and paths containing the separator byte, which
// would make physical keys of different namespaces collide.
func Validate(namespace, path string) error {
	if strings.Contains(namespace, Separator) {
		return fmt.Errorf("namespace %q contains the reserved byte 0x00", namespace)
	}
	if strings.Contains(path, Separator) {
		return fmt.Errorf("path %q contains the reserved byte 0x00", path)
	}
	return nil
}

// Segments splits path at the delimiter. The root has no segments.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathDelimiter)
}

// Depth is the number of delimiters in path, -1 for the root.
func Depth(path string) int {
	return len(Segments(path)) - 1
}

// Truncate returns the first n segments of path joined again.
// Paths with n or fewer segments are returned unchanged.
func Truncate(path string, n int) string {
	if n <= 0 {
		return ""
	}
	idx := 0
	for i := 0; i < n; i++ {
		next := strings.Index(path[idx:], PathDelimiter)
		if next < 0 {
			return path
		}
		idx += next + 1
	}
	return path[:idx-1]
}
