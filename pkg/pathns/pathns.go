// Package pathns derives a controller namespace from a source path laid
// out as <domain>/<kind>/<file>, e.g. "app/blog/controllers/post".
package pathns

import (
	"os"
	"strings"
)

// Namespace is the file and domain segment of a path.
type Namespace struct {
	FileName   string
	DomainName string
}

// FromPath returns the last segment of path as FileName and the segment
// two before it as DomainName. Missing segments are empty. An empty sep
// uses the OS path separator.
func FromPath(path, sep string) Namespace {
	if sep == "" {
		sep = string(os.PathSeparator)
	}

	parts := strings.Split(path, sep)
	var ns Namespace
	if n := len(parts); n > 0 {
		ns.FileName = parts[n-1]
	}
	if n := len(parts); n > 2 {
		ns.DomainName = parts[n-3]
	}
	return ns
}
