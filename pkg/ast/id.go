package ast

import (
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// NodeID derives the stable id for a (canonical path, kind, name,
// start line) tuple. The same input always hashes to the same id
// regardless of discovery order, which is what lets two builds of the
// same byte-identical tree agree on ids.
func NodeID(path string, kind NodeKind, name string, startLine int) string {
	canonical := filepath.ToSlash(path)

	h := xxhash.New()
	_, _ = h.WriteString(canonical)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(string(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(name)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(strconv.Itoa(startLine))

	return strconv.FormatUint(h.Sum64(), 16)
}
