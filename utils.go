package zipstream

import (
	"strings"
	"unicode/utf8"
)

// IsValidArchiveName reports whether name can be used as an archive name.
// An archive name is a single directory entry directly under the archive root:
//   - is not empty, "." or ".."
//   - does not contain "/" or "\"
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//
// Anything else is looked up as is; the directory store keeps lookups inside
// the root.
func IsValidArchiveName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}
