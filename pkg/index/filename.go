package index

import (
	"fmt"
	"strconv"
	"strings"
)

// FilenameSafe encodes x so it can be used as an index artifact's name:
// any byte outside [A-Za-z0-9_.-] becomes %HH (two uppercase hex digits),
// and the % byte itself is escaped. This is reversible:
// FilenameUnsafe(FilenameSafe(x)) == x for every string x.
func FilenameSafe(x string) string {
	var b strings.Builder
	b.Grow(len(x))
	for i := 0; i < len(x); i++ {
		c := x[i]
		if isFilenameSafeByte(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// FilenameUnsafe is the exact inverse of FilenameSafe.
func FilenameUnsafe(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(name) {
			return "", fmt.Errorf("index: truncated %%HH escape at offset %d in %q", i, name)
		}
		v, err := strconv.ParseUint(name[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("index: invalid %%HH escape at offset %d in %q: %w", i, name, err)
		}
		b.WriteByte(byte(v))
		i += 2
	}
	return b.String(), nil
}

func isFilenameSafeByte(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '_' || c == '.' || c == '-':
		return true
	default:
		return false
	}
}
