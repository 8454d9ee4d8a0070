package u

import (
	"fmt"
	"os"
	"strings"
)

// ExpandTildeInPath replaces leading ~ with user's home directory.
// s is returned unchanged if home directory is not known.
func ExpandTildeInPath(s string) string {
	if s != "~" && !strings.HasPrefix(s, "~/") {
		return s
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return s
	}
	return dir + s[1:]
}

// FormatSize formats a number in a human-readable form e.g. 1.24 kB
func FormatSize(n int64) string {
	sizes := []int64{1024 * 1024 * 1024, 1024 * 1024, 1024}
	suffixes := []string{"GB", "MB", "kB"}
	for i, size := range sizes {
		if n >= size {
			s := fmt.Sprintf("%.2f", float64(n)/float64(size))
			return strings.TrimSuffix(s, ".00") + " " + suffixes[i]
		}
	}
	return fmt.Sprintf("%d bytes", n)
}
