// Package bytesize converts between human-friendly sizes ("10MB", "1.5GB")
// and byte counts. Units are 1024-based.
package bytesize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	B  int64 = 1
	KB       = B << 10
	MB       = KB << 10
	GB       = MB << 10
	TB       = GB << 10
)

var (
	sizePattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?B)$`)

	units = map[string]int64{"B": B, "KB": KB, "MB": MB, "GB": GB, "TB": TB}

	// formatOrder lists units from largest to smallest for Format.
	formatOrder = []struct {
		name string
		size int64
	}{{"TB", TB}, {"GB", GB}, {"MB", MB}, {"KB", KB}}
)

// Parse turns a size such as "512MB" or "1.5 gb" into bytes. A unit is
// required; a bare number is rejected so "10" is never read as 10 bytes.
func Parse(s string) (int64, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	if norm == "" {
		return 0, fmt.Errorf("empty size string")
	}

	m := sizePattern.FindStringSubmatch(norm)
	if m == nil {
		return 0, fmt.Errorf("invalid size %q: want a non-negative number followed by B, KB, MB, GB or TB", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q in %q: %w", m[1], s, err)
	}

	result := value * float64(units[m[2]])
	if result >= math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", s)
	}
	return int64(result), nil
}

// Format renders n bytes with the largest unit that keeps the value at or
// above one, using at most one decimal: 1536 becomes "1.5KB".
func Format(n int64) string {
	for _, u := range formatOrder {
		if n >= u.size {
			v := float64(n) / float64(u.size)
			return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64) + u.name
		}
	}
	return strconv.FormatInt(n, 10) + "B"
}

// Megabytes returns n expressed in whole megabytes, rounded up, with a
// minimum of one.
func Megabytes(n int64) int {
	mb := (n + MB - 1) / MB
	if mb < 1 {
		return 1
	}
	return int(mb)
}
