package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

// FormatBytes renders b with binary units, e.g. "20MiB".
func FormatBytes(b int64) string {
	return strings.ReplaceAll(units.BytesSize(float64(b)), " ", "")
}

// ParseSize parses a partition size. A bare number is a count of megabytes
// (1MB = 1024*1024 bytes); anything else is a size string such as "20MiB",
// "512k" or "1g", always interpreted with binary units.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid size %q: negative", s)
		}
		if n > math.MaxInt64/units.MiB {
			return 0, fmt.Errorf("invalid size %q: too large", s)
		}
		return n * units.MiB, nil
	}

	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: negative", s)
	}
	return n, nil
}
