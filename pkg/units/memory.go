// Package units converts human readable resource sizes into raw values.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	KiB int64 = 1024
	MiB       = 1024 * KiB
	GiB       = 1024 * MiB
)

var suffixes = []struct {
	suffix     string
	multiplier int64
}{
	{"KB", KiB},
	{"MB", MiB},
	{"GB", GiB},
}

// ParseMemorySize converts strings such as "128MB", "1GB" or "512KB" to a
// byte count. Suffixes are binary multiples and case-insensitive. A bare
// number is taken as bytes.
func ParseMemorySize(s string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("empty memory size")
	}

	multiplier := int64(1)
	for _, sfx := range suffixes {
		if strings.HasSuffix(v, sfx.suffix) {
			multiplier = sfx.multiplier
			v = strings.TrimSpace(strings.TrimSuffix(v, sfx.suffix))
			break
		}
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid memory size %q: must not be negative", s)
	}
	if n > 0 && multiplier > 1 && n > (1<<63-1)/multiplier {
		return 0, fmt.Errorf("invalid memory size %q: overflows int64", s)
	}
	return n * multiplier, nil
}

// FormatBytes renders a byte count using the largest whole binary unit.
func FormatBytes(b int64) string {
	switch {
	case b >= GiB && b%GiB == 0:
		return fmt.Sprintf("%dGB", b/GiB)
	case b >= MiB && b%MiB == 0:
		return fmt.Sprintf("%dMB", b/MiB)
	case b >= KiB && b%KiB == 0:
		return fmt.Sprintf("%dKB", b/KiB)
	default:
		return strconv.FormatInt(b, 10)
	}
}
