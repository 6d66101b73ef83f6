package devfs

import (
	"fmt"
	"strconv"
	"strings"
)

// Number identifies a device by major and minor number.
type Number struct {
	Major uint32
	Minor uint32
}

// String formats the number as "major:minor", the form used under /sys/class.
func (n Number) String() string {
	return fmt.Sprintf("%d:%d", n.Major, n.Minor)
}

// ParseNumber parses a "major:minor" string. Surrounding whitespace is ignored.
func ParseNumber(s string) (Number, error) {
	majorStr, minorStr, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Number{}, fmt.Errorf("devfs: parse number %q: missing ':'", s)
	}
	major, err := strconv.ParseUint(majorStr, 10, 32)
	if err != nil {
		return Number{}, fmt.Errorf("devfs: parse major %q: %w", majorStr, err)
	}
	minor, err := strconv.ParseUint(minorStr, 10, 32)
	if err != nil {
		return Number{}, fmt.Errorf("devfs: parse minor %q: %w", minorStr, err)
	}
	return Number{Major: uint32(major), Minor: uint32(minor)}, nil
}
