package anvil

import (
	"fmt"
	"strconv"
	"strings"
)

// FilenameError reports a region filename that does not match the
// strict r.<i32>.<i32>.mca grammar.
type FilenameError struct {
	Name string
}

func (e *FilenameError) Error() string {
	return fmt.Sprintf("anvil: %q is not a valid region filename", e.Name)
}

// RegionFileName formats the canonical on-disk name for region
// (rx, rz), e.g. r.-1.2.mca.
func RegionFileName(rx, rz int32) string {
	return fmt.Sprintf("r.%d.%d.mca", rx, rz)
}

// ParseRegionFileName parses a region filename of the strict form
// "r.<i32>.<i32>.mca", rejecting anything the grammar does not cover:
// leading zeros other than a bare "0", a leading "+", whitespace, or
// any other deviation a looser int-scanning parser would silently
// accept.
func ParseRegionFileName(name string) (rx, rz int32, err error) {
	rest, ok := strings.CutPrefix(name, "r.")
	if !ok {
		return 0, 0, &FilenameError{Name: name}
	}

	rest, ok = strings.CutSuffix(rest, ".mca")
	if !ok {
		return 0, 0, &FilenameError{Name: name}
	}

	parts := strings.Split(rest, ".")
	if len(parts) != 2 {
		return 0, 0, &FilenameError{Name: name}
	}

	x, ok := parseStrictInt32(parts[0])
	if !ok {
		return 0, 0, &FilenameError{Name: name}
	}
	z, ok := parseStrictInt32(parts[1])
	if !ok {
		return 0, 0, &FilenameError{Name: name}
	}

	return x, z, nil
}

// parseStrictInt32 accepts an optional leading '-' followed by decimal
// digits with no leading zeros (except the literal "0" itself), and no
// leading '+'. strconv.ParseInt alone accepts "+5" and "007", both of
// which the grammar excludes.
func parseStrictInt32(s string) (int32, bool) {
	if s == "" || s == "-0" {
		return 0, false
	}

	digits := s
	if s[0] == '-' {
		digits = s[1:]
	}
	if digits == "" {
		return 0, false
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}

	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}
