// Package version compares the dotted numeric version identifiers used by
// release tags and the application manifest.
package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion is returned when a version has an empty or non-numeric component.
var ErrInvalidVersion = errors.New("invalid version")

// Ordering is the result of Compare.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "LESS"
	case Equal:
		return "EQUAL"
	case Greater:
		return "GREATER"
	}
	return fmt.Sprintf("Ordering(%d)", int(o))
}

// Normalize trims surrounding whitespace and a single leading "v" or "V",
// turning a release tag such as "v2.1.0" into the manifest form "2.1.0".
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') {
		return s[1:]
	}
	return s
}

// Compare orders a and b component by component, numerically.
// Missing trailing components count as zero, so "1.2" equals "1.2.0".
func Compare(a, b string) (Ordering, error) {
	pa, err := split(a)
	if err != nil {
		return Equal, err
	}
	pb, err := split(b)
	if err != nil {
		return Equal, err
	}

	n := max(len(pa), len(pb))
	for i := 0; i < n; i++ {
		ca, cb := "0", "0"
		if i < len(pa) {
			ca = pa[i]
		}
		if i < len(pb) {
			cb = pb[i]
		}
		if o := compareDigits(ca, cb); o != Equal {
			return o, nil
		}
	}
	return Equal, nil
}

// Valid reports whether s parses as a dotted numeric version.
func Valid(s string) bool {
	_, err := split(s)
	return err == nil
}

// IsPrerelease reports whether a release tag carries a semver prerelease
// suffix such as "-beta.1". Tags that are not semver are not prereleases.
func IsPrerelease(tag string) bool {
	v, err := semver.NewVersion(strings.TrimSpace(tag))
	if err != nil {
		return false
	}
	return v.Prerelease() != ""
}

// split validates s and returns its components with leading zeros removed.
func split(s string) ([]string, error) {
	n := Normalize(s)
	if n == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidVersion)
	}

	parts := strings.Split(n, ".")
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q has an empty component", ErrInvalidVersion, s)
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return nil, fmt.Errorf("%w: %q has non-numeric component %q", ErrInvalidVersion, s, p)
			}
		}
		// Keep at least one digit so "000" becomes "0"
		trimmed := strings.TrimLeft(p, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		parts[i] = trimmed
	}
	return parts, nil
}

// compareDigits compares two decimal strings without leading zeros.
// Working on strings avoids overflow for arbitrarily long components.
func compareDigits(a, b string) Ordering {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return Less
		}
		return Greater
	}
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	}
	return Equal
}
