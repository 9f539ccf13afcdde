package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// maxComponents is the number of dotted components that take part in a
// comparison. Anything past it is a pre-release or build qualifier.
const maxComponents = 3

var ErrInvalidVersion = errors.New("invalid version string")

// Key converts a dotted version string into an integer ordering key.
//
// When the string has more than three components the last one is dropped,
// then the remaining components are concatenated as digit strings and parsed
// as a single integer: "0.1.2.dev1" becomes 12. Keys only order correctly
// between versions whose components have the same digit width; "1.10.0"
// sorts after "2.0.0". Use CheckSemver when that matters.
func Key(v string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(v), ".")
	if len(parts) > maxComponents {
		parts = parts[:len(parts)-1]
	}
	digits := strings.Join(parts, "")
	if digits == "" {
		return 0, fmt.Errorf("%w: %q has no numeric components", ErrInvalidVersion, v)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q has a non-numeric component", ErrInvalidVersion, v)
		}
	}
	key, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, v, err)
	}
	return key, nil
}

// Compare returns -1, 0 or 1 depending on how the keys of a and b order.
func Compare(a, b string) (int, error) {
	ka, err := Key(a)
	if err != nil {
		return 0, err
	}
	kb, err := Key(b)
	if err != nil {
		return 0, err
	}
	switch {
	case ka < kb:
		return -1, nil
	case ka > kb:
		return 1, nil
	default:
		return 0, nil
	}
}

// InRange reports whether v lies within the inclusive [minimum, maximum]
// range using integer keys.
func InRange(v, minimum, maximum string) (bool, error) {
	key, err := Key(v)
	if err != nil {
		return false, err
	}
	lo, err := Key(minimum)
	if err != nil {
		return false, err
	}
	hi, err := Key(maximum)
	if err != nil {
		return false, err
	}
	return lo <= key && key <= hi, nil
}

// Semver parses a dotted version into a semantic version. A fourth
// component becomes the pre-release, so "0.0.8.dev0" reads as "0.0.8-dev0".
func Semver(v string) (*semver.Version, error) {
	v = strings.TrimSpace(v)
	parts := strings.Split(v, ".")
	if len(parts) > maxComponents {
		v = strings.Join(parts[:maxComponents], ".") + "-" + strings.Join(parts[maxComponents:], ".")
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, v, err)
	}
	return parsed, nil
}

// CheckSemver reports whether v lies within the inclusive [minimum, maximum]
// range under semantic-version ordering. Unlike InRange it compares
// components numerically, and a qualified build sorts before its release.
func CheckSemver(v, minimum, maximum string) (bool, error) {
	current, err := Semver(v)
	if err != nil {
		return false, err
	}
	lo, err := Semver(minimum)
	if err != nil {
		return false, err
	}
	hi, err := Semver(maximum)
	if err != nil {
		return false, err
	}
	return !current.LessThan(lo) && !current.GreaterThan(hi), nil
}
