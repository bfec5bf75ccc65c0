package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MajorTag is the floating major tag, e.g. "1" for 1.2.3.
func (v Version) MajorTag() string {
	return strconv.Itoa(v.Major)
}

// MinorTag is the floating minor tag, e.g. "1.2" for 1.2.3.
func (v Version) MinorTag() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

var strictSemver = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)

// IsSemver reports whether s is a plain MAJOR.MINOR.PATCH string.
// Prefixes ("v1.2.3") and pre-release suffixes ("1.2.3-rc.1") do not match.
func IsSemver(s string) bool {
	return strictSemver.MatchString(s)
}

// Parse parses a version string in the format "X.Y.Z"
func Parse(versionStr string) (Version, error) {
	parts := strings.Split(versionStr, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version format: expected X.Y.Z, got %s", versionStr)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version: %w", err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor version: %w", err)
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return Version{}, fmt.Errorf("invalid patch version: %w", err)
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// ParseStrict is Parse gated by IsSemver, so "+1.2.3" or "01.-2.3"
// style inputs that strconv would accept are rejected.
func ParseStrict(s string) (Version, bool) {
	if !IsSemver(s) {
		return Version{}, false
	}
	v, err := Parse(s)
	if err != nil {
		return Version{}, false
	}
	return v, true
}

// LessThan orders versions numerically by major, minor, then patch.
func (v Version) LessThan(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// GitTag is the release tag name for a version string ("0.1.20" -> "v0.1.20").
// Strings that already carry the prefix are returned unchanged.
func GitTag(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
