package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrUnparseableVersion is returned when a tag carries no dotted numeric run
var ErrUnparseableVersion = errors.New("no version found in tag")

// Wildcard is the placeholder allowed as the last version component
const Wildcard = "*"

// versionPattern matches 2 or 3 dotted components anywhere in a tag. The last
// component may be a wildcard.
var versionPattern = regexp.MustCompile(`\d+\.(?:\d+\.)?(?:\*|\d+)`)

// Version is a dotted numeric version extracted from a release tag
type Version struct {
	raw      string
	segments []string
}

// Parse extracts the first dotted numeric run from a tag such as "v1.2.3"
// or "release-2.0". Leading zeros are kept as-is.
func Parse(tag string) (*Version, error) {
	match := versionPattern.FindString(tag)
	if match == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnparseableVersion, tag)
	}

	return &Version{
		raw:      match,
		segments: strings.Split(match, "."),
	}, nil
}

// MustParse is like Parse but panics on error
func MustParse(tag string) *Version {
	v, err := Parse(tag)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the matched text unchanged
func (v *Version) String() string {
	if v == nil {
		return ""
	}
	return v.raw
}

// Segments returns the dotted components
func (v *Version) Segments() []string {
	out := make([]string, len(v.segments))
	copy(out, v.segments)
	return out
}

// IsWildcard reports whether the last component is "*"
func (v *Version) IsWildcard() bool {
	return v.segments[len(v.segments)-1] == Wildcard
}

// Semver converts a fully numeric version for comparison purposes
func (v *Version) Semver() (*semver.Version, error) {
	if v.IsWildcard() {
		return nil, fmt.Errorf("wildcard version %s cannot be compared", v.raw)
	}
	return semver.NewVersion(v.raw)
}

// MarshalText implements encoding.TextMarshaler
func (v *Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
