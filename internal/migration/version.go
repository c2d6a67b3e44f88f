package migration

import (
	"fmt"
	"strconv"
	"strings"

	"evalgo.org/contentupgrade/internal/domain"
)

// Version is a content schema version. Patch levels never change the schema and are
// not tracked.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// ParseVersion reads "major.minor" or "major.minor.patch".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, domain.NewValidationError("version", fmt.Sprintf("expected major.minor, got %q", s))
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return Version{}, domain.NewValidationError("version", fmt.Sprintf("invalid major version in %q", s))
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 {
		return Version{}, domain.NewValidationError("version", fmt.Sprintf("invalid minor version in %q", s))
	}
	if len(parts) == 3 {
		if patch, err := strconv.Atoi(parts[2]); err != nil || patch < 0 {
			return Version{}, domain.NewValidationError("version", fmt.Sprintf("invalid patch version in %q", s))
		}
	}

	return Version{Major: major, Minor: minor}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less orders versions by major, then minor.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}
