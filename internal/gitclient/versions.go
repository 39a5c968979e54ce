package gitclient

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// VersionType distinguishes production releases from development
// pre-releases.
type VersionType int

const (
	// Devel is a development pre-release
	Devel VersionType = iota
	// Prod is a production release
	Prod
)

// String returns the tag suffix for the version type
func (t VersionType) String() string {
	if t == Prod {
		return "Prod"
	}
	return "Devel"
}

// Version is one installable release derived from a repository tag of
// the form vMAJOR.MINOR.PATCH-(Prod|Devel).
type Version struct {
	Major int
	Minor int
	Patch int
	Type  VersionType
	// Tag is the full tag name the version was parsed from
	Tag string
}

// String returns the tag name
func (v Version) String() string {
	return v.Tag
}

var versionTagPattern = regexp.MustCompile(`^v(\d+)\.(\d+)\.(\d+)-(Prod|Devel)$`)

// ParseVersionTag parses a tag name into a Version. The second return
// is false for tags that do not follow the release convention.
func ParseVersionTag(tag string) (Version, bool) {
	m := versionTagPattern.FindStringSubmatch(tag)
	if m == nil {
		return Version{}, false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	vtype := Devel
	if m[4] == "Prod" {
		vtype = Prod
	}
	return Version{Major: major, Minor: minor, Patch: patch, Type: vtype, Tag: tag}, true
}

// SortVersions orders versions descending by (major, minor, patch).
func SortVersions(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		a, b := versions[i], versions[j]
		if a.Major != b.Major {
			return a.Major > b.Major
		}
		if a.Minor != b.Minor {
			return a.Minor > b.Minor
		}
		return a.Patch > b.Patch
	})
}

// ListVersions enumerates the repository's release tags as a
// descending-sorted version table. Tags not matching the release
// convention are skipped.
func (c *Client) ListVersions(repo *git.Repository) ([]Version, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("could not list tags: %w", err)
	}

	var versions []Version
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if v, ok := ParseVersionTag(ref.Name().Short()); ok {
			versions = append(versions, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not enumerate tags: %w", err)
	}

	SortVersions(versions)
	return versions, nil
}

// LatestProd returns the most recent production version in a
// descending-sorted table.
func LatestProd(versions []Version) (Version, bool) {
	return latestOfType(versions, Prod)
}

// LatestDevel returns the most recent development version in a
// descending-sorted table.
func LatestDevel(versions []Version) (Version, bool) {
	return latestOfType(versions, Devel)
}

func latestOfType(versions []Version, t VersionType) (Version, bool) {
	for _, v := range versions {
		if v.Type == t {
			return v, true
		}
	}
	return Version{}, false
}
