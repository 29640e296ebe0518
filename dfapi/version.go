package dfapi

import (
	"strconv"

	"golang.org/x/mod/semver"
)

// Version strings in records are plain semver without the 'v' prefix.
// The x/mod/semver package wants the prefix, so these helpers add it
// internally and keep it out of the API surface.

// ValidVersion reports whether v is a well-formed semantic version.
func ValidVersion(v VersionName) bool {
	return semver.IsValid("v" + string(v))
}

// CompareVersions returns -1, 0, or +1 ordering two versions.
func CompareVersions(a, b VersionName) int {
	return semver.Compare("v"+string(a), "v"+string(b))
}

// LatestVersion returns the highest of the given versions,
// or "" if the list is empty.
func LatestVersion(versions []VersionName) VersionName {
	var latest VersionName
	for _, v := range versions {
		if latest == "" || CompareVersions(v, latest) > 0 {
			latest = v
		}
	}
	return latest
}

// LatestMajorVersion returns the highest version whose major component
// equals major, or "" if none match.
func LatestMajorVersion(versions []VersionName, major int) VersionName {
	want := "v" + strconv.Itoa(major)
	var latest VersionName
	for _, v := range versions {
		if semver.Major("v"+string(v)) != want {
			continue
		}
		if latest == "" || CompareVersions(v, latest) > 0 {
			latest = v
		}
	}
	return latest
}

// MajorVersionSelector interprets a version string as a bare major version
// selector.  Strings like "2" select the latest version with major 2;
// anything else is not a selector and passes through to exact resolution.
func MajorVersionSelector(version string) (major int, ok bool) {
	major, err := strconv.Atoi(version)
	if err != nil || major < 0 {
		return 0, false
	}
	return major, true
}
