package dfapi

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestValidVersion(t *testing.T) {
	qt.Check(t, ValidVersion("1.0.0"), qt.IsTrue)
	qt.Check(t, ValidVersion("1.2.0-rc.1"), qt.IsTrue)
	qt.Check(t, ValidVersion("banana"), qt.IsFalse)
	qt.Check(t, ValidVersion("v1.0.0"), qt.IsFalse)
	qt.Check(t, ValidVersion(""), qt.IsFalse)
}

func TestLatestVersion(t *testing.T) {
	versions := []VersionName{"1.0.0", "1.2.0", "2.0.0"}
	qt.Check(t, LatestVersion(versions), qt.Equals, VersionName("2.0.0"))
	qt.Check(t, LatestVersion(nil), qt.Equals, VersionName(""))
	qt.Check(t, LatestVersion([]VersionName{"1.10.0", "1.9.0"}), qt.Equals, VersionName("1.10.0"))
}

func TestLatestMajorVersion(t *testing.T) {
	versions := []VersionName{"1.0.0", "1.2.0", "2.0.0"}
	qt.Check(t, LatestMajorVersion(versions, 1), qt.Equals, VersionName("1.2.0"))
	qt.Check(t, LatestMajorVersion(versions, 2), qt.Equals, VersionName("2.0.0"))
	qt.Check(t, LatestMajorVersion(versions, 3), qt.Equals, VersionName(""))
}

func TestMajorVersionSelector(t *testing.T) {
	major, ok := MajorVersionSelector("2")
	qt.Check(t, ok, qt.IsTrue)
	qt.Check(t, major, qt.Equals, 2)

	_, ok = MajorVersionSelector("1.2.0")
	qt.Check(t, ok, qt.IsFalse)
	_, ok = MajorVersionSelector("-1")
	qt.Check(t, ok, qt.IsFalse)
	_, ok = MajorVersionSelector("latest")
	qt.Check(t, ok, qt.IsFalse)
}
