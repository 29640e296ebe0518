package metastore

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/json"
	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
)

var projectFixture = `{
	"project.v1": {
		"name": "default",
		"namespace": "local",
		"createdAt": "2024-01-01T00:00:00Z",
		"metadata": {}
	}
}
`

var datasetFixture = `{
	"dataset.v1": {
		"name": "cats",
		"attrs": [
			"published"
		],
		"versions": {}
	}
}
`

func newTestStore(t *testing.T) Metastore {
	t.Helper()
	dir := t.TempDir()
	ms, err := OpenMetastore(os.DirFS("/"), dir)
	qt.Assert(t, err, qt.IsNil)
	return ms
}

func testVersion(version dfapi.VersionName) *dfapi.DatasetVersion {
	return &dfapi.DatasetVersion{
		Version:    version,
		Uuid:       "6c9637b3-97d2-44c9-b367-67cd9134ed41",
		CreatedAt:  "2024-03-01T10:00:00Z",
		NumObjects: 3,
		Size:       1024,
		Status:     dfapi.VersionStatus_Complete,
	}
}

func TestMetastoreLookupErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"store/local/default/_project.json": &fstest.MapFile{
			Mode: 0644,
			Data: []byte(projectFixture),
		},
		"store/local/default/cats/_dataset.json": &fstest.MapFile{
			Mode: 0644,
			Data: []byte(datasetFixture),
		},
	}
	ms, err := OpenMetastore(fsys, "store")
	qt.Assert(t, err, qt.IsNil)

	t.Run("project-found", func(t *testing.T) {
		proj, err := ms.GetProject("local", "default")
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, proj.Name, qt.Equals, dfapi.ProjectName("default"))
	})
	t.Run("project-missing", func(t *testing.T) {
		_, err := ms.GetProject("local", "nope")
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeProjectNotFound)
	})
	t.Run("dataset-found", func(t *testing.T) {
		ds, err := ms.GetDataset(dfapi.DatasetRef{Namespace: "local", Project: "default", Name: "cats"})
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, ds.Attrs, qt.DeepEquals, []string{"published"})
	})
	t.Run("dataset-missing", func(t *testing.T) {
		_, err := ms.GetDataset(dfapi.DatasetRef{Namespace: "local", Project: "default", Name: "dogs"})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
	})
	t.Run("dataset-in-missing-project", func(t *testing.T) {
		_, err := ms.GetDataset(dfapi.DatasetRef{Namespace: "local", Project: "nope", Name: "cats"})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeProjectNotFound)
	})
}

func TestMetastoreRoundtrip(t *testing.T) {
	ms := newTestStore(t)
	ref := dfapi.DatasetRef{Namespace: "local", Project: "default", Name: "cats"}

	_, err := ms.CreateProject("local", "default")
	qt.Assert(t, err, qt.IsNil)
	_, err = ms.CreateProject("local", "default")
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeAlreadyExists)

	for _, v := range []dfapi.VersionName{"2.0.0", "1.0.0", "1.2.0"} {
		qt.Assert(t, ms.AddVersion(ref, testVersion(v), false), qt.IsNil)
	}

	ds, err := ms.GetDataset(ref)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ds.Versions.Keys, qt.DeepEquals, []dfapi.VersionName{"1.0.0", "1.2.0", "2.0.0"})

	dv, err := ms.GetVersion(ref, "1.2.0")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, dv.Version, qt.Equals, dfapi.VersionName("1.2.0"))
	qt.Assert(t, dv.Cid(), qt.Equals, ds.Versions.Values["1.2.0"])

	_, err = ms.GetVersion(ref, "9.9.9")
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetVersionNotFound)

	err = ms.AddVersion(ref, testVersion("1.0.0"), false)
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeAlreadyExists)
	qt.Assert(t, ms.AddVersion(ref, testVersion("1.0.0"), true), qt.IsNil)

	err = ms.AddVersion(ref, testVersion("banana"), false)
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeVersionInvalid)
}

func TestGetVersionCidMismatch(t *testing.T) {
	ms := newTestStore(t)
	ref := dfapi.DatasetRef{Namespace: "local", Project: "default", Name: "cats"}
	_, err := ms.CreateProject("local", "default")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ms.AddVersion(ref, testVersion("1.0.0"), false), qt.IsNil)

	// Rewrite the version file with different content; the CID recorded in
	// the dataset record no longer matches, and the store must refuse it.
	tampered := testVersion("1.0.0")
	tampered.NumObjects = 99
	capsule := dfapi.DatasetVersionCapsule{DatasetVersion: tampered}
	serial, errRaw := ipld.Marshal(json.Encode, &capsule, dfapi.TypeSystem.TypeByName("DatasetVersionCapsule"))
	qt.Assert(t, errRaw, qt.IsNil)
	versionPath := filepath.Join("/", ms.versionFilePath(ref, "1.0.0"))
	qt.Assert(t, os.WriteFile(versionPath, serial, 0644), qt.IsNil)

	_, err = ms.GetVersion(ref, "1.0.0")
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeCatalogInvalid)

	// A missing version file is also a store integrity problem, not a lookup miss.
	qt.Assert(t, os.Remove(versionPath), qt.IsNil)
	_, err = ms.GetVersion(ref, "1.0.0")
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeCatalogInvalid)
}

func TestRemoveDataset(t *testing.T) {
	setup := func(t *testing.T) (Metastore, dfapi.DatasetRef) {
		ms := newTestStore(t)
		ref := dfapi.DatasetRef{Namespace: "local", Project: "default", Name: "cats"}
		_, err := ms.CreateProject("local", "default")
		qt.Assert(t, err, qt.IsNil)
		for _, v := range []dfapi.VersionName{"1.0.0", "1.2.0", "2.0.0"} {
			qt.Assert(t, ms.AddVersion(ref, testVersion(v), false), qt.IsNil)
		}
		return ms, ref
	}

	t.Run("specific-version", func(t *testing.T) {
		ms, ref := setup(t)
		qt.Assert(t, ms.RemoveDataset(ref, "1.0.0", false), qt.IsNil)
		ds, err := ms.GetDataset(ref)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, ds.Versions.Keys, qt.DeepEquals, []dfapi.VersionName{"1.2.0", "2.0.0"})
	})
	t.Run("default-is-latest", func(t *testing.T) {
		ms, ref := setup(t)
		qt.Assert(t, ms.RemoveDataset(ref, "", false), qt.IsNil)
		ds, err := ms.GetDataset(ref)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, ds.Versions.Keys, qt.DeepEquals, []dfapi.VersionName{"1.0.0", "1.2.0"})
	})
	t.Run("missing-version", func(t *testing.T) {
		ms, ref := setup(t)
		err := ms.RemoveDataset(ref, "9.9.9", false)
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetVersionNotFound)
	})
	t.Run("force-removes-all", func(t *testing.T) {
		ms, ref := setup(t)
		// explicit version is ignored when force is set
		qt.Assert(t, ms.RemoveDataset(ref, "1.0.0", true), qt.IsNil)
		_, err := ms.GetDataset(ref)
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
	})
	t.Run("last-version-drops-record", func(t *testing.T) {
		ms, ref := setup(t)
		for range []int{0, 1, 2} {
			qt.Assert(t, ms.RemoveDataset(ref, "", false), qt.IsNil)
		}
		_, err := ms.GetDataset(ref)
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
	})
}

func TestListDatasets(t *testing.T) {
	ms := newTestStore(t)
	_, err := ms.CreateProject("local", "default")
	qt.Assert(t, err, qt.IsNil)
	for _, name := range []dfapi.DatasetName{"cats", "lst-bucket", "session-3f2a-tmp"} {
		ref := dfapi.DatasetRef{Namespace: "local", Project: "default", Name: name}
		qt.Assert(t, ms.AddVersion(ref, testVersion("1.0.0"), false), qt.IsNil)
	}

	names, err := ms.ListDatasets("local", "default", false)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, names, qt.DeepEquals, []dfapi.DatasetName{"cats"})

	names, err = ms.ListDatasets("local", "default", true)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, names, qt.DeepEquals, []dfapi.DatasetName{"cats", "lst-bucket"})

	rows, err := ms.ListDatasetsVersions(false)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, len(rows), qt.Equals, 1)
	qt.Assert(t, rows[0].Dataset.Name, qt.Equals, dfapi.DatasetName("cats"))
	qt.Assert(t, rows[0].Version.Version, qt.Equals, dfapi.VersionName("1.0.0"))
}
