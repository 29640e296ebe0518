package remote

import (
	"context"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
)

func testDataset(name string, versions ...string) *dfapi.Dataset {
	ds := &dfapi.Dataset{
		Name: dfapi.DatasetName(name),
		Versions: struct {
			Keys   []dfapi.VersionName
			Values map[dfapi.VersionName]dfapi.VersionCID
		}{Values: map[dfapi.VersionName]dfapi.VersionCID{}},
	}
	for _, v := range versions {
		ds.Versions.Keys = append(ds.Versions.Keys, dfapi.VersionName(v))
		ds.Versions.Values[dfapi.VersionName(v)] = dfapi.VersionCID("cid-" + v)
	}
	return ds
}

func TestFromConfigSelection(t *testing.T) {
	reg, err := FromConfig(context.Background(), dfapi.RegistryConfig{Mock: &dfapi.MockRegistryConfig{}}, "")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, reg.Kind(), qt.Equals, "mock")

	_, err = FromConfig(context.Background(), dfapi.RegistryConfig{}, "")
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeRegistry)
}

func TestMockRegistry(t *testing.T) {
	ctx := context.Background()
	reg := NewMockRegistry()
	ref := dfapi.DatasetRef{Namespace: "prod", Project: "vision", Name: "cats"}
	reg.AddDataset(ref, testDataset("cats", "1.0.0", "1.2.0"),
		&dfapi.DatasetVersion{Version: "1.0.0", Status: dfapi.VersionStatus_Complete},
		&dfapi.DatasetVersion{Version: "1.2.0", Status: dfapi.VersionStatus_Complete},
	)

	ds, err := reg.GetDataset(ctx, ref)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, ds.Versions.Keys, qt.HasLen, 2)

	refV := ref
	refV.Version = "1.2.0"
	dv, err := reg.GetVersion(ctx, refV)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, dv.Version, qt.Equals, dfapi.VersionName("1.2.0"))

	refV.Version = "9.9.9"
	_, err = reg.GetVersion(ctx, refV)
	qt.Check(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetVersionNotFound)

	// Default removal takes the latest version.
	err = reg.RemoveDataset(ctx, ref, false)
	qt.Assert(t, err, qt.IsNil)
	ds, err = reg.GetDataset(ctx, ref)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, ds.Versions.Keys, qt.DeepEquals, []dfapi.VersionName{"1.0.0"})

	// Removing the last version drops the record entirely.
	err = reg.RemoveDataset(ctx, ref, false)
	qt.Assert(t, err, qt.IsNil)
	_, err = reg.GetDataset(ctx, ref)
	qt.Check(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)

	// Force removal ignores any explicit version.
	reg.AddDataset(ref, testDataset("cats", "1.0.0", "2.0.0"))
	refV.Version = "1.0.0"
	err = reg.RemoveDataset(ctx, refV, true)
	qt.Assert(t, err, qt.IsNil)
	_, err = reg.GetDataset(ctx, ref)
	qt.Check(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
}

func TestGitRegistryReads(t *testing.T) {
	datasetSerial := `{
	"dataset.v1": {
		"name": "cats",
		"attrs": [],
		"versions": {
			"1.0.0": "cid-1.0.0"
		}
	}
}
`
	versionSerial := `{
	"datasetVersion.v1": {
		"version": "1.0.0",
		"uuid": "0d263eec-9b74-4997-9456-1826ebed3398",
		"createdAt": "2026-01-02T03:04:05Z",
		"numObjects": 1,
		"size": 64,
		"status": "complete"
	}
}
`
	// A checkout fixture; the walk must skip non-record files and .git internals.
	reg := GitRegistry{
		cfg:       dfapi.GitRegistryConfig{Url: "https://git.example.com/registry.git"},
		cachePath: "/tmp/unused",
		fsys: fstest.MapFS{
			"prod/vision/cats/_dataset.json":        &fstest.MapFile{Data: []byte(datasetSerial)},
			"prod/vision/cats/_versions/1.0.0.json": &fstest.MapFile{Data: []byte(versionSerial)},
			"README.md":                             &fstest.MapFile{Data: []byte("# registry")},
			".git/config":                           &fstest.MapFile{Data: []byte("[core]")},
		},
	}
	ctx := context.Background()

	ref := dfapi.DatasetRef{Namespace: "prod", Project: "vision", Name: "cats"}
	ds, err := reg.GetDataset(ctx, ref)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, ds.Name, qt.Equals, dfapi.DatasetName("cats"))

	ref.Version = "1.0.0"
	dv, err := reg.GetVersion(ctx, ref)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, dv.Status, qt.Equals, dfapi.VersionStatus_Complete)

	ref.Version = "2.0.0"
	_, err = reg.GetVersion(ctx, ref)
	qt.Check(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetVersionNotFound)

	rows, err := reg.ListDatasets(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, rows, qt.HasLen, 1)
	qt.Check(t, rows[0].Namespace, qt.Equals, dfapi.NamespaceName("prod"))
	qt.Check(t, rows[0].Dataset.Name, qt.Equals, dfapi.DatasetName("cats"))

	err = reg.RemoveDataset(ctx, ref, false)
	qt.Check(t, serum.Code(err), qt.Equals, dfapi.CodeRegistryUnsupported)
}
