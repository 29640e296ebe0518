package dab_test

import (
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/dab"
)

var datasetSerial = `{
	"dataset.v1": {
		"name": "cats",
		"attrs": ["loc=s3://bucket/cats"],
		"versions": {
			"1.0.0": "zM5K3WqCjBYJXijYdQBmMsRnRvBTnXdmga5SHZZdV4VdSp9XJRqVHyqEoSRzs1pNs78V8q"
		}
	}
}
`

var versionSerial = `{
	"datasetVersion.v1": {
		"version": "1.0.0",
		"uuid": "0d263eec-9b74-4997-9456-1826ebed3398",
		"createdAt": "2026-01-02T03:04:05Z",
		"numObjects": 12,
		"size": 4096,
		"status": "complete"
	}
}
`

var projectSerial = `{
	"project.v1": {
		"name": "default",
		"namespace": "local",
		"createdAt": "2026-01-02T03:04:05Z",
		"metadata": {}
	}
}
`

func TestRecordsFromFile(t *testing.T) {
	fsys := fstest.MapFS{
		"cats/_dataset.json":          &fstest.MapFile{Data: []byte(datasetSerial)},
		"cats/_versions/1.0.0.json":   &fstest.MapFile{Data: []byte(versionSerial)},
		"broken/_dataset.json":        &fstest.MapFile{Data: []byte(`{"dataset.v1": "not a map"}`)},
		"local/default/_project.json": &fstest.MapFile{Data: []byte(projectSerial)},
	}

	proj, err := dab.ProjectFromFile(fsys, "local/default/"+dab.MagicFilename_Project)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, proj.Name, qt.Equals, dfapi.ProjectName("default"))
	qt.Check(t, proj.Namespace, qt.Equals, dfapi.NamespaceName("local"))

	ds, err := dab.DatasetFromFile(fsys, "cats/"+dab.MagicFilename_Dataset)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, ds.Name, qt.Equals, dfapi.DatasetName("cats"))
	qt.Check(t, ds.Versions.Keys, qt.HasLen, 1)

	dv, err := dab.DatasetVersionFromFile(fsys, "cats/_versions/1.0.0.json")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, dv.Version, qt.Equals, dfapi.VersionName("1.0.0"))
	qt.Check(t, dv.Status, qt.Equals, dfapi.VersionStatus_Complete)

	_, err = dab.DatasetFromFile(fsys, "broken/"+dab.MagicFilename_Dataset)
	qt.Check(t, serum.Code(err), qt.Equals, dfapi.CodeCatalogParse)

	_, err = dab.DatasetFromFile(fsys, "missing/"+dab.MagicFilename_Dataset)
	qt.Check(t, serum.Code(err), qt.Equals, dfapi.CodeIo)
}

func TestGuessDocumentType(t *testing.T) {
	marker, err := dab.GuessDocumentType([]byte(datasetSerial), dab.GuessMagic_All)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, marker, qt.Equals, dab.GuessMagic_DatasetV1)

	marker, err = dab.GuessDocumentType([]byte(versionSerial), dab.GuessMagic_All)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, marker, qt.Equals, dab.GuessMagic_DatasetVersionV1)

	marker, err = dab.GuessDocumentType([]byte(`{"someother.v1": {}}`), dab.GuessMagic_All)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, marker, qt.Equals, "")

	_, err = dab.GuessDocumentType([]byte(`42`), dab.GuessMagic_All)
	qt.Check(t, serum.Code(err), qt.Equals, dfapi.CodeSerialization)
}
