package dfapi

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/json"
)

func TestParseDataset(t *testing.T) {
	serial := `{
	"dataset.v1": {
		"name": "cats",
		"description": "cat pictures",
		"attrs": [
			"published",
			"loc=europe"
		],
		"featureSchema": {
			"file": "File"
		},
		"columnTypes": {
			"file.path": "str",
			"file.etag": "str"
		},
		"versions": {
			"1.0.0": "zCid1",
			"1.2.0": "zCid2"
		}
	}
}
`

	dsc := DatasetCapsule{}
	_, err := ipld.Unmarshal([]byte(serial), json.Decode, &dsc, TypeSystem.TypeByName("DatasetCapsule"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, dsc.Dataset, qt.IsNotNil)
	qt.Assert(t, dsc.Dataset.Name, qt.Equals, DatasetName("cats"))
	qt.Assert(t, dsc.Dataset.Versions.Keys, qt.DeepEquals, []VersionName{"1.0.0", "1.2.0"})

	reserial, err := ipld.Marshal(json.Encode, &dsc, TypeSystem.TypeByName("DatasetCapsule"))
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, string(reserial), qt.CmpEquals(), serial)
}

func TestParseDatasetVersion(t *testing.T) {
	serial := `{
	"datasetVersion.v1": {
		"version": "1.2.0",
		"uuid": "a589d2f5-6c4a-41c8-b2e7-9a05a3f0a0f8",
		"createdAt": "2024-03-01T10:00:00Z",
		"numObjects": 1200,
		"size": 73400320,
		"status": "complete"
	}
}
`

	dvc := DatasetVersionCapsule{}
	_, err := ipld.Unmarshal([]byte(serial), json.Decode, &dvc, TypeSystem.TypeByName("DatasetVersionCapsule"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, dvc.DatasetVersion, qt.IsNotNil)
	qt.Assert(t, dvc.DatasetVersion.NumObjects, qt.Equals, int64(1200))
	qt.Assert(t, dvc.DatasetVersion.Status, qt.Equals, VersionStatus_Complete)

	reserial, err := ipld.Marshal(json.Encode, &dvc, TypeSystem.TypeByName("DatasetVersionCapsule"))
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, string(reserial), qt.CmpEquals(), serial)
}

func TestDatasetVersionCid(t *testing.T) {
	dv := DatasetVersion{
		Version:    "1.0.0",
		Uuid:       "a589d2f5-6c4a-41c8-b2e7-9a05a3f0a0f8",
		CreatedAt:  "2024-03-01T10:00:00Z",
		NumObjects: 10,
		Size:       4096,
		Status:     VersionStatus_Complete,
	}
	same := dv
	qt.Assert(t, dv.Cid(), qt.Equals, same.Cid())

	other := dv
	other.NumObjects = 11
	qt.Assert(t, dv.Cid(), qt.Not(qt.Equals), other.Cid())
}
