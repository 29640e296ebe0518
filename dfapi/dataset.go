package dfapi

import (
	"fmt"

	"github.com/ipfs/go-cid"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/bindnode"
	"github.com/ipld/go-ipld-prime/schema"
)

func init() {
	TypeSystem.Accumulate(schema.SpawnUnion("DatasetCapsule",
		[]schema.TypeName{
			"Dataset",
		},
		schema.SpawnUnionRepresentationKeyed(map[string]schema.TypeName{
			"dataset.v1": "Dataset",
		})))
	TypeSystem.Accumulate(schema.SpawnStruct("Dataset",
		[]schema.StructField{
			schema.SpawnStructField("name", "DatasetName", false, false),
			schema.SpawnStructField("description", "String", true, false),
			schema.SpawnStructField("attrs", "List__String", false, false),
			schema.SpawnStructField("featureSchema", "Map__String__String", true, false),
			schema.SpawnStructField("columnTypes", "Map__String__String", true, false),
			schema.SpawnStructField("versions", "Map__VersionName__VersionCID", false, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnString("DatasetName"))
	TypeSystem.Accumulate(schema.SpawnString("VersionName"))
	TypeSystem.Accumulate(schema.SpawnString("VersionCID"))
	TypeSystem.Accumulate(schema.SpawnList("List__String", "String", false))
	TypeSystem.Accumulate(schema.SpawnMap("Map__VersionName__VersionCID",
		"VersionName", "VersionCID", false))
}

func init() {
	TypeSystem.Accumulate(schema.SpawnUnion("DatasetVersionCapsule",
		[]schema.TypeName{
			"DatasetVersion",
		},
		schema.SpawnUnionRepresentationKeyed(map[string]schema.TypeName{
			"datasetVersion.v1": "DatasetVersion",
		})))
	TypeSystem.Accumulate(schema.SpawnStruct("DatasetVersion",
		[]schema.StructField{
			schema.SpawnStructField("version", "VersionName", false, false),
			schema.SpawnStructField("uuid", "String", false, false),
			schema.SpawnStructField("createdAt", "String", false, false),
			schema.SpawnStructField("numObjects", "Int", false, false),
			schema.SpawnStructField("size", "Int", false, false),
			schema.SpawnStructField("status", "VersionStatus", false, false),
			schema.SpawnStructField("error", "String", true, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnString("VersionStatus"))
}

// DatasetName is the short (project-scoped) name of a dataset.
//
// Must not contain '/' characters or unprintables or whitespace;
// interior '.' characters are allowed.
// Temp datasets carry the "session-" prefix; storage listing datasets
// carry the "lst-" prefix.
type DatasetName string

// VersionName is a semantic version without the 'v' prefix, e.g. "1.2.0".
type VersionName string

// VersionCID is the content identifier of a serialized DatasetVersion.
type VersionCID string

type VersionStatus string

const (
	VersionStatus_Created  VersionStatus = "created"
	VersionStatus_Complete VersionStatus = "complete"
	VersionStatus_Failed   VersionStatus = "failed"
)

// DatasetCapsule is the versioned envelope a dataset record is stored in.
type DatasetCapsule struct {
	Dataset *Dataset
}

// Dataset is the record kept per dataset in the metastore.  The version map
// carries the CID of each version record so reads can verify what they load.
type Dataset struct {
	Name          DatasetName
	Description   *string
	Attrs         []string // each entry is "name" or "name=value".
	FeatureSchema *struct {
		Keys   []string
		Values map[string]string
	}
	ColumnTypes *struct {
		Keys   []string
		Values map[string]string
	}
	Versions struct {
		Keys   []VersionName
		Values map[VersionName]VersionCID
	}
}

// DatasetVersionCapsule is the versioned envelope a version record is stored in.
type DatasetVersionCapsule struct {
	DatasetVersion *DatasetVersion
}

type DatasetVersion struct {
	Version    VersionName
	Uuid       string
	CreatedAt  string // RFC3339.
	NumObjects int64
	Size       int64
	Status     VersionStatus
	Error      *string
}

func (dv *DatasetVersion) Cid() VersionCID {
	nVersion := bindnode.Wrap(dv, TypeSystem.TypeByName("DatasetVersion"))

	lsys := cidlink.DefaultLinkSystem()
	lnk, errRaw := lsys.ComputeLink(cidlink.LinkPrototype{Prefix: cid.Prefix{
		Version:  1,    // Usually '1'.
		Codec:    0x71, // 0x71 means "dag-cbor" -- See the multicodecs table: https://github.com/multiformats/multicodec/
		MhType:   0x13, // 0x13 means "sha2-512" -- See the multicodecs table: https://github.com/multiformats/multicodec/
		MhLength: 64,   // sha2-512 hash has a 64-byte sum.
	}}, nVersion.(schema.TypedNode).Representation())
	if errRaw != nil {
		// panic! this should never fail unless IPLD is broken
		panic(fmt.Sprintf("Fatal IPLD Error: lsys.ComputeLink failed for DatasetVersion: %s", errRaw))
	}
	return VersionCID(lnk.String())
}

// HasAttr reports whether the dataset carries an attr satisfying the
// given predicate.  See MatchAttr for predicate forms.
func (ds *Dataset) HasAttr(predicate string) bool {
	return MatchAttr(predicate, ds.Attrs)
}
