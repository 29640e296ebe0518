package dfapi

import (
	"github.com/ipld/go-ipld-prime/schema"
)

func init() {
	TypeSystem.Accumulate(schema.SpawnUnion("RegistryConfigCapsule",
		[]schema.TypeName{
			"RegistryConfig",
		},
		schema.SpawnUnionRepresentationKeyed(map[string]schema.TypeName{
			"registryConfig.v1": "RegistryConfig",
		})))
	TypeSystem.Accumulate(schema.SpawnStruct("RegistryConfig",
		[]schema.StructField{
			schema.SpawnStructField("namespaces", "List__String", false, false),
			schema.SpawnStructField("s3", "S3RegistryConfig", true, false),
			schema.SpawnStructField("git", "GitRegistryConfig", true, false),
			schema.SpawnStructField("mock", "MockRegistryConfig", true, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnStruct("S3RegistryConfig",
		[]schema.StructField{
			schema.SpawnStructField("endpoint", "String", false, false),
			schema.SpawnStructField("region", "String", false, false),
			schema.SpawnStructField("bucket", "String", false, false),
			schema.SpawnStructField("path", "String", true, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnStruct("GitRegistryConfig",
		[]schema.StructField{
			schema.SpawnStructField("url", "String", false, false),
			schema.SpawnStructField("ref", "String", true, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnStruct("MockRegistryConfig",
		[]schema.StructField{},
		schema.SpawnStructRepresentationMap(nil)))
}

// RegistryConfigCapsule is the versioned envelope of a workspace's
// registry.json file.
type RegistryConfigCapsule struct {
	RegistryConfig *RegistryConfig
}

// RegistryConfig selects and configures the remote dataset registry.
// Exactly one of the backend fields should be set.
// Namespaces lists the namespaces this registry is authoritative for;
// datasets outside the locally owned namespaces are looked up there.
type RegistryConfig struct {
	Namespaces []string
	S3         *S3RegistryConfig
	Git        *GitRegistryConfig
	Mock       *MockRegistryConfig
}

type S3RegistryConfig struct {
	Endpoint string
	Region   string
	Bucket   string
	Path     *string
}

type GitRegistryConfig struct {
	Url string
	Ref *string
}

type MockRegistryConfig struct {
}
