package dfapi

import (
	"github.com/ipld/go-ipld-prime/schema"
)

func init() {
	TypeSystem.Accumulate(schema.SpawnUnion("ProjectCapsule",
		[]schema.TypeName{
			"Project",
		},
		schema.SpawnUnionRepresentationKeyed(map[string]schema.TypeName{
			"project.v1": "Project",
		})))
	TypeSystem.Accumulate(schema.SpawnStruct("Project",
		[]schema.StructField{
			schema.SpawnStructField("name", "ProjectName", false, false),
			schema.SpawnStructField("namespace", "NamespaceName", false, false),
			schema.SpawnStructField("createdAt", "String", false, false),
			schema.SpawnStructField("metadata", "Map__String__String", false, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnString("ProjectName"))
	TypeSystem.Accumulate(schema.SpawnString("NamespaceName"))
	TypeSystem.Accumulate(schema.SpawnMap("Map__String__String",
		"String", "String", false))
}

// NamespaceName scopes projects.  One namespace per team or per registry
// account is typical.
//
// Must not contain '.' or '/' characters or unprintables or whitespace.
type NamespaceName string

// ProjectName scopes datasets within a namespace.
//
// Must not contain '.' or '/' characters or unprintables or whitespace.
type ProjectName string

// ProjectCapsule is the versioned envelope a project record is stored in.
type ProjectCapsule struct {
	Project *Project
}

type Project struct {
	Name      ProjectName
	Namespace NamespaceName
	CreatedAt string // RFC3339.
	Metadata  struct {
		Keys   []string
		Values map[string]string
	}
}
