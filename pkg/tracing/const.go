package tracing

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used by dataforge
const (
	AttrKeyDataforgeErrorCode      = "dataforge.error.code"
	AttrKeyDataforgeDatasetRef     = "dataforge.dataset.ref"
	AttrKeyDataforgeDatasetVersion = "dataforge.dataset.version"
	AttrKeyDataforgeNamespace      = "dataforge.namespace"
	AttrKeyDataforgeProject        = "dataforge.project"
	AttrKeyDataforgeSessionId      = "dataforge.session.id"
	AttrKeyDataforgeRegistryKind   = "dataforge.registry.kind"
	AttrKeyDataforgeExecName       = "dataforge.exec.name"
	AttrKeyDataforgeExecOperation  = "dataforge.exec.operation"
)

// Attribute values
const (
	AttrValueExecNameGit           = "git"
	AttrValueExecNameS3            = "s3"
	AttrValueExecOperationGitClone = "clone"
	AttrValueExecOperationGitPull  = "pull"
	AttrValueExecOperationS3Get    = "get"
	AttrValueExecOperationS3List   = "list"
)

// Enumerated attributes
var (
	AttrFullExecNameGit           = attribute.String(AttrKeyDataforgeExecName, AttrValueExecNameGit)
	AttrFullExecNameS3            = attribute.String(AttrKeyDataforgeExecName, AttrValueExecNameS3)
	AttrFullExecOperationGitClone = attribute.String(AttrKeyDataforgeExecOperation, AttrValueExecOperationGitClone)
	AttrFullExecOperationGitPull  = attribute.String(AttrKeyDataforgeExecOperation, AttrValueExecOperationGitPull)
	AttrFullExecOperationS3Get    = attribute.String(AttrKeyDataforgeExecOperation, AttrValueExecOperationS3Get)
	AttrFullExecOperationS3List   = attribute.String(AttrKeyDataforgeExecOperation, AttrValueExecOperationS3List)
)
