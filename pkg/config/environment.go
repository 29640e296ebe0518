package config

const (
	// EnvDataforgeRoot overrides the location of the home workspace.
	EnvDataforgeRoot = "DATAFORGE_ROOT"
	// EnvDataforgeNamespace overrides the default namespace for unqualified dataset names.
	EnvDataforgeNamespace = "DATAFORGE_NAMESPACE"
	// EnvDataforgeProject overrides the default project for unqualified dataset names.
	EnvDataforgeProject = "DATAFORGE_PROJECT"
	// EnvDataforgeDebug enables debug output regardless of CLI flags.
	EnvDataforgeDebug = "DATAFORGE_DEBUG"
)

// NOTE: keep this up to date or the config loader won't load them
var envKeys = []string{
	EnvDataforgeRoot,
	EnvDataforgeNamespace,
	EnvDataforgeProject,
	EnvDataforgeDebug,
}
