package config

import (
	"os"

	"github.com/datatools/dataforge/pkg/workspace"
)

// RootPathOverride returns the home workspace override, if set.
func RootPathOverride(state State) *string {
	value, ok := state.Env[EnvDataforgeRoot]
	if !ok {
		return nil
	}
	return &value
}

// DefaultNamespace returns the namespace used for unqualified dataset names.
func DefaultNamespace(state State) string {
	if value, ok := state.Env[EnvDataforgeNamespace]; ok {
		return value
	}
	return "local"
}

// DefaultProject returns the project used for unqualified dataset names.
func DefaultProject(state State) string {
	if value, ok := state.Env[EnvDataforgeProject]; ok {
		return value
	}
	return "default"
}

func Debug(state State) bool {
	_, ok := state.Env[EnvDataforgeDebug]
	return ok
}

// DefaultWorkspaceStack retrieves the workspace stack at state.WorkingDirectory.
// A root path override in the state's environment relocates the home workspace
// before the search begins.
//
// Errors:
//
//  - dataforge-error-searching-filesystem -- unexpected error traversing filesystem
func DefaultWorkspaceStack(state State) (workspace.WorkspaceSet, error) {
	if root := RootPathOverride(state); root != nil {
		workspace.OverrideHomeWorkspacePath(*root)
	}
	fsys := os.DirFS("/")
	wss, err := workspace.FindWorkspaceStack(fsys, "", state.WorkingDirectory[1:])
	if err != nil {
		return nil, err
	}
	return wss, nil
}
