package util

import (
	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/config"
	"github.com/datatools/dataforge/pkg/query"
	"github.com/datatools/dataforge/pkg/workspace"
)

// OpenWorkspaceSet opens the default WorkspaceSet.
// This consists of:
//   workspace stack: a workspace stack starting at the working directory in the configuration snapshot,
//    root workspace: the first marked root workspace in the stack, or the home workspace if none are marked,
//    home workspace: the workspace at the user's homedir, or at the configured root path override
//
// Errors:
//
//    - dataforge-error-workspace -- could not load workspace stack
//    - dataforge-error-serialization -- when the global configuration cannot be copied
func OpenWorkspaceSet() (workspace.WorkspaceSet, error) {
	state, err := config.NewState()
	if err != nil {
		return workspace.WorkspaceSet{}, err
	}

	wss, err := config.DefaultWorkspaceStack(state)
	if err != nil {
		return workspace.WorkspaceSet{}, dfapi.ErrorWorkspace(state.WorkingDirectory, err)
	}
	return wss, nil
}

// OpenCatalog opens a catalog over the nearest workspace in the default
// workspace stack, with the default namespace and project applied from the
// global configuration.
//
// Errors:
//
//    - dataforge-error-workspace -- could not load workspace stack
//    - dataforge-error-serialization -- when the global configuration cannot be copied
//    - dataforge-error-io -- when the workspace metastore cannot be opened
//    - dataforge-error-catalog-invalid -- when the workspace metastore is in an invalid state
func OpenCatalog() (*query.Catalog, error) {
	wss, err := OpenWorkspaceSet()
	if err != nil {
		return nil, err
	}
	state, err := config.NewState()
	if err != nil {
		return nil, err
	}
	return query.NewCatalog(wss.Local(), config.DefaultNamespace(state), config.DefaultProject(state))
}
