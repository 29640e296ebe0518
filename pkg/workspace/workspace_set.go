package workspace

import (
	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
)

// WorkspaceSet is an ordered slice of workspaces: the nearest workspace first,
// ancestors after, and the root (or home) workspace last.
type WorkspaceSet []*Workspace

// Root returns the last workspace of the set, which is the root or home
// workspace terminating the stack.
func (wsSet WorkspaceSet) Root() *Workspace {
	return wsSet[len(wsSet)-1]
}

// Local returns the first workspace of the set, which is the workspace
// nearest to the working directory.
func (wsSet WorkspaceSet) Local() *Workspace {
	return wsSet[0]
}

// FindDataset walks the workspace set in order and returns the first store
// holding a record for the referenced dataset, plus the record itself.
// Returns all nils when no workspace in the set has the dataset.
//
// Errors:
//
// 	- dataforge-error-io -- when reading a store fails
// 	- dataforge-error-catalog-parse -- when parsing a store record fails
// 	- dataforge-error-catalog-invalid -- when a store is in an invalid state
func (wsSet WorkspaceSet) FindDataset(ref dfapi.DatasetRef) (*Workspace, *dfapi.Dataset, error) {
	for _, ws := range wsSet {
		store, err := ws.OpenMetastore()
		if err != nil {
			return nil, nil, err
		}
		ds, err := store.GetDataset(ref)
		switch serum.Code(err) {
		case "":
			return ws, ds, nil
		case dfapi.CodeDatasetNotFound, dfapi.CodeProjectNotFound:
			continue // not in this workspace; keep looking.
		default:
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

// FindVersion walks the workspace set and returns the first matching dataset
// version record.  Returns all nils when not found anywhere in the set.
//
// Errors:
//
// 	- dataforge-error-io -- when reading a store fails
// 	- dataforge-error-catalog-parse -- when parsing a store record fails
// 	- dataforge-error-catalog-invalid -- when a store record fails verification
func (wsSet WorkspaceSet) FindVersion(ref dfapi.DatasetRef, version dfapi.VersionName) (*Workspace, *dfapi.DatasetVersion, error) {
	for _, ws := range wsSet {
		store, err := ws.OpenMetastore()
		if err != nil {
			return nil, nil, err
		}
		dv, err := store.GetVersion(ref, version)
		switch serum.Code(err) {
		case "":
			return ws, dv, nil
		case dfapi.CodeDatasetNotFound, dfapi.CodeProjectNotFound, dfapi.CodeDatasetVersionNotFound:
			continue
		default:
			return nil, nil, err
		}
	}
	return nil, nil, nil
}
