package dab

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/json"

	"github.com/datatools/dataforge/dfapi"
)

const (
	MagicFilename_Project  = "_project.json"
	MagicFilename_Dataset  = "_dataset.json"
	MagicDirname_Versions  = "_versions"
	MagicFilename_Registry = "registry.json"
)

// ProjectFromFile loads a dfapi.Project from a filesystem path.
//
// In typical usage, the filename parameter will have the suffix of MagicFilename_Project.
//
// Errors:
//
// 	- dataforge-error-io -- for errors reading from fsys.
// 	- dataforge-error-catalog-parse -- for errors from trying to parse the data as a Project.
func ProjectFromFile(fsys fs.FS, filename string) (dfapi.Project, error) {
	const situation = "loading a project record"
	if strings.HasPrefix(filename, "/") {
		filename = filename[1:]
	}
	f, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return dfapi.Project{}, dfapi.ErrorIo(situation, filename, err)
	}

	projectCapsule := dfapi.ProjectCapsule{}
	_, err = ipld.Unmarshal(f, json.Decode, &projectCapsule, dfapi.TypeSystem.TypeByName("ProjectCapsule"))
	if err != nil {
		return dfapi.Project{}, dfapi.ErrorCatalogParse(filename, err)
	}
	if projectCapsule.Project == nil {
		// ... this isn't really reachable.
		return dfapi.Project{}, dfapi.ErrorCatalogParse(filename, fmt.Errorf("no v1 Project in ProjectCapsule"))
	}

	return *projectCapsule.Project, nil
}

// DatasetFromFile loads a dfapi.Dataset from a filesystem path.
//
// In typical usage, the filename parameter will have the suffix of MagicFilename_Dataset.
//
// Errors:
//
// 	- dataforge-error-io -- for errors reading from fsys.
// 	- dataforge-error-catalog-parse -- for errors from trying to parse the data as a Dataset.
// 	- dataforge-error-name-invalid -- when the stored dataset name is invalid.
func DatasetFromFile(fsys fs.FS, filename string) (dfapi.Dataset, error) {
	const situation = "loading a dataset record"
	if strings.HasPrefix(filename, "/") {
		filename = filename[1:]
	}
	f, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return dfapi.Dataset{}, dfapi.ErrorIo(situation, filename, err)
	}

	datasetCapsule := dfapi.DatasetCapsule{}
	_, err = ipld.Unmarshal(f, json.Decode, &datasetCapsule, dfapi.TypeSystem.TypeByName("DatasetCapsule"))
	if err != nil {
		return dfapi.Dataset{}, dfapi.ErrorCatalogParse(filename, err)
	}
	if datasetCapsule.Dataset == nil {
		// ... this isn't really reachable.
		return dfapi.Dataset{}, dfapi.ErrorCatalogParse(filename, fmt.Errorf("no v1 Dataset in DatasetCapsule"))
	}

	if err := ValidateDatasetName(datasetCapsule.Dataset.Name); err != nil {
		return dfapi.Dataset{}, err
	}

	return *datasetCapsule.Dataset, nil
}

// DatasetVersionFromFile loads a dfapi.DatasetVersion from a filesystem path.
//
// In typical usage, the filename parameter names a file under MagicDirname_Versions.
//
// Errors:
//
// 	- dataforge-error-io -- for errors reading from fsys.
// 	- dataforge-error-catalog-parse -- for errors from trying to parse the data as a DatasetVersion.
func DatasetVersionFromFile(fsys fs.FS, filename string) (dfapi.DatasetVersion, error) {
	const situation = "loading a dataset version record"
	if strings.HasPrefix(filename, "/") {
		filename = filename[1:]
	}
	f, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return dfapi.DatasetVersion{}, dfapi.ErrorIo(situation, filename, err)
	}

	versionCapsule := dfapi.DatasetVersionCapsule{}
	_, err = ipld.Unmarshal(f, json.Decode, &versionCapsule, dfapi.TypeSystem.TypeByName("DatasetVersionCapsule"))
	if err != nil {
		return dfapi.DatasetVersion{}, dfapi.ErrorCatalogParse(filename, err)
	}
	if versionCapsule.DatasetVersion == nil {
		// ... this isn't really reachable.
		return dfapi.DatasetVersion{}, dfapi.ErrorCatalogParse(filename, fmt.Errorf("no v1 DatasetVersion in DatasetVersionCapsule"))
	}

	return *versionCapsule.DatasetVersion, nil
}
