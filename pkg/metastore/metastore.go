package metastore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/facette/natsort"
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/json"
	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/dab"
)

const (
	// The on-disk layout shares its magic filenames with the remote
	// registries; dab declares them for both.
	magicProjectFilename = dab.MagicFilename_Project
	magicDatasetFilename = dab.MagicFilename_Dataset
	versionsDirname      = dab.MagicDirname_Versions

	// TempDatasetPrefix marks datasets owned by a session; they are
	// garbage collected when the session closes and never listed.
	TempDatasetPrefix = "session-"
	// ListingDatasetPrefix marks cached storage-listing datasets;
	// they are hidden from listings unless explicitly requested.
	ListingDatasetPrefix = "lst-"

	// NameFormat constrains namespace, project, and dataset name segments.
	NameFormat = `^[A-Za-z0-9][-A-Za-z0-9_]{0,62}$`
)

var reName = regexp.MustCompile(NameFormat)

// IsTempName reports whether a dataset name belongs to a session.
func IsTempName(name dfapi.DatasetName) bool {
	return strings.HasPrefix(string(name), TempDatasetPrefix)
}

// IsListingName reports whether a dataset is a cached storage listing.
func IsListingName(name dfapi.DatasetName) bool {
	return strings.HasPrefix(string(name), ListingDatasetPrefix)
}

// ValidName reports whether a single name segment is acceptable.
func ValidName(segment string) bool {
	return reName.MatchString(segment)
}

// VersionedDataset is a row of ListDatasetsVersions output.
type VersionedDataset struct {
	Namespace dfapi.NamespaceName
	Project   dfapi.ProjectName
	Dataset   *dfapi.Dataset
	Version   *dfapi.DatasetVersion
}

// The Metastore struct represents one file-backed dataset store.
// All methods operate on that specific store.  Higher level functionality
// to traverse workspaces and fall back to remote registries is provided
// by the workspace and query packages.
type Metastore struct {
	fsys        fs.FS  // Usually `os.DirFS("/")` when live, but may vary for tests.
	path        string // Always concatenated to the front of anything else we do.
	projectList []projectKey
}

type projectKey struct {
	namespace dfapi.NamespaceName
	project   dfapi.ProjectName
}

// OpenMetastore creates an object that can be used to access dataset records
// on the local filesystem.  It immediately scans for available projects.
//
// Will return an empty store object if the directory does not exist.
//
// Errors:
//
// 	- dataforge-error-io -- when building the project list fails due to I/O error
// 	- dataforge-error-catalog-invalid -- when the store path exists but cannot be opened
func OpenMetastore(fsys fs.FS, path string) (Metastore, error) {
	if filepath.IsAbs(path) {
		path = path[1:]
	}
	if _, err := fs.Stat(fsys, path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metastore{
				fsys: fsys,
				path: path,
			}, nil
		}
		return Metastore{}, serum.Error(dfapi.CodeCatalogInvalid,
			serum.WithMessageTemplate("metastore not found at path {{path|q}}"),
			serum.WithDetail("path", path),
			serum.WithCause(err),
		)
	}

	store := Metastore{
		fsys: fsys,
		path: path,
	}
	if err := store.updateProjectList(); err != nil {
		return Metastore{}, err
	}
	return store, nil
}

// Path returns the store's fs and path.
func (ms *Metastore) Path() (fs.FS, string) {
	return ms.fsys, ms.path
}

// Projects returns the namespace and project name of every project found
// when the store was opened.
func (ms *Metastore) Projects() [][2]string {
	var out [][2]string
	for _, k := range ms.projectList {
		out = append(out, [2]string{string(k.namespace), string(k.project)})
	}
	return out
}

// Update the store's list of projects.
// This is called when opening the store, and after updating the filesystem.
func (ms *Metastore) updateProjectList() error {
	ms.projectList = []projectKey{}

	// namespaces are first-level directories; projects are their
	// subdirectories containing a "_project.json".
	namespaces, errRaw := fs.ReadDir(ms.fsys, ms.path)
	if errRaw != nil {
		return dfapi.ErrorIo("could not read metastore directory", ms.path, errRaw)
	}
	for _, nsInfo := range namespaces {
		if !nsInfo.IsDir() {
			continue
		}
		nsPath := filepath.Join(ms.path, nsInfo.Name())
		projects, errRaw := fs.ReadDir(ms.fsys, nsPath)
		if errRaw != nil {
			return dfapi.ErrorIo("could not read namespace directory", nsPath, errRaw)
		}
		for _, projInfo := range projects {
			if !projInfo.IsDir() {
				continue
			}
			marker := filepath.Join(nsPath, projInfo.Name(), magicProjectFilename)
			if _, err := fs.Stat(ms.fsys, marker); err != nil {
				continue
			}
			ms.projectList = append(ms.projectList, projectKey{
				namespace: dfapi.NamespaceName(nsInfo.Name()),
				project:   dfapi.ProjectName(projInfo.Name()),
			})
		}
	}
	return nil
}

// Get the file path for a Project record.
// This will be [store path]/[namespace]/[project]/_project.json
func (ms *Metastore) projectFilePath(namespace dfapi.NamespaceName, project dfapi.ProjectName) string {
	return filepath.Join(ms.path, string(namespace), string(project), magicProjectFilename)
}

// Get the file path for a Dataset record.
// This will be [store path]/[namespace]/[project]/[dataset]/_dataset.json
func (ms *Metastore) datasetFilePath(ref dfapi.DatasetRef) string {
	return filepath.Join(ms.path, string(ref.Namespace), string(ref.Project), string(ref.Name), magicDatasetFilename)
}

// Get the file path for a DatasetVersion record.
// This will be [store path]/[namespace]/[project]/[dataset]/_versions/[version].json
func (ms *Metastore) versionFilePath(ref dfapi.DatasetRef, version dfapi.VersionName) string {
	base := filepath.Dir(ms.datasetFilePath(ref))
	path := filepath.Join(base, versionsDirname, string(version))
	path = strings.Join([]string{path, ".json"}, "")
	return path
}

// GetProject fetches a project record.
//
// Errors:
//
//    - dataforge-error-project-not-found -- when no such project exists
//    - dataforge-error-io -- when reading the project file fails
//    - dataforge-error-catalog-parse -- when ipld unmarshaling fails
func (ms *Metastore) GetProject(namespace dfapi.NamespaceName, project dfapi.ProjectName) (*dfapi.Project, error) {
	projPath := ms.projectFilePath(namespace, project)
	if _, errRaw := fs.Stat(ms.fsys, projPath); errors.Is(errRaw, fs.ErrNotExist) {
		return nil, dfapi.ErrorProjectNotFound(string(namespace), string(project))
	}
	proj, err := dab.ProjectFromFile(ms.fsys, projPath)
	if err != nil {
		return nil, err
	}
	return &proj, nil
}

// CreateProject creates a new project record.
//
// Errors:
//
//    - dataforge-error-catalog-invalid -- when a name segment is invalid
//    - dataforge-error-already-exists -- when the project already exists
//    - dataforge-error-io -- when writing the project file fails
//    - dataforge-error-serialization -- when serializing the record fails
func (ms *Metastore) CreateProject(namespace dfapi.NamespaceName, project dfapi.ProjectName) (*dfapi.Project, error) {
	if !ValidName(string(namespace)) {
		return nil, dfapi.ErrorCatalogInvalid(string(namespace), fmt.Sprintf("namespace must match expression: %s", NameFormat))
	}
	if !ValidName(string(project)) {
		return nil, dfapi.ErrorCatalogInvalid(string(project), fmt.Sprintf("project must match expression: %s", NameFormat))
	}
	projPath := ms.projectFilePath(namespace, project)
	if _, err := fs.Stat(ms.fsys, projPath); err == nil {
		return nil, dfapi.ErrorAlreadyExists("project", projPath)
	}

	proj := &dfapi.Project{
		Name:      project,
		Namespace: namespace,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	proj.Metadata.Values = map[string]string{}

	projCapsule := dfapi.ProjectCapsule{Project: proj}
	projSerial, errRaw := ipld.Marshal(json.Encode, &projCapsule, dfapi.TypeSystem.TypeByName("ProjectCapsule"))
	if errRaw != nil {
		return nil, dfapi.ErrorSerialization("failed to serialize project", errRaw)
	}

	projDir := filepath.Join("/", filepath.Dir(projPath))
	if errRaw := os.MkdirAll(projDir, 0755); errRaw != nil {
		return nil, dfapi.ErrorIo("failed to create project directory", projDir, errRaw)
	}
	if errRaw := os.WriteFile(filepath.Join("/", projPath), projSerial, 0644); errRaw != nil {
		return nil, dfapi.ErrorIo("failed to write project file", projPath, errRaw)
	}

	ms.projectList = append(ms.projectList, projectKey{namespace: namespace, project: project})
	return proj, nil
}

// GetDataset fetches a dataset record.  The project is resolved first, so a
// missing project is distinguishable from a missing dataset.
//
// Errors:
//
//    - dataforge-error-project-not-found -- when the project does not exist
//    - dataforge-error-dataset-not-found -- when the dataset does not exist
//    - dataforge-error-io -- when reading the dataset file fails
//    - dataforge-error-catalog-parse -- when ipld unmarshaling fails
func (ms *Metastore) GetDataset(ref dfapi.DatasetRef) (*dfapi.Dataset, error) {
	if _, err := ms.GetProject(ref.Namespace, ref.Project); err != nil {
		return nil, err
	}

	dsPath := ms.datasetFilePath(ref)
	dsBytes, errRaw := fs.ReadFile(ms.fsys, dsPath)
	if errors.Is(errRaw, fs.ErrNotExist) {
		return nil, dfapi.ErrorDatasetNotFound(ref.FullName())
	}
	if errRaw != nil {
		return nil, dfapi.ErrorIo("error reading dataset file", dsPath, errRaw)
	}

	dsCapsule := dfapi.DatasetCapsule{}
	_, errRaw = ipld.Unmarshal(dsBytes, json.Decode, &dsCapsule, dfapi.TypeSystem.TypeByName("DatasetCapsule"))
	if errRaw != nil {
		return nil, dfapi.ErrorCatalogParse(dsPath, errRaw)
	}
	if dsCapsule.Dataset == nil {
		return nil, dfapi.ErrorCatalogParse(dsPath, fmt.Errorf("no v1 Dataset in DatasetCapsule"))
	}
	return dsCapsule.Dataset, nil
}

// GetVersion fetches a version record of a dataset and verifies its CID
// against the link held in the dataset record.
//
// Errors:
//
//    - dataforge-error-project-not-found -- when the project does not exist
//    - dataforge-error-dataset-not-found -- when the dataset does not exist
//    - dataforge-error-dataset-version-not-found -- when the version does not exist
//    - dataforge-error-io -- when reading files fails
//    - dataforge-error-catalog-parse -- when ipld unmarshaling fails
//    - dataforge-error-catalog-invalid -- when the version record does not match its CID
func (ms *Metastore) GetVersion(ref dfapi.DatasetRef, version dfapi.VersionName) (*dfapi.DatasetVersion, error) {
	ds, err := ms.GetDataset(ref)
	if err != nil {
		return nil, err
	}

	versionCid, versionFound := ds.Versions.Values[version]
	if !versionFound {
		return nil, dfapi.ErrorDatasetVersionNotFound(ref.FullName(), string(version))
	}

	versionPath := ms.versionFilePath(ref, version)
	versionBytes, errRaw := fs.ReadFile(ms.fsys, versionPath)
	if errors.Is(errRaw, fs.ErrNotExist) {
		return nil, dfapi.ErrorCatalogInvalid(versionPath, "referenced version file does not exist")
	}
	if errRaw != nil {
		return nil, dfapi.ErrorIo("failed to read version file", versionPath, errRaw)
	}

	versionCapsule := dfapi.DatasetVersionCapsule{}
	_, errRaw = ipld.Unmarshal(versionBytes, json.Decode, &versionCapsule, dfapi.TypeSystem.TypeByName("DatasetVersionCapsule"))
	if errRaw != nil {
		return nil, dfapi.ErrorCatalogParse(versionPath, errRaw)
	}
	if versionCapsule.DatasetVersion == nil {
		return nil, dfapi.ErrorCatalogParse(versionPath, fmt.Errorf("no v1 DatasetVersion in DatasetVersionCapsule"))
	}
	dv := versionCapsule.DatasetVersion

	// ensure this matches the expected value
	if dv.Cid() != versionCid {
		return nil, dfapi.ErrorCatalogInvalid(versionPath,
			fmt.Sprintf("expected CID %q for version, actual CID is %q", versionCid, dv.Cid()))
	}

	return dv, nil
}

// SaveDataset writes a dataset record, creating or replacing it.
// The project must exist.
//
// Errors:
//
//    - dataforge-error-project-not-found -- when the project does not exist
//    - dataforge-error-io -- when reading or writing files fails
//    - dataforge-error-serialization -- when serializing the record fails
//    - dataforge-error-catalog-parse -- when parsing the project record fails
func (ms *Metastore) SaveDataset(ref dfapi.DatasetRef, ds *dfapi.Dataset) error {
	if _, err := ms.GetProject(ref.Namespace, ref.Project); err != nil {
		return err
	}
	return ms.writeDataset(ref, ds)
}

func (ms *Metastore) writeDataset(ref dfapi.DatasetRef, ds *dfapi.Dataset) error {
	dsPath := ms.datasetFilePath(ref)
	dsCapsule := dfapi.DatasetCapsule{Dataset: ds}
	dsSerial, errRaw := ipld.Marshal(json.Encode, &dsCapsule, dfapi.TypeSystem.TypeByName("DatasetCapsule"))
	if errRaw != nil {
		return dfapi.ErrorSerialization("failed to serialize dataset", errRaw)
	}
	dsDir := filepath.Join("/", filepath.Dir(dsPath))
	if errRaw := os.MkdirAll(dsDir, 0755); errRaw != nil {
		return dfapi.ErrorIo("failed to create dataset directory", dsDir, errRaw)
	}
	if errRaw := os.WriteFile(filepath.Join("/", dsPath), dsSerial, 0644); errRaw != nil {
		return dfapi.ErrorIo("failed to write dataset file", dsPath, errRaw)
	}
	return nil
}

// AddVersion writes a version record and links it into the dataset record,
// creating the dataset record if needed.  Version names in the dataset record
// are kept naturally sorted.
//
// Errors:
//
//    - dataforge-error-project-not-found -- when the project does not exist
//    - dataforge-error-version-invalid -- when the version is not valid semver
//    - dataforge-error-already-exists -- when the version exists and overwrite is not set
//    - dataforge-error-io -- when reading or writing files fails
//    - dataforge-error-serialization -- when serializing records fails
//    - dataforge-error-catalog-parse -- when parsing the existing dataset record fails
func (ms *Metastore) AddVersion(ref dfapi.DatasetRef, dv *dfapi.DatasetVersion, overwrite bool) error {
	if !dfapi.ValidVersion(dv.Version) {
		return dfapi.ErrorVersionInvalid(string(dv.Version), "not a semantic version")
	}

	// attempt to load the dataset record; create a fresh one on dataset miss.
	ds, err := ms.GetDataset(ref)
	if err != nil {
		switch serum.Code(err) {
		case dfapi.CodeDatasetNotFound:
			ds = &dfapi.Dataset{Name: ref.Name}
			ds.Versions.Values = map[dfapi.VersionName]dfapi.VersionCID{}
		default:
			// Error Codes -= dataforge-error-dataset-not-found
			return err
		}
	}

	_, hasVersion := ds.Versions.Values[dv.Version]
	if hasVersion && !overwrite {
		return dfapi.ErrorAlreadyExists("dataset version", ms.versionFilePath(ref, dv.Version))
	}
	if !hasVersion {
		ds.Versions.Keys = append(ds.Versions.Keys, dv.Version)
	}
	ds.Versions.Values[dv.Version] = dv.Cid()

	// keep the version list naturally sorted
	versionList := []string{}
	for _, v := range ds.Versions.Keys {
		versionList = append(versionList, string(v))
	}
	natsort.Sort(versionList)
	ds.Versions.Keys = []dfapi.VersionName{}
	for _, v := range versionList {
		ds.Versions.Keys = append(ds.Versions.Keys, dfapi.VersionName(v))
	}

	// write the version record
	versionPath := filepath.Join("/", ms.versionFilePath(ref, dv.Version))
	versionsDir := filepath.Dir(versionPath)
	if errRaw := os.MkdirAll(versionsDir, 0755); errRaw != nil {
		return dfapi.ErrorIo("failed to create versions directory", versionsDir, errRaw)
	}
	versionCapsule := dfapi.DatasetVersionCapsule{DatasetVersion: dv}
	versionSerial, errRaw := ipld.Marshal(json.Encode, &versionCapsule, dfapi.TypeSystem.TypeByName("DatasetVersionCapsule"))
	if errRaw != nil {
		return dfapi.ErrorSerialization("failed to serialize version", errRaw)
	}
	if errRaw := os.WriteFile(versionPath, versionSerial, 0644); errRaw != nil {
		return dfapi.ErrorIo("failed to write version file", versionPath, errRaw)
	}

	// write the updated dataset record
	return ms.writeDataset(ref, ds)
}

// ListDatasets returns the dataset names within one project.
// Temp datasets are always excluded; listing datasets are excluded unless
// includeListing is set.
//
// Errors:
//
//    - dataforge-error-project-not-found -- when the project does not exist
//    - dataforge-error-io -- when listing the project directory fails
//    - dataforge-error-catalog-parse -- when parsing the project record fails
func (ms *Metastore) ListDatasets(namespace dfapi.NamespaceName, project dfapi.ProjectName, includeListing bool) ([]dfapi.DatasetName, error) {
	if _, err := ms.GetProject(namespace, project); err != nil {
		return nil, err
	}

	projDir := filepath.Dir(ms.projectFilePath(namespace, project))
	entries, errRaw := fs.ReadDir(ms.fsys, projDir)
	if errRaw != nil {
		return nil, dfapi.ErrorIo("failed to read project dir", projDir, errRaw)
	}

	var list []dfapi.DatasetName
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := dfapi.DatasetName(e.Name())
		if IsTempName(name) {
			continue
		}
		if IsListingName(name) && !includeListing {
			continue
		}
		marker := filepath.Join(projDir, e.Name(), magicDatasetFilename)
		if _, err := fs.Stat(ms.fsys, marker); err != nil {
			continue
		}
		list = append(list, name)
	}
	return list, nil
}

// ListDatasetsVersions returns one row per dataset version across every
// project in the store.  Filtering follows ListDatasets.
//
// Errors:
//
//    - dataforge-error-io -- when reading the store fails
//    - dataforge-error-catalog-parse -- when parsing a record fails
//    - dataforge-error-catalog-invalid -- when a version record does not match its CID
func (ms *Metastore) ListDatasetsVersions(includeListing bool) ([]VersionedDataset, error) {
	var out []VersionedDataset
	for _, key := range ms.projectList {
		names, err := ms.ListDatasets(key.namespace, key.project, includeListing)
		if err != nil {
			// Error Codes -= dataforge-error-project-not-found
			if serum.Code(err) == dfapi.CodeProjectNotFound {
				continue
			}
			return nil, err
		}
		for _, name := range names {
			ref := dfapi.DatasetRef{Namespace: key.namespace, Project: key.project, Name: name}
			ds, err := ms.GetDataset(ref)
			if err != nil {
				return nil, err
			}
			for _, v := range ds.Versions.Keys {
				dv, err := ms.GetVersion(ref, v)
				if err != nil {
					return nil, err
				}
				out = append(out, VersionedDataset{
					Namespace: key.namespace,
					Project:   key.project,
					Dataset:   ds,
					Version:   dv,
				})
			}
		}
	}
	return out, nil
}

// RemoveDataset removes one version of a dataset, or the whole dataset.
//
// When force is set, the entire dataset is removed and any version argument
// is ignored.  Otherwise a specific version is removed; an empty version
// means the latest.  Removing the last version removes the dataset record.
//
// Errors:
//
//    - dataforge-error-project-not-found -- when the project does not exist
//    - dataforge-error-dataset-not-found -- when the dataset does not exist
//    - dataforge-error-dataset-version-not-found -- when the version does not exist
//    - dataforge-error-io -- when removing files fails
//    - dataforge-error-serialization -- when rewriting the dataset record fails
//    - dataforge-error-catalog-parse -- when parsing the dataset record fails
func (ms *Metastore) RemoveDataset(ref dfapi.DatasetRef, version dfapi.VersionName, force bool) error {
	ds, err := ms.GetDataset(ref)
	if err != nil {
		return err
	}
	dsDir := filepath.Join("/", filepath.Dir(ms.datasetFilePath(ref)))

	if force {
		// the whole dataset goes, explicit version notwithstanding.
		if errRaw := os.RemoveAll(dsDir); errRaw != nil {
			return dfapi.ErrorIo("failed to remove dataset directory", dsDir, errRaw)
		}
		return nil
	}

	if version == "" {
		version = dfapi.LatestVersion(ds.Versions.Keys)
	}
	if _, hasVersion := ds.Versions.Values[version]; !hasVersion {
		return dfapi.ErrorDatasetVersionNotFound(ref.FullName(), string(version))
	}

	versionPath := filepath.Join("/", ms.versionFilePath(ref, version))
	if errRaw := os.Remove(versionPath); errRaw != nil && !errors.Is(errRaw, fs.ErrNotExist) {
		return dfapi.ErrorIo("failed to remove version file", versionPath, errRaw)
	}

	keys := []dfapi.VersionName{}
	for _, v := range ds.Versions.Keys {
		if v != version {
			keys = append(keys, v)
		}
	}
	ds.Versions.Keys = keys
	delete(ds.Versions.Values, version)

	if len(ds.Versions.Keys) == 0 {
		// last version removed; drop the record too.
		if errRaw := os.RemoveAll(dsDir); errRaw != nil {
			return dfapi.ErrorIo("failed to remove dataset directory", dsDir, errRaw)
		}
		return nil
	}
	return ms.writeDataset(ref, ds)
}
