package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/json"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/dab"
	"github.com/datatools/dataforge/pkg/metastore"
)

const (
	magicRegistryFilename = dab.MagicFilename_Registry
	metastoreDirname      = "metastore"
	registryCacheDirname  = "registry-cache"
)

type Workspace struct {
	fsys            fs.FS  // the fs.  (Most of the application is expected to use just one of these, but it's always configurable, largely for tests.)
	rootPath        string // workspace root path -- *not* including the magicWorkspaceDirname segment on the end.
	isHomeWorkspace bool   // if it's the ultimate workspace (the one in your homedir).
	isRootWorkspace bool   // if it's a root workspace.
}

// OpenWorkspace returns a pointer to a Workspace object.
// It does a basic check that the workspace exists on the filesystem, but little other work;
// most info loading will be done on-demand later.
//
// OpenWorkspace assumes it will find a workspace exactly where you say; it doesn't search.
// Consider using FindWorkspace or FindWorkspaceStack in most application code.
//
// An fsys handle is required, but is typically `os.DirFS("/")` outside of tests.
//
// Errors:
//
//    - dataforge-error-workspace -- when the workspace directory fails to open
func OpenWorkspace(fsys fs.FS, rootPath string) (*Workspace, error) {
	_, err := statDir(fsys, filepath.Join(rootPath, magicWorkspaceDirname))
	if err != nil {
		return nil, dfapi.ErrorWorkspace(rootPath, err)
	}
	return openWorkspace(fsys, rootPath), nil
}

// openWorkspace is the same as the public method, but with no error checking at all;
// it presumes you've already done that (as most of the Find methods have).
//
// Changing the filesystem or home directory won't affect the status of whether this workspace
// is considered a root workspace or the home workspace respectively after opening.
func openWorkspace(fsys fs.FS, rootPath string) *Workspace {
	rootPath = filepath.Clean(rootPath)
	return &Workspace{
		fsys:            fsys,
		rootPath:        rootPath,
		isRootWorkspace: checkIsRootWorkspace(fsys, rootPath),
		// that's it; everything else is loaded later.
	}
}

// openHomeWorkspace is the same as the public method but with no error checking at all;
func openHomeWorkspace(fsys fs.FS) *Workspace {
	workspace := openWorkspace(fsys, homedir)
	workspace.isHomeWorkspace = true
	workspace.isRootWorkspace = true
	return workspace
}

// OpenHomeWorkspace calls OpenWorkspace on the user's homedir.
// It will error if there's no workspace files yet there (it does not create them).
//
// An fsys handle is required, but is typically `os.DirFS("/")` outside of tests.
//
// Errors:
//
//    - dataforge-error-workspace -- when the workspace directory fails to open
func OpenHomeWorkspace(fsys fs.FS) (*Workspace, error) {
	workspace, err := OpenWorkspace(fsys, homedir)
	if err == nil {
		workspace.isHomeWorkspace = true
		workspace.isRootWorkspace = true
	}
	return workspace, err
}

// InitWorkspace creates the magic directory (and an empty metastore dir)
// under the given root path.  The path is an absolute host path; this writes
// to the real filesystem.
//
// Errors:
//
//    - dataforge-error-already-exists -- when a workspace already exists there
//    - dataforge-error-io -- when creating directories fails
func InitWorkspace(rootPath string, asRoot bool) error {
	internal := filepath.Join(rootPath, magicWorkspaceDirname)
	if _, err := os.Stat(internal); err == nil {
		return dfapi.ErrorAlreadyExists("workspace", internal)
	}
	if err := os.MkdirAll(filepath.Join(internal, metastoreDirname), 0755); err != nil {
		return dfapi.ErrorIo("failed to create workspace directory", internal, err)
	}
	if asRoot {
		marker := filepath.Join(internal, rootMarkerFilename)
		if err := os.WriteFile(marker, []byte{}, 0644); err != nil {
			return dfapi.ErrorIo("failed to write root workspace marker", marker, err)
		}
	}
	return nil
}

// checkIsRootWorkspace reports whether the workspace carries the root marker file.
func checkIsRootWorkspace(fsys fs.FS, rootPath string) bool {
	marker := filepath.Join(rootPath, magicWorkspaceDirname, rootMarkerFilename)
	if filepath.IsAbs(marker) {
		marker = marker[1:]
	}
	_, err := fs.Stat(fsys, marker)
	return err == nil
}

func statDir(fsys fs.FS, path string) (fs.FileInfo, error) {
	if filepath.IsAbs(path) {
		path = path[1:]
	}
	fi, err := fs.Stat(fsys, path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}
	return fi, nil
}

// InternalPath returns the workspace's path including the magic dir segment.
func (ws *Workspace) InternalPath() string {
	return filepath.Join(ws.rootPath, magicWorkspaceDirname)
}

// Path returns the workspace's fs and path -- the directory that is its root.
// (This does *not* include the magic dir segment on the end of the path.)
func (ws *Workspace) Path() (fs.FS, string) {
	return ws.fsys, ws.rootPath
}

// IsHomeWorkspace returns true if this workspace is the one in the user's home dir.
// The home workspace is sometimes treated specially, because it's always the last one --
// it can have no parents, and is the final word for any config overrides.
func (ws *Workspace) IsHomeWorkspace() bool {
	return ws.isHomeWorkspace
}

// IsRootWorkspace returns true if the workspace is a root workspace
func (ws *Workspace) IsRootWorkspace() bool {
	return ws.isRootWorkspace
}

// MetastorePath returns the path of the workspace's metastore directory
// (e.g., `.../.dataforge/metastore`).
func (ws *Workspace) MetastorePath() string {
	return filepath.Join(ws.InternalPath(), metastoreDirname)
}

// RegistryCachePath returns the directory git-backed registries are cloned
// into (e.g., `.../.dataforge/registry-cache`).
func (ws *Workspace) RegistryCachePath() string {
	return filepath.Join("/", ws.InternalPath(), registryCacheDirname)
}

// OpenMetastore opens the workspace's dataset store.
//
// Errors:
//
// 	- dataforge-error-io -- when building the project list fails due to I/O error
// 	- dataforge-error-catalog-invalid -- when the store path exists but cannot be opened
func (ws *Workspace) OpenMetastore() (metastore.Metastore, error) {
	return metastore.OpenMetastore(ws.fsys, ws.MetastorePath())
}

// GetRegistryConfig reads the workspace's registry configuration from the
// .dataforge/registry.json config file.  Returns nil without error when the
// workspace has no registry configured.
//
// Errors:
//
// 	- dataforge-error-io -- for errors reading from fsys.
// 	- dataforge-error-catalog-parse -- when parsing the config fails.
func (ws *Workspace) GetRegistryConfig() (*dfapi.RegistryConfig, error) {
	cfgPath := filepath.Join(ws.InternalPath(), magicRegistryFilename)
	if filepath.IsAbs(cfgPath) {
		cfgPath = cfgPath[1:]
	}
	cfgBytes, err := fs.ReadFile(ws.fsys, cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, dfapi.ErrorIo("error reading registry config", cfgPath, err)
	}

	cfgCapsule := dfapi.RegistryConfigCapsule{}
	_, err = ipld.Unmarshal(cfgBytes, json.Decode, &cfgCapsule, dfapi.TypeSystem.TypeByName("RegistryConfigCapsule"))
	if err != nil {
		return nil, dfapi.ErrorCatalogParse(cfgPath, err)
	}
	if cfgCapsule.RegistryConfig == nil {
		return nil, dfapi.ErrorCatalogParse(cfgPath, fmt.Errorf("no v1 RegistryConfig in RegistryConfigCapsule"))
	}
	return cfgCapsule.RegistryConfig, nil
}

// SetRegistryConfig writes the workspace's registry configuration.
//
// Errors:
//
// 	- dataforge-error-serialization -- when serializing the config fails.
// 	- dataforge-error-io -- when writing the config file fails.
func (ws *Workspace) SetRegistryConfig(cfg *dfapi.RegistryConfig) error {
	cfgCapsule := dfapi.RegistryConfigCapsule{RegistryConfig: cfg}
	cfgSerial, err := ipld.Marshal(json.Encode, &cfgCapsule, dfapi.TypeSystem.TypeByName("RegistryConfigCapsule"))
	if err != nil {
		return dfapi.ErrorSerialization("failed to serialize registry config", err)
	}
	cfgPath := filepath.Join("/", ws.InternalPath(), magicRegistryFilename)
	if err := os.WriteFile(cfgPath, cfgSerial, 0644); err != nil {
		return dfapi.ErrorIo("failed to write registry config", cfgPath, err)
	}
	return nil
}

// IsLocalNamespace reports whether datasets under the namespace are owned by
// this workspace rather than a remote registry.  A namespace is remote when
// the workspace's registry config names it.
//
// Errors:
//
// 	- dataforge-error-io -- for errors reading the registry config.
// 	- dataforge-error-catalog-parse -- when parsing the registry config fails.
func (ws *Workspace) IsLocalNamespace(namespace dfapi.NamespaceName) (bool, error) {
	cfg, err := ws.GetRegistryConfig()
	if err != nil {
		return false, err
	}
	if cfg == nil {
		return true, nil
	}
	for _, ns := range cfg.Namespaces {
		if ns == string(namespace) {
			return false, nil
		}
	}
	return true, nil
}
