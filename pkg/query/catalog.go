package query

import (
	"context"

	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/logging"
	"github.com/datatools/dataforge/pkg/metastore"
	"github.com/datatools/dataforge/pkg/remote"
	"github.com/datatools/dataforge/pkg/tracing"
	"github.com/datatools/dataforge/pkg/workspace"
)

// Catalog is the coordination facade over one workspace's metastore and its
// configured remote registry.  It owns name defaults, remote fallback, and
// record import; storage details stay in the metastore and remote packages.
type Catalog struct {
	ws               *workspace.Workspace
	store            metastore.Metastore
	registry         remote.Registry // nil until first use; stays nil when unconfigured.
	registryLoaded   bool
	defaultNamespace string
	defaultProject   string
}

// NewCatalog opens the workspace's metastore and binds name defaults.
//
// Errors:
//
// 	- dataforge-error-io -- when opening the metastore fails
// 	- dataforge-error-catalog-invalid -- when the metastore is in an invalid state
func NewCatalog(ws *workspace.Workspace, defaultNamespace, defaultProject string) (*Catalog, error) {
	store, err := ws.OpenMetastore()
	if err != nil {
		return nil, err
	}
	return &Catalog{
		ws:               ws,
		store:            store,
		defaultNamespace: defaultNamespace,
		defaultProject:   defaultProject,
	}, nil
}

// Workspace returns the workspace this catalog operates on.
func (cat *Catalog) Workspace() *workspace.Workspace {
	return cat.ws
}

// Metastore returns the catalog's local store.
func (cat *Catalog) Metastore() *metastore.Metastore {
	return &cat.store
}

// DefaultNamespaceName returns the namespace applied to unqualified names.
func (cat *Catalog) DefaultNamespaceName() string {
	return cat.defaultNamespace
}

// DefaultProjectName returns the project applied to unqualified names.
func (cat *Catalog) DefaultProjectName() string {
	return cat.defaultProject
}

// IsLocalNamespace reports whether the namespace is owned by the local
// workspace rather than the remote registry.
//
// Errors:
//
// 	- dataforge-error-io -- for errors reading the registry config.
// 	- dataforge-error-catalog-parse -- when parsing the registry config fails.
func (cat *Catalog) IsLocalNamespace(namespace dfapi.NamespaceName) (bool, error) {
	return cat.ws.IsLocalNamespace(namespace)
}

// Registry returns the workspace's configured remote registry,
// or nil when the workspace has none.  The registry is built on first use
// and cached for the catalog's lifetime.
//
// Errors:
//
// 	- dataforge-error-io -- for errors reading the registry config
// 	- dataforge-error-catalog-parse -- when parsing the registry config fails
// 	- dataforge-error-registry -- when the configured backend cannot be reached
// 	- dataforge-error-git -- when cloning or updating a git registry fails
func (cat *Catalog) Registry(ctx context.Context) (remote.Registry, error) {
	if cat.registryLoaded {
		return cat.registry, nil
	}
	cfg, err := cat.ws.GetRegistryConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cat.registryLoaded = true
		return nil, nil
	}
	registry, err := remote.FromConfig(ctx, *cfg, cat.ws.RegistryCachePath())
	if err != nil {
		return nil, err
	}
	cat.registry = registry
	cat.registryLoaded = true
	return registry, nil
}

// GetDataset fetches a dataset record from the local store; when the local
// store misses and fallback is enabled, the remote registry is consulted and
// a hit is imported into the local store before returning.
//
// Errors:
//
// 	- dataforge-error-dataset-not-found -- when neither store has the dataset
// 	- dataforge-error-project-not-found -- when the local project is missing and fallback is off
// 	- dataforge-error-io -- when reading or importing records fails
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-catalog-invalid -- when a store is in an invalid state
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-git -- when updating a git registry fails
func (cat *Catalog) GetDataset(ctx context.Context, ref dfapi.DatasetRef, fallback bool) (*dfapi.Dataset, error) {
	ds, err := cat.store.GetDataset(ref)
	if err == nil {
		return ds, nil
	}
	switch serum.Code(err) {
	case dfapi.CodeDatasetNotFound, dfapi.CodeProjectNotFound:
		// local miss; maybe the registry has it.
	default:
		return nil, err
	}
	if !fallback {
		return nil, err
	}
	registry, e2 := cat.Registry(ctx)
	if e2 != nil {
		return nil, e2
	}
	if registry == nil {
		return nil, err // no registry configured; the local miss stands.
	}
	return cat.PullDataset(ctx, ref, ref)
}

// PullDataset imports a dataset record (and all its version records, or just
// the one named by remoteRef.Version) from the remote registry into the local
// store under localRef's coordinates.
//
// Errors:
//
// 	- dataforge-error-dataset-not-found -- when the registry has no such dataset
// 	- dataforge-error-dataset-version-not-found -- when the registry has no such version
// 	- dataforge-error-name-invalid -- when localRef carries an invalid name
// 	- dataforge-error-version-invalid -- when an imported version is not valid semver
// 	- dataforge-error-io -- when writing imported records fails
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-registry -- when talking to the registry fails
func (cat *Catalog) PullDataset(ctx context.Context, remoteRef, localRef dfapi.DatasetRef) (*dfapi.Dataset, error) {
	log := logging.Ctx(ctx)
	ctx, span := tracing.StartFn(ctx, "PullDataset")
	var err error
	defer func() { tracing.EndWithStatus(span, err) }()

	registry, err := cat.Registry(ctx)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		err = dfapi.ErrorDatasetNotFound(remoteRef.FullName())
		return nil, err
	}

	remoteDs, err := registry.GetDataset(ctx, remoteRef)
	if err != nil {
		return nil, err
	}

	versions := remoteDs.Versions.Keys
	if remoteRef.Version != "" {
		versions = []dfapi.VersionName{remoteRef.Version}
	}

	// Make sure the destination project exists; already-exists is fine.
	if _, err = cat.store.CreateProject(localRef.Namespace, localRef.Project); err != nil {
		if serum.Code(err) != dfapi.CodeAlreadyExists {
			return nil, err
		}
		err = nil
	}

	log.Info("pull", "importing %s (%d versions) from %s registry", remoteRef.FullName(), len(versions), registry.Kind())
	for _, version := range versions {
		vRef := remoteRef
		vRef.Version = version
		dv, e2 := registry.GetVersion(ctx, vRef)
		if e2 != nil {
			err = e2
			return nil, err
		}
		localVersion := localRef
		localVersion.Version = version
		if err = cat.store.AddVersion(localVersion, dv, true); err != nil {
			return nil, err
		}
	}

	localGet := localRef
	localGet.Version = ""
	ds, err := cat.store.GetDataset(localGet)
	if err != nil {
		return nil, err
	}
	// Carry the remote record's descriptive fields over.
	ds.Description = remoteDs.Description
	ds.Attrs = remoteDs.Attrs
	ds.FeatureSchema = remoteDs.FeatureSchema
	ds.ColumnTypes = remoteDs.ColumnTypes
	if err = cat.store.SaveDataset(localGet, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// ListDatasetsVersions returns one row per dataset version.  When useRemote
// is set the rows come from the remote registry instead of the local store.
// Temp (session-owned) datasets never appear; listing datasets appear only
// when includeListing is set.
//
// Errors:
//
// 	- dataforge-error-io -- when reading the local store fails
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-git -- when updating a git registry fails
func (cat *Catalog) ListDatasetsVersions(ctx context.Context, includeListing, useRemote bool) ([]metastore.VersionedDataset, error) {
	if !useRemote {
		return cat.store.ListDatasetsVersions(includeListing)
	}

	registry, err := cat.Registry(ctx)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, serum.Error(dfapi.CodeRegistry,
			serum.WithMessageLiteral("no remote registry is configured for this workspace"),
		)
	}
	rows, err := registry.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	var result []metastore.VersionedDataset
	for _, row := range rows {
		if metastore.IsTempName(row.Dataset.Name) {
			continue
		}
		if !includeListing && metastore.IsListingName(row.Dataset.Name) {
			continue
		}
		for _, version := range row.Dataset.Versions.Keys {
			ref := dfapi.DatasetRef{
				Namespace: row.Namespace,
				Project:   row.Project,
				Name:      row.Dataset.Name,
				Version:   version,
			}
			dv, err := registry.GetVersion(ctx, ref)
			if err != nil {
				return nil, err
			}
			result = append(result, metastore.VersionedDataset{
				Namespace: row.Namespace,
				Project:   row.Project,
				Dataset:   row.Dataset,
				Version:   dv,
			})
		}
	}
	return result, nil
}

// RemoveDataset removes a dataset version (or all versions with force) from
// the local store, or from the remote registry when remoteOnly is set.
//
// Errors:
//
// 	- dataforge-error-dataset-not-found -- when no store has the dataset
// 	- dataforge-error-dataset-version-not-found -- when the version is missing
// 	- dataforge-error-project-not-found -- when the local project is missing
// 	- dataforge-error-io -- when store writes fail
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-registry-unsupported -- when the registry is read-only
func (cat *Catalog) RemoveDataset(ctx context.Context, ref dfapi.DatasetRef, force, remoteOnly bool) error {
	if remoteOnly {
		registry, err := cat.Registry(ctx)
		if err != nil {
			return err
		}
		if registry == nil {
			return serum.Error(dfapi.CodeRegistry,
				serum.WithMessageLiteral("no remote registry is configured for this workspace"),
			)
		}
		return registry.RemoveDataset(ctx, ref, force)
	}
	return cat.store.RemoveDataset(ref, ref.Version, force)
}
