package remote

import (
	"context"

	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
)

// RemoteDataset is one row of a registry listing.
type RemoteDataset struct {
	Namespace dfapi.NamespaceName
	Project   dfapi.ProjectName
	Dataset   *dfapi.Dataset
}

// Registry is a remote dataset registry: a read-mostly mirror of the
// metastore layout hosted somewhere else.  Lookups that miss locally may be
// served from here, and removals may be forwarded here.
type Registry interface {
	// Kind returns a short identifier for the backing store ("s3", "git", "mock").
	Kind() string

	// GetDataset fetches a dataset record.
	//
	// Errors:
	//
	// 	- dataforge-error-dataset-not-found -- when the registry has no such dataset
	// 	- dataforge-error-catalog-parse -- when the remote record cannot be parsed
	// 	- dataforge-error-registry -- when talking to the registry fails
	GetDataset(ctx context.Context, ref dfapi.DatasetRef) (*dfapi.Dataset, error)

	// GetVersion fetches the version record named by ref.Version.
	//
	// Errors:
	//
	// 	- dataforge-error-dataset-version-not-found -- when the registry has no such version
	// 	- dataforge-error-catalog-parse -- when the remote record cannot be parsed
	// 	- dataforge-error-registry -- when talking to the registry fails
	GetVersion(ctx context.Context, ref dfapi.DatasetRef) (*dfapi.DatasetVersion, error)

	// ListDatasets returns every dataset record the registry holds.
	//
	// Errors:
	//
	// 	- dataforge-error-catalog-parse -- when a remote record cannot be parsed
	// 	- dataforge-error-registry -- when talking to the registry fails
	ListDatasets(ctx context.Context) ([]RemoteDataset, error)

	// RemoveDataset removes the version named by ref.Version (or the latest,
	// when unset), or the whole dataset when force is set.
	//
	// Errors:
	//
	// 	- dataforge-error-dataset-not-found -- when the registry has no such dataset
	// 	- dataforge-error-dataset-version-not-found -- when the registry has no such version
	// 	- dataforge-error-registry -- when talking to the registry fails
	// 	- dataforge-error-registry-unsupported -- when the backing store is read-only
	RemoveDataset(ctx context.Context, ref dfapi.DatasetRef, force bool) error
}

// FromConfig builds the registry selected by a workspace's registry config.
// The cachePath parameter is the workspace's registry cache directory;
// only the git backend uses it.
//
// Errors:
//
// 	- dataforge-error-registry -- when the config selects no backend or the backend cannot be reached
// 	- dataforge-error-git -- when cloning or updating a git registry fails
func FromConfig(ctx context.Context, cfg dfapi.RegistryConfig, cachePath string) (Registry, error) {
	switch {
	case cfg.S3 != nil:
		registry, err := newS3Registry(ctx, *cfg.S3)
		return &registry, err
	case cfg.Git != nil:
		registry, err := newGitRegistry(ctx, *cfg.Git, cachePath)
		return &registry, err
	case cfg.Mock != nil:
		registry := newMockRegistry()
		return registry, nil
	}
	return nil, serum.Error(dfapi.CodeRegistry,
		serum.WithMessageLiteral("registry config selects no backend: one of s3, git, or mock must be set"),
	)
}
