package remote

import (
	"context"

	"github.com/datatools/dataforge/dfapi"
)

// A fake registry that is intended for tests and healthcheck dry-runs.
// It holds records in memory and supports the full Registry interface.

type MockRegistry struct {
	datasets map[string]*mockEntry
	order    []string
}

type mockEntry struct {
	namespace dfapi.NamespaceName
	project   dfapi.ProjectName
	dataset   *dfapi.Dataset
	versions  map[dfapi.VersionName]*dfapi.DatasetVersion
}

func newMockRegistry() *MockRegistry {
	return &MockRegistry{datasets: map[string]*mockEntry{}}
}

// NewMockRegistry returns an empty in-memory registry.
func NewMockRegistry() *MockRegistry {
	return newMockRegistry()
}

func (reg *MockRegistry) Kind() string {
	return "mock"
}

// AddDataset installs a record (and its version records) into the registry.
func (reg *MockRegistry) AddDataset(ref dfapi.DatasetRef, ds *dfapi.Dataset, versions ...*dfapi.DatasetVersion) {
	entry, ok := reg.datasets[ref.FullName()]
	if !ok {
		entry = &mockEntry{
			namespace: ref.Namespace,
			project:   ref.Project,
			versions:  map[dfapi.VersionName]*dfapi.DatasetVersion{},
		}
		reg.datasets[ref.FullName()] = entry
		reg.order = append(reg.order, ref.FullName())
	}
	entry.dataset = ds
	for _, dv := range versions {
		entry.versions[dv.Version] = dv
	}
}

// GetDataset returns the stored record.
//
// Errors:
//
// 	- dataforge-error-dataset-not-found -- when the registry has no such dataset
func (reg *MockRegistry) GetDataset(ctx context.Context, ref dfapi.DatasetRef) (*dfapi.Dataset, error) {
	entry, ok := reg.datasets[ref.FullName()]
	if !ok {
		return nil, dfapi.ErrorDatasetNotFound(ref.FullName())
	}
	return entry.dataset, nil
}

// GetVersion returns the stored version record named by ref.Version.
//
// Errors:
//
// 	- dataforge-error-dataset-version-not-found -- when the registry has no such version
func (reg *MockRegistry) GetVersion(ctx context.Context, ref dfapi.DatasetRef) (*dfapi.DatasetVersion, error) {
	entry, ok := reg.datasets[ref.FullName()]
	if !ok {
		return nil, dfapi.ErrorDatasetVersionNotFound(ref.FullName(), string(ref.Version))
	}
	dv, ok := entry.versions[ref.Version]
	if !ok {
		return nil, dfapi.ErrorDatasetVersionNotFound(ref.FullName(), string(ref.Version))
	}
	return dv, nil
}

// ListDatasets returns every stored record, in insertion order.
//
// Errors: none -- the in-memory store cannot fail.
func (reg *MockRegistry) ListDatasets(ctx context.Context) ([]RemoteDataset, error) {
	result := make([]RemoteDataset, 0, len(reg.order))
	for _, name := range reg.order {
		entry := reg.datasets[name]
		result = append(result, RemoteDataset{
			Namespace: entry.namespace,
			Project:   entry.project,
			Dataset:   entry.dataset,
		})
	}
	return result, nil
}

// RemoveDataset removes one version (latest when ref.Version is unset),
// or the whole record when force is set.
//
// Errors:
//
// 	- dataforge-error-dataset-not-found -- when the registry has no such dataset
// 	- dataforge-error-dataset-version-not-found -- when the registry has no such version
func (reg *MockRegistry) RemoveDataset(ctx context.Context, ref dfapi.DatasetRef, force bool) error {
	entry, ok := reg.datasets[ref.FullName()]
	if !ok {
		return dfapi.ErrorDatasetNotFound(ref.FullName())
	}
	if force {
		reg.drop(ref.FullName())
		return nil
	}
	version := ref.Version
	if version == "" {
		version = dfapi.LatestVersion(entry.dataset.Versions.Keys)
	}
	if _, ok := entry.dataset.Versions.Values[version]; !ok {
		return dfapi.ErrorDatasetVersionNotFound(ref.FullName(), string(version))
	}
	keys := make([]dfapi.VersionName, 0, len(entry.dataset.Versions.Keys)-1)
	for _, k := range entry.dataset.Versions.Keys {
		if k != version {
			keys = append(keys, k)
		}
	}
	entry.dataset.Versions.Keys = keys
	delete(entry.dataset.Versions.Values, version)
	delete(entry.versions, version)
	if len(keys) == 0 {
		reg.drop(ref.FullName())
	}
	return nil
}

func (reg *MockRegistry) drop(name string) {
	delete(reg.datasets, name)
	for i, n := range reg.order {
		if n == name {
			reg.order = append(reg.order[:i], reg.order[i+1:]...)
			return
		}
	}
}
