package chain

import (
	"context"
	"strings"

	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/dab"
	"github.com/datatools/dataforge/pkg/metastore"
	"github.com/datatools/dataforge/pkg/query"
)

// ListOptions configure Datasets and Listings.
type ListOptions struct {
	// Session scopes the listing; the process default session is used when nil.
	Session *query.Session
	// Remote lists the remote registry instead of the local metastore.
	Remote bool
	// IncludeListing includes cached storage-listing ("lst-") datasets.
	IncludeListing bool
	// Attrs filters to datasets satisfying every given attr predicate
	// ("name", "name=value", or "name=*").
	Attrs []string
	// Flatten yields one column per DatasetInfo field instead of a single
	// structured "dataset" column.
	Flatten bool
}

// Datasets returns a value-backed chain with one row per registered dataset
// version.  Temp datasets never appear.
//
// Errors:
//
// 	- dataforge-error-io -- when reading the local store fails
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-git -- when updating a git registry fails
// 	- dataforge-error-serialization -- when copying process state fails
// 	- dataforge-error-searching-filesystem -- when workspace detection fails
// 	- dataforge-error-workspace -- when the workspace cannot be opened
// 	- dataforge-error-catalog-invalid -- when a store is in an invalid state
func Datasets(ctx context.Context, opts ListOptions) (*Chain, error) {
	sess := opts.Session
	if sess == nil {
		var err error
		sess, err = query.DefaultSession(ctx)
		if err != nil {
			return nil, err
		}
	}
	rows, err := sess.Catalog().ListDatasetsVersions(ctx, opts.IncludeListing, opts.Remote)
	if err != nil {
		return nil, err
	}

	var infos []DatasetInfo
	for _, row := range rows {
		if !matchAllAttrs(opts.Attrs, row.Dataset.Attrs) {
			continue
		}
		infos = append(infos, DatasetInfo{
			Name:       row.Dataset.Name,
			Namespace:  row.Namespace,
			Project:    row.Project,
			Version:    row.Version.Version,
			Uuid:       row.Version.Uuid,
			Attrs:      row.Dataset.Attrs,
			CreatedAt:  row.Version.CreatedAt,
			NumObjects: row.Version.NumObjects,
			Size:       row.Version.Size,
			IsTemp:     metastore.IsTempName(row.Dataset.Name),
		})
	}
	return infoChain(infos, opts.Flatten), nil
}

// Listings returns a value-backed chain of the cached storage-listing
// datasets (the "lst-" prefixed ones) only.
//
// Errors:
//
// 	- dataforge-error-io -- when reading the local store fails
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-git -- when updating a git registry fails
// 	- dataforge-error-serialization -- when copying process state fails
// 	- dataforge-error-searching-filesystem -- when workspace detection fails
// 	- dataforge-error-workspace -- when the workspace cannot be opened
// 	- dataforge-error-catalog-invalid -- when a store is in an invalid state
func Listings(ctx context.Context, opts ListOptions) (*Chain, error) {
	opts.IncludeListing = true
	c, err := Datasets(ctx, opts)
	if err != nil {
		return nil, err
	}
	kept := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		if recordIsListing(rec) {
			kept = append(kept, rec)
		}
	}
	c.records = kept
	return c, nil
}

func recordIsListing(rec Record) bool {
	if info, ok := rec["dataset"].(DatasetInfo); ok {
		return metastore.IsListingName(info.Name)
	}
	if name, ok := rec["name"].(string); ok {
		return strings.HasPrefix(name, metastore.ListingDatasetPrefix)
	}
	return false
}

func matchAllAttrs(predicates, attrs []string) bool {
	for _, p := range predicates {
		if !dfapi.MatchAttr(p, attrs) {
			return false
		}
	}
	return true
}

func infoChain(infos []DatasetInfo, flatten bool) *Chain {
	records := make([]Record, 0, len(infos))
	var schema *dfapi.SignalSchema
	if flatten {
		schema = dfapi.SignalSchemaFromPairs([][2]string{
			{"name", "str"},
			{"namespace", "str"},
			{"project", "str"},
			{"version", "str"},
			{"uuid", "str"},
			{"attrs", "list[str]"},
			{"createdAt", "str"},
			{"numObjects", "int"},
			{"size", "int"},
			{"isTemp", "bool"},
		})
		for _, info := range infos {
			records = append(records, Record{
				"name":       string(info.Name),
				"namespace":  string(info.Namespace),
				"project":    string(info.Project),
				"version":    string(info.Version),
				"uuid":       info.Uuid,
				"attrs":      info.Attrs,
				"createdAt":  info.CreatedAt,
				"numObjects": info.NumObjects,
				"size":       info.Size,
				"isTemp":     info.IsTemp,
			})
		}
	} else {
		schema = dfapi.SignalSchemaFromPairs([][2]string{{"dataset", "struct"}})
		for _, info := range infos {
			records = append(records, Record{"dataset": info})
		}
	}
	return newValueChain(records, schema, dfapi.Settings{})
}

// DeleteOptions configure DeleteDataset.
type DeleteOptions struct {
	// Session scopes the delete; the process default session is used when nil.
	Session *query.Session
	// Namespace and Project override the session catalog's defaults for
	// unqualified names.  A fully qualified name wins over either.
	Namespace string
	Project   string
	// Version selects the version to remove; empty means the latest.
	Version dfapi.VersionName
	// Force removes every version, ignoring any explicit Version.
	Force bool
	// Remote deletes from the remote registry instead of the local store.
	// Only honored for namespaces the workspace does not own locally.
	Remote bool
}

// DeleteDataset removes a dataset version, or the whole dataset with Force.
//
// Errors:
//
// 	- dataforge-error-name-invalid -- when the name does not parse
// 	- dataforge-error-dataset-not-found -- when no store has the dataset
// 	- dataforge-error-dataset-version-not-found -- when the version is missing
// 	- dataforge-error-io -- when store writes fail
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-registry-unsupported -- when the registry is read-only
// 	- dataforge-error-serialization -- when rewriting records fails
// 	- dataforge-error-searching-filesystem -- when workspace detection fails
// 	- dataforge-error-workspace -- when the workspace cannot be opened
// 	- dataforge-error-catalog-invalid -- when a store is in an invalid state
func DeleteDataset(ctx context.Context, name string, opts DeleteOptions) error {
	sess := opts.Session
	if sess == nil {
		var err error
		sess, err = query.DefaultSession(ctx)
		if err != nil {
			return err
		}
	}
	cat := sess.Catalog()
	namespace, project := cat.DefaultNamespaceName(), cat.DefaultProjectName()
	if opts.Namespace != "" {
		namespace = opts.Namespace
	}
	if opts.Project != "" {
		project = opts.Project
	}
	ref, err := dab.ParseDatasetRef(name, namespace, project)
	if err != nil {
		return err
	}
	if ref.Version == "" {
		ref.Version = opts.Version
	}

	if opts.Remote {
		local, err := cat.IsLocalNamespace(ref.Namespace)
		if err != nil {
			return err
		}
		if !local {
			return cat.RemoveDataset(ctx, ref, opts.Force, true)
		}
	}

	err = cat.RemoveDataset(ctx, ref, opts.Force, false)
	if serum.Code(err) == dfapi.CodeProjectNotFound {
		// the caller named a dataset; report it as the thing not found.
		return dfapi.ErrorDatasetNotFoundCause(ref.FullName(), err)
	}
	return err
}
