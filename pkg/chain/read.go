package chain

import (
	"context"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/query"
)

// ReadOptions configure ReadDataset.
type ReadOptions struct {
	// Session scopes the read; the process default session is used when nil.
	Session *query.Session
	// Namespace and Project override the session catalog's defaults for
	// unqualified names.  A fully qualified name wins over either.
	Namespace string
	Project   string
	// NoFallback disables consulting the remote registry on a local miss.
	NoFallback bool
	// ColumnHints layers field/type pairs over the dataset's derived schema.
	ColumnHints [][2]string
	// Settings tune downstream scheduling.
	Settings dfapi.Settings
	// Delta switches the chain to delta semantics against the previous version.
	Delta *DeltaConfig
}

// ReadDataset resolves a dataset identifier (optionally version-suffixed,
// e.g. "prod.vision.cats@2") into a lazy chain over its records.
//
// Errors:
//
// 	- dataforge-error-name-invalid -- when the name does not parse
// 	- dataforge-error-dataset-not-found -- when no store has the dataset
// 	- dataforge-error-dataset-version-not-found -- when a version selector matches nothing
// 	- dataforge-error-project-not-found -- when the project is missing and fallback is off
// 	- dataforge-error-settings-invalid -- when a setting fails validation
// 	- dataforge-error-delta-invalid -- when the delta config fails validation
// 	- dataforge-error-io -- when reading records fails
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-catalog-invalid -- when a store is in an invalid state
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-git -- when updating a git registry fails
// 	- dataforge-error-serialization -- when copying process state fails
// 	- dataforge-error-searching-filesystem -- when workspace detection fails
// 	- dataforge-error-workspace -- when the workspace cannot be opened
func ReadDataset(ctx context.Context, name string, opts ReadOptions) (*Chain, error) {
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}
	sess := opts.Session
	if sess == nil {
		var err error
		sess, err = query.DefaultSession(ctx)
		if err != nil {
			return nil, err
		}
	}

	q, err := query.NewDatasetQuery(ctx, sess, name,
		query.WithScope(opts.Namespace, opts.Project),
		query.WithFallback(!opts.NoFallback),
		query.WithColumnHints(opts.ColumnHints),
	)
	if err != nil {
		return nil, err
	}

	c := &Chain{
		query:    q,
		settings: opts.Settings,
		schema:   q.SignalSchema(),
	}
	if opts.Delta != nil {
		return c.AsDelta(ctx, *opts.Delta)
	}
	return c, nil
}
