package query

import (
	"context"

	"github.com/serum-errors/go-serum"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/dab"
	"github.com/datatools/dataforge/pkg/tracing"
)

// DatasetQuery is a resolved handle on one dataset version.  Construction
// already fetches the dataset record (so bad names and missing datasets fail
// early), but version records and anything heavier stay lazy.
type DatasetQuery struct {
	sess      *Session
	ref       dfapi.DatasetRef
	fallback  bool
	hints     [][2]string
	namespace string
	project   string

	ds     *dfapi.Dataset
	schema *dfapi.SignalSchema
}

// QueryOption configures NewDatasetQuery.
type QueryOption func(*DatasetQuery)

// WithFallback controls whether a local miss consults the remote registry.
// Fallback is on by default.
func WithFallback(enabled bool) QueryOption {
	return func(q *DatasetQuery) { q.fallback = enabled }
}

// WithColumnHints layers field/type pairs over the dataset's derived schema.
func WithColumnHints(hints [][2]string) QueryOption {
	return func(q *DatasetQuery) { q.hints = hints }
}

// WithScope overrides the catalog's default namespace and project when
// resolving an unqualified name.  Empty strings keep the catalog defaults.
// A fully qualified name wins over either.
func WithScope(namespace, project string) QueryOption {
	return func(q *DatasetQuery) { q.namespace, q.project = namespace, project }
}

// NewDatasetQuery parses the dataset name against the session's defaults
// (or the WithScope overrides), resolves any major-version selector, and
// fetches the dataset record.
//
// Errors:
//
// 	- dataforge-error-name-invalid -- when the name does not parse
// 	- dataforge-error-dataset-not-found -- when no store has the dataset
// 	- dataforge-error-dataset-version-not-found -- when a version selector matches nothing
// 	- dataforge-error-project-not-found -- when the project is missing and fallback is off
// 	- dataforge-error-io -- when reading records fails
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-catalog-invalid -- when a store is in an invalid state
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-git -- when updating a git registry fails
func NewDatasetQuery(ctx context.Context, sess *Session, name string, opts ...QueryOption) (*DatasetQuery, error) {
	ctx, span := tracing.StartFn(ctx, "NewDatasetQuery",
		trace.WithAttributes(attribute.String(tracing.AttrKeyDataforgeDatasetRef, name)),
	)
	var err error
	defer func() { tracing.EndWithStatus(span, err) }()

	cat := sess.Catalog()
	q := &DatasetQuery{sess: sess, fallback: true}
	for _, opt := range opts {
		opt(q)
	}
	namespace, project := cat.DefaultNamespaceName(), cat.DefaultProjectName()
	if q.namespace != "" {
		namespace = q.namespace
	}
	if q.project != "" {
		project = q.project
	}
	q.ref, err = dab.ParseDatasetRef(name, namespace, project)
	if err != nil {
		return nil, err
	}
	q.ref, q.ds, err = ResolveVersion(ctx, cat, q.ref, q.fallback)
	if err != nil {
		return nil, err
	}
	q.schema = dfapi.DeriveSignalSchema(q.ds)
	for _, h := range q.hints {
		q.schema.Set(h[0], h[1])
	}
	return q, nil
}

// ResolveVersion resolves a ref's version field against the catalog and
// returns the ref alongside the dataset record used to resolve it.
// An integer version is a major-version selector and resolves to the highest
// matching semantic version; project-not-found during selector resolution is
// re-raised as dataset-not-found since the caller named a dataset, not a
// project.  Empty and non-numeric versions pass through unchanged.
//
// Errors:
//
// 	- dataforge-error-dataset-not-found -- when no store has the dataset
// 	- dataforge-error-dataset-version-not-found -- when the selector matches nothing
// 	- dataforge-error-project-not-found -- when the project is missing and fallback is off
// 	- dataforge-error-io -- when reading records fails
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
// 	- dataforge-error-catalog-invalid -- when a store is in an invalid state
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-git -- when updating a git registry fails
func ResolveVersion(ctx context.Context, cat *Catalog, ref dfapi.DatasetRef, fallback bool) (dfapi.DatasetRef, *dfapi.Dataset, error) {
	getRef := ref
	getRef.Version = ""
	ds, err := cat.GetDataset(ctx, getRef, fallback)
	if err != nil {
		if serum.Code(err) == dfapi.CodeProjectNotFound {
			err = dfapi.ErrorDatasetNotFoundCause(ref.FullName(), err)
		}
		return ref, nil, err
	}
	major, ok := dfapi.MajorVersionSelector(string(ref.Version))
	if !ok {
		return ref, ds, nil
	}
	version := dfapi.LatestMajorVersion(ds.Versions.Keys, major)
	if version == "" {
		return ref, nil, dfapi.ErrorDatasetMajorVersionNotFound(ref.FullName(), major)
	}
	ref.Version = version
	return ref, ds, nil
}

// Session returns the session the query belongs to.
func (q *DatasetQuery) Session() *Session {
	return q.sess
}

// Ref returns the fully resolved dataset ref, version selectors included.
func (q *DatasetQuery) Ref() dfapi.DatasetRef {
	return q.ref
}

// Dataset returns the dataset record fetched at construction.
func (q *DatasetQuery) Dataset() *dfapi.Dataset {
	return q.ds
}

// SignalSchema returns the dataset's effective schema with any column hints
// applied.  The returned schema is owned by the query; copy before mutating.
func (q *DatasetQuery) SignalSchema() *dfapi.SignalSchema {
	return q.schema
}

// FeatureSchema returns the record's declared feature schema, or nil when
// the dataset has none.
func (q *DatasetQuery) FeatureSchema() *dfapi.SignalSchema {
	if q.ds.FeatureSchema == nil || len(q.ds.FeatureSchema.Keys) == 0 {
		return nil
	}
	s := dfapi.NewSignalSchema()
	for _, k := range q.ds.FeatureSchema.Keys {
		s.Set(k, q.ds.FeatureSchema.Values[k])
	}
	return s
}

// ColumnTypes returns the record's inferred column types, or nil when the
// dataset has none.
func (q *DatasetQuery) ColumnTypes() *dfapi.SignalSchema {
	if q.ds.ColumnTypes == nil {
		return nil
	}
	s := dfapi.NewSignalSchema()
	for _, k := range q.ds.ColumnTypes.Keys {
		s.Set(k, q.ds.ColumnTypes.Values[k])
	}
	return s
}

// Version fetches the version record for the resolved ref; the query's
// latest version is used when no version was requested.
//
// Errors:
//
// 	- dataforge-error-dataset-version-not-found -- when the version is missing
// 	- dataforge-error-io -- when reading the record fails
// 	- dataforge-error-catalog-parse -- when the record cannot be parsed
// 	- dataforge-error-catalog-invalid -- when the stored CID does not match
func (q *DatasetQuery) Version(ctx context.Context) (*dfapi.DatasetVersion, error) {
	version := q.ref.Version
	if version == "" {
		version = dfapi.LatestVersion(q.ds.Versions.Keys)
		if version == "" {
			return nil, dfapi.ErrorDatasetVersionNotFound(q.ref.FullName(), "latest")
		}
	}
	return q.sess.Catalog().Metastore().GetVersion(q.ref, version)
}
