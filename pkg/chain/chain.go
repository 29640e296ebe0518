// Package chain provides the lazy, composable handles that downstream
// execution engines consume.  A chain either wraps a resolved dataset query
// (the ReadDataset path) or carries in-memory rows (the Datasets and
// Listings paths); nothing here materializes dataset payloads.
package chain

import (
	"fmt"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/query"
)

// Record is one row of a value-backed chain.
type Record map[string]interface{}

// Chain is a lazy handle on a stream of records.  Chains are immutable;
// the composition methods return derived copies.
type Chain struct {
	query    *query.DatasetQuery
	settings dfapi.Settings
	schema   *dfapi.SignalSchema
	delta    *DeltaPlan

	// records is set only for value-backed chains.
	records []Record
}

// newValueChain builds a chain over in-memory rows.
func newValueChain(records []Record, schema *dfapi.SignalSchema, settings dfapi.Settings) *Chain {
	return &Chain{
		settings: settings,
		schema:   schema,
		records:  records,
	}
}

// Query returns the dataset query backing this chain, or nil for
// value-backed chains.
func (c *Chain) Query() *query.DatasetQuery {
	return c.query
}

// Settings returns the chain's scheduling settings.
func (c *Chain) Settings() dfapi.Settings {
	return c.settings
}

// SignalSchema returns the chain's effective schema.
func (c *Chain) SignalSchema() *dfapi.SignalSchema {
	return c.schema
}

// DeltaPlan returns the chain's resolved delta plan, or nil when the chain
// runs full.
func (c *Chain) DeltaPlan() *DeltaPlan {
	return c.delta
}

// WithSettings returns a copy of the chain with the given settings layered
// over the current ones.
//
// Errors:
//
// 	- dataforge-error-settings-invalid -- when a setting fails validation
func (c *Chain) WithSettings(settings dfapi.Settings) (*Chain, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	derived := *c
	derived.settings = c.settings.Override(settings)
	return &derived, nil
}

// Records returns the rows of a value-backed chain.  Dataset-backed chains
// have no in-memory rows; their materialization belongs to the execution
// engine, not this package.
//
// Errors:
//
// 	- dataforge-error-internal -- when the chain is dataset-backed
func (c *Chain) Records() ([]Record, error) {
	if c.records == nil {
		return nil, dfapi.ErrorInternal("chain is not value-backed", fmt.Errorf("records of %q are not held in memory", c.describe()))
	}
	return c.records, nil
}

// Len returns the row count of a value-backed chain, or -1 when the chain
// is dataset-backed.
func (c *Chain) Len() int {
	if c.records == nil {
		return -1
	}
	return len(c.records)
}

func (c *Chain) describe() string {
	if c.query != nil {
		return c.query.Ref().String()
	}
	return "values"
}

// DatasetInfo is the row type of the Datasets and Listings chains.
type DatasetInfo struct {
	Name       dfapi.DatasetName
	Namespace  dfapi.NamespaceName
	Project    dfapi.ProjectName
	Version    dfapi.VersionName
	Uuid       string
	Attrs      []string
	CreatedAt  string
	NumObjects int64
	Size       int64
	IsTemp     bool
}
