package chain

import (
	"context"

	"github.com/datatools/dataforge/dfapi"
)

// DefaultDeltaOn is the identity key a delta diff uses when none is given.
var DefaultDeltaOn = []string{"file.path", "file.etag", "file.version"}

// RetryMode selects how a delta run decides which previous results to redo.
type RetryMode string

const (
	// RetryByField redoes records whose previous result carries a non-empty
	// error marker field.
	RetryByField RetryMode = "field"
	// RetryMissing redoes records that produced no previous result at all.
	RetryMissing RetryMode = "missing"
)

// DeltaConfig declares delta semantics for a chain: process only records
// that changed since the previous version, plus whatever the retry mode
// claws back.
type DeltaConfig struct {
	// On names the identity fields records are matched by across versions.
	// Empty means DefaultDeltaOn.
	On []string
	// ResultOn remaps identity fields to their names in the result dataset.
	// Empty means same names; otherwise it must pair up with On.
	ResultOn []string
	// Compare names additional fields whose changes mark a record dirty.
	Compare []string
	// Retry selects the redo mode; empty disables retrying.
	Retry RetryMode
	// RetryField is the error marker field for RetryByField.
	RetryField string
}

// Validate checks the delta config for contradictions.
//
// Errors:
//
// 	- dataforge-error-delta-invalid -- when the config is contradictory
func (cfg DeltaConfig) Validate() error {
	if len(cfg.ResultOn) > 0 {
		on := cfg.On
		if len(on) == 0 {
			on = DefaultDeltaOn
		}
		if len(cfg.ResultOn) != len(on) {
			return dfapi.ErrorDeltaInvalid("resultOn must name one field per identity field")
		}
	}
	switch cfg.Retry {
	case "":
		if cfg.RetryField != "" {
			return dfapi.ErrorDeltaInvalid("retryField is set but no retry mode is selected")
		}
	case RetryByField:
		if cfg.RetryField == "" {
			return dfapi.ErrorDeltaInvalid("retry by field requires retryField")
		}
	case RetryMissing:
		if cfg.RetryField != "" {
			return dfapi.ErrorDeltaInvalid("retry by missing record takes no retryField")
		}
	default:
		return dfapi.ErrorDeltaInvalid("unknown retry mode " + string(cfg.Retry))
	}
	return nil
}

// DeltaPlan is a validated delta config resolved against a concrete chain:
// identity fields checked against the schema and the previous version pinned.
type DeltaPlan struct {
	On       []string
	ResultOn []string
	Compare  []string
	Retry    RetryMode
	// RetryField is set only for RetryByField.
	RetryField string
	// PreviousVersion is the version the diff runs against; empty means no
	// previous version exists and the run is effectively full.
	PreviousVersion dfapi.VersionName
}

// AsDelta returns a copy of the chain carrying a resolved delta plan.
// Only dataset-backed chains can run as deltas.
//
// Errors:
//
// 	- dataforge-error-delta-invalid -- when the config fails validation or
//     names fields absent from the chain's schema
func (c *Chain) AsDelta(ctx context.Context, cfg DeltaConfig) (*Chain, error) {
	if c.query == nil {
		return nil, dfapi.ErrorDeltaInvalid("value-backed chains cannot run as deltas")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plan := &DeltaPlan{
		On:         cfg.On,
		ResultOn:   cfg.ResultOn,
		Compare:    cfg.Compare,
		Retry:      cfg.Retry,
		RetryField: cfg.RetryField,
	}
	if len(plan.On) == 0 {
		plan.On = DefaultDeltaOn
	}
	// Compare fields must exist in the schema; identity fields may come from
	// the sys file metadata, which every dataset carries.
	for _, field := range cfg.Compare {
		if _, ok := c.schema.FieldType(field); !ok {
			return nil, dfapi.ErrorDeltaInvalid("compare field " + field + " is not in the dataset schema")
		}
	}

	plan.PreviousVersion = previousVersion(c.query.Dataset().Versions.Keys, c.query.Ref().Version)

	derived := *c
	derived.delta = plan
	return &derived, nil
}

// previousVersion returns the highest version strictly below current, or ""
// when current is the oldest (or unset, in which case the latest version is
// the implicit current).
func previousVersion(versions []dfapi.VersionName, current dfapi.VersionName) dfapi.VersionName {
	if current == "" {
		current = dfapi.LatestVersion(versions)
	}
	var prev dfapi.VersionName
	for _, v := range versions {
		if dfapi.CompareVersions(v, current) >= 0 {
			continue
		}
		if prev == "" || dfapi.CompareVersions(v, prev) > 0 {
			prev = v
		}
	}
	return prev
}
