package dfapi

import (
	_ "github.com/ipld/go-ipld-prime/codec/dagcbor" // side-effecting import; registers a codec.
	_ "github.com/ipld/go-ipld-prime/codec/json"    // side-effecting import; registers a codec.
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/schema"
)

// This file is for IPLD-related helpers and constants.
// (For example, the linksystem: that's legitimately a global, because it's just for plugin config.)

var LinkSystem = cidlink.DefaultLinkSystem()

// TypeSystem describes all our API data types and their representation strategies.
// It starts with the prelude types; each file in this package accumulates
// the types it declares in its own init.
var TypeSystem = func() *schema.TypeSystem {
	ts := new(schema.TypeSystem)
	ts.Init()
	ts.Accumulate(schema.SpawnString("String"))
	ts.Accumulate(schema.SpawnInt("Int"))
	ts.Accumulate(schema.SpawnBool("Bool"))
	return ts
}()
