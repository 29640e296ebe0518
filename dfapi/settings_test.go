package dfapi

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"
)

func TestSettingsValidate(t *testing.T) {
	qt.Check(t, Settings{}.Validate(), qt.IsNil)
	qt.Check(t, Settings{Parallel: 4, Workers: 2}.Validate(), qt.IsNil)

	err := Settings{Workers: -1}.Validate()
	qt.Assert(t, err, qt.IsNotNil)
	qt.Assert(t, serum.Code(err), qt.Equals, CodeSettingsInvalid)
}

func TestSettingsOverride(t *testing.T) {
	base := Settings{Parallel: 4, Workers: 2, Prefetch: 8}
	merged := base.Override(Settings{Workers: 6, Cache: true})
	qt.Check(t, merged.Parallel, qt.Equals, 4)
	qt.Check(t, merged.Workers, qt.Equals, 6)
	qt.Check(t, merged.Prefetch, qt.Equals, 8)
	qt.Check(t, merged.Cache, qt.IsTrue)
}
