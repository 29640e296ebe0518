package dfapi

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestMatchAttr(t *testing.T) {
	attrs := []string{"published", "loc=europe"}

	qt.Check(t, MatchAttr("published", attrs), qt.IsTrue)
	qt.Check(t, MatchAttr("loc=europe", attrs), qt.IsTrue)
	qt.Check(t, MatchAttr("loc=*", attrs), qt.IsTrue)

	qt.Check(t, MatchAttr("loc", attrs), qt.IsFalse)
	qt.Check(t, MatchAttr("loc=asia", attrs), qt.IsFalse)
	qt.Check(t, MatchAttr("published=*", attrs), qt.IsTrue)
	qt.Check(t, MatchAttr("missing", attrs), qt.IsFalse)
	qt.Check(t, MatchAttr("missing=*", attrs), qt.IsFalse)
	qt.Check(t, MatchAttr("loc=*", nil), qt.IsFalse)
}
