package dfapi

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDeriveSignalSchemaPrefersFeatureSchema(t *testing.T) {
	ds := Dataset{Name: "cats"}
	ds.FeatureSchema = &struct {
		Keys   []string
		Values map[string]string
	}{
		Keys:   []string{"file", "label"},
		Values: map[string]string{"file": "File", "label": "str"},
	}
	ds.ColumnTypes = &struct {
		Keys   []string
		Values map[string]string
	}{
		Keys:   []string{"file.path"},
		Values: map[string]string{"file.path": "str"},
	}

	s := DeriveSignalSchema(&ds)
	qt.Assert(t, s.Fields(), qt.DeepEquals, []string{"sys.id", "sys.rand", "file", "label"})
	typ, ok := s.FieldType("file")
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, typ, qt.Equals, "File")
}

func TestDeriveSignalSchemaFallsBackToColumnTypes(t *testing.T) {
	ds := Dataset{Name: "cats"}
	ds.ColumnTypes = &struct {
		Keys   []string
		Values map[string]string
	}{
		Keys:   []string{"file.path", "file.etag"},
		Values: map[string]string{"file.path": "str", "file.etag": "str"},
	}

	s := DeriveSignalSchema(&ds)
	qt.Assert(t, s.Fields(), qt.DeepEquals, []string{"sys.id", "sys.rand", "file.path", "file.etag"})
}

func TestDeriveSignalSchemaBareRecord(t *testing.T) {
	ds := Dataset{Name: "cats"}
	s := DeriveSignalSchema(&ds)
	qt.Assert(t, s.Fields(), qt.DeepEquals, []string{"sys.id", "sys.rand"})
}

func TestSignalSchemaMerge(t *testing.T) {
	a := SignalSchemaFromPairs([][2]string{{"x", "int"}, {"y", "str"}})
	b := SignalSchemaFromPairs([][2]string{{"y", "float"}, {"z", "str"}})
	a.Merge(b)
	qt.Assert(t, a.Fields(), qt.DeepEquals, []string{"x", "y", "z"})
	typ, _ := a.FieldType("y")
	qt.Assert(t, typ, qt.Equals, "float")
}
