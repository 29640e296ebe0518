package dab_test

import (
	"fmt"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"
	"github.com/warpfork/go-testmark"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/dab"
)

func TestParseDatasetName_Testmark(t *testing.T) {
	filename := "../../examples/200-dataset-name-parse/dataset-names.md"
	t.Logf("file://%s", filename)
	doc, err := testmark.ReadFile(filename)
	qt.Assert(t, err, qt.IsNil)

	for _, hunk := range doc.DataHunks {
		hunk := hunk
		t.Run(hunk.Name, func(t *testing.T) {
			lines := strings.Split(string(hunk.Body), "\n")
			for idx, line := range lines {
				if line == "" {
					continue
				}
				line := line
				tname := fmt.Sprintf(":%d/%s", hunk.LineStart+3+idx, line)
				t.Run(tname, func(t *testing.T) {
					_, _, _, err := dab.ParseDatasetName(line)
					if strings.HasPrefix(hunk.Name, "valid/") {
						qt.Assert(t, err, qt.IsNil)
						return
					}
					qt.Assert(t, err, qt.IsNotNil)
				})
			}
		})
	}
}

// These tests should expand on checks in the testmark tests
func TestParseDatasetName(t *testing.T) {
	for _, testcase := range []struct {
		value     string
		namespace string
		project   string
		name      string
		wantErr   bool
	}{
		{value: "cats", name: "cats"},
		{value: "a.b.c", namespace: "a", project: "b", name: "c"},
		{value: "a.b.c.d", namespace: "a", project: "b", name: "c.d"},
		{value: "a.b.c.d.e", namespace: "a", project: "b", name: "c.d.e"},
		{value: "b.c", wantErr: true},
		{value: "", wantErr: true},
		{value: "a..c", wantErr: true},
		{value: strings.Repeat("a", 64), wantErr: true},
		{value: strings.Repeat("a", 63), name: strings.Repeat("a", 63)},
	} {
		testcase := testcase
		t.Run(fmt.Sprintf("%#v", testcase.value), func(t *testing.T) {
			namespace, project, name, err := dab.ParseDatasetName(testcase.value)
			if testcase.wantErr {
				qt.Assert(t, err, qt.IsNotNil)
				qt.Check(t, serum.Code(err), qt.Equals, dfapi.CodeNameInvalid)
				return
			}
			qt.Assert(t, err, qt.IsNil)
			qt.Check(t, namespace, qt.Equals, testcase.namespace)
			qt.Check(t, project, qt.Equals, testcase.project)
			qt.Check(t, name, qt.Equals, testcase.name)
		})
	}
}

func TestParseDatasetRef(t *testing.T) {
	ref, err := dab.ParseDatasetRef("cats@1.2.0", "local", "default")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, ref, qt.Equals, dfapi.DatasetRef{
		Namespace: "local", Project: "default", Name: "cats", Version: "1.2.0",
	})

	ref, err = dab.ParseDatasetRef("prod.vision.cats", "local", "default")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, ref, qt.Equals, dfapi.DatasetRef{
		Namespace: "prod", Project: "vision", Name: "cats",
	})

	_, err = dab.ParseDatasetRef("vision.cats@2.0.0", "local", "default")
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeNameInvalid)
}
