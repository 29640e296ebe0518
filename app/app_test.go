package dfapp_test

import (
	"bytes"
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	dfapp "github.com/datatools/dataforge/app"
	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/config"
)

// runCli points the global app at a buffer and runs one command line.
func runCli(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	dfapp.App.Writer = &buf
	dfapp.App.ErrWriter = &buf
	err := dfapp.App.Run(append([]string{"dataforge"}, args...))
	return buf.String(), err
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	pwd, err := os.Getwd()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, os.Chdir(dir), qt.IsNil)
	// The configuration snapshot holds the working directory; refresh it.
	qt.Assert(t, config.ReloadGlobalState(), qt.IsNil)
	t.Cleanup(func() {
		os.Chdir(pwd)
		config.ReloadGlobalState()
	})
}

func TestHelpListsCommands(t *testing.T) {
	out, err := runCli(t, "-h")
	qt.Assert(t, err, qt.IsNil)
	for _, command := range []string{"dataset", "init", "registry", "healthcheck", "catalog-html"} {
		qt.Assert(t, out, qt.Contains, command)
	}
}

func TestCliWorkflow(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := runCli(t, "init", "--root")
	qt.Assert(t, err, qt.IsNil)

	// init again should report the existing workspace
	_, err = runCli(t, "init")
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeAlreadyExists)

	out, err := runCli(t, "dataset", "ls")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out, qt.Equals, "")

	out, err = runCli(t, "dataset", "show", "nope")
	qt.Assert(t, err, qt.IsNotNil)
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
	_ = out
}
