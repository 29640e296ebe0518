package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
)

func TestOpenWorkspace(t *testing.T) {
	t.Run("missing-workspace-errors", func(t *testing.T) {
		fsys := fstest.MapFS{}
		_, err := OpenWorkspace(fsys, "nope/nothing")
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeWorkspace)
	})
	t.Run("paths", func(t *testing.T) {
		fsys := fstest.MapFS{
			"test/workspace/.dataforge/metastore": &fstest.MapFile{Mode: 0755},
		}
		ws, err := OpenWorkspace(fsys, "test/workspace")
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, ws.InternalPath(), qt.Equals, "test/workspace/.dataforge")
		qt.Check(t, ws.MetastorePath(), qt.Equals, "test/workspace/.dataforge/metastore")
		qt.Check(t, ws.RegistryCachePath(), qt.Equals, "/test/workspace/.dataforge/registry-cache")
		_, path := ws.Path()
		qt.Check(t, path, qt.Equals, "test/workspace")
	})
}

func TestInitWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	err := InitWorkspace(filepath.Join(tmpDir, "proj"), false)
	qt.Assert(t, err, qt.IsNil)
	err = InitWorkspace(filepath.Join(tmpDir, "team"), true)
	qt.Assert(t, err, qt.IsNil)

	// Initializing twice should refuse.
	err = InitWorkspace(filepath.Join(tmpDir, "proj"), false)
	qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeAlreadyExists)

	fsys := os.DirFS("/")
	ws, err := OpenWorkspace(fsys, filepath.Join(tmpDir, "proj")[1:])
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, ws.IsRootWorkspace(), qt.IsFalse)
	rootWs, err := OpenWorkspace(fsys, filepath.Join(tmpDir, "team")[1:])
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, rootWs.IsRootWorkspace(), qt.IsTrue)

	// The fresh metastore opens empty.
	store, err := ws.OpenMetastore()
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, store.Projects(), qt.HasLen, 0)
}

func TestGetRegistryConfig(t *testing.T) {
	t.Run("no-config-is-nil", func(t *testing.T) {
		fsys := fstest.MapFS{
			"ws/.dataforge/metastore": &fstest.MapFile{Mode: 0755},
		}
		ws, err := OpenWorkspace(fsys, "ws")
		qt.Assert(t, err, qt.IsNil)
		cfg, err := ws.GetRegistryConfig()
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, cfg, qt.IsNil)

		local, err := ws.IsLocalNamespace(dfapi.NamespaceName("anything"))
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, local, qt.IsTrue)
	})
	t.Run("s3-config", func(t *testing.T) {
		fsys := fstest.MapFS{
			"ws/.dataforge/registry.json": &fstest.MapFile{Data: []byte(`{
	"registryConfig.v1": {
		"namespaces": [
			"prod"
		],
		"s3": {
			"endpoint": "https://s3.example.com",
			"region": "us-east-1",
			"bucket": "datasets"
		}
	}
}
`)},
		}
		ws, err := OpenWorkspace(fsys, "ws")
		qt.Assert(t, err, qt.IsNil)
		cfg, err := ws.GetRegistryConfig()
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, cfg, qt.IsNotNil)
		qt.Check(t, cfg.Namespaces, qt.DeepEquals, []string{"prod"})
		qt.Assert(t, cfg.S3, qt.IsNotNil)
		qt.Check(t, cfg.S3.Bucket, qt.Equals, "datasets")
		qt.Check(t, cfg.Git, qt.IsNil)

		local, err := ws.IsLocalNamespace(dfapi.NamespaceName("prod"))
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, local, qt.IsFalse)
		local, err = ws.IsLocalNamespace(dfapi.NamespaceName("local"))
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, local, qt.IsTrue)
	})
	t.Run("garbage-config-errors", func(t *testing.T) {
		fsys := fstest.MapFS{
			"ws/.dataforge/registry.json": &fstest.MapFile{Data: []byte(`{"registryConfig.v9000": {}}`)},
		}
		ws, err := OpenWorkspace(fsys, "ws")
		qt.Assert(t, err, qt.IsNil)
		_, err = ws.GetRegistryConfig()
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeCatalogParse)
	})
}

func TestSetRegistryConfig(t *testing.T) {
	tmpDir := t.TempDir()
	err := InitWorkspace(filepath.Join(tmpDir, "ws"), false)
	qt.Assert(t, err, qt.IsNil)
	ws, err := OpenWorkspace(os.DirFS("/"), filepath.Join(tmpDir, "ws")[1:])
	qt.Assert(t, err, qt.IsNil)

	ref := "main"
	err = ws.SetRegistryConfig(&dfapi.RegistryConfig{
		Namespaces: []string{"prod", "shared"},
		Git:        &dfapi.GitRegistryConfig{Url: "https://git.example.com/registry.git", Ref: &ref},
	})
	qt.Assert(t, err, qt.IsNil)

	cfg, err := ws.GetRegistryConfig()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, cfg, qt.IsNotNil)
	qt.Check(t, cfg.Namespaces, qt.DeepEquals, []string{"prod", "shared"})
	qt.Assert(t, cfg.Git, qt.IsNotNil)
	qt.Check(t, *cfg.Git.Ref, qt.Equals, "main")
}

func TestWorkspaceSetFindDataset(t *testing.T) {
	datasetSerial := `{
	"dataset.v1": {
		"name": "cats",
		"attrs": [],
		"versions": {}
	}
}
`
	projectSerial := `{
	"project.v1": {
		"name": "vision",
		"namespace": "local",
		"createdAt": "2026-01-02T03:04:05Z",
		"metadata": {}
	}
}
`
	fsys := fstest.MapFS{
		// Near workspace: has the project but not the dataset.
		"near/.dataforge/metastore/local/vision/_project.json": &fstest.MapFile{Data: []byte(projectSerial)},
		// Far workspace: has the dataset.
		"far/.dataforge/metastore/local/vision/_project.json":      &fstest.MapFile{Data: []byte(projectSerial)},
		"far/.dataforge/metastore/local/vision/cats/_dataset.json": &fstest.MapFile{Data: []byte(datasetSerial)},
	}
	nearWs, err := OpenWorkspace(fsys, "near")
	qt.Assert(t, err, qt.IsNil)
	farWs, err := OpenWorkspace(fsys, "far")
	qt.Assert(t, err, qt.IsNil)
	wss := WorkspaceSet{nearWs, farWs}

	ref := dfapi.DatasetRef{Namespace: "local", Project: "vision", Name: "cats"}
	foundWs, ds, err := wss.FindDataset(ref)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ds, qt.IsNotNil)
	qt.Check(t, foundWs, qt.Equals, farWs)
	qt.Check(t, ds.Name, qt.Equals, dfapi.DatasetName("cats"))

	ref.Name = "dogs"
	foundWs, ds, err = wss.FindDataset(ref)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, foundWs, qt.IsNil)
	qt.Check(t, ds, qt.IsNil)
}
