package cataloghtml

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/workspace"
)

func TestCatalogToHtml(t *testing.T) {
	tmpDir := t.TempDir()
	wsDir := filepath.Join(tmpDir, "ws")
	qt.Assert(t, workspace.InitWorkspace(wsDir, false), qt.IsNil)
	ws, err := workspace.OpenWorkspace(os.DirFS("/"), wsDir[1:])
	qt.Assert(t, err, qt.IsNil)
	store, err := ws.OpenMetastore()
	qt.Assert(t, err, qt.IsNil)

	ref := dfapi.DatasetRef{Namespace: "prod", Project: "vision", Name: "cats"}
	_, err = store.CreateProject(ref.Namespace, ref.Project)
	qt.Assert(t, err, qt.IsNil)
	err = store.AddVersion(ref, &dfapi.DatasetVersion{
		Version:    "1.0.0",
		Uuid:       "8f2a771c-demo",
		CreatedAt:  "2026-03-01T08:00:00Z",
		NumObjects: 12,
		Size:       3 << 20,
		Status:     dfapi.VersionStatus_Complete,
	}, false)
	qt.Assert(t, err, qt.IsNil)

	outDir := filepath.Join(tmpDir, "site")
	downloadURL := "https://data.example.com/blobs"
	cfg := SiteConfig{
		Ctx:         context.Background(),
		Store:       &store,
		OutputPath:  outDir,
		URLPrefix:   "/",
		DownloadURL: &downloadURL,
	}
	qt.Assert(t, cfg.CatalogAndChildrenToHtml(), qt.IsNil)

	index, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, strings.Contains(string(index), "prod.vision.cats"), qt.IsTrue)

	dsPage, err := os.ReadFile(filepath.Join(outDir, "prod", "vision", "cats", "_dataset.html"))
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, strings.Contains(string(dsPage), "1.0.0"), qt.IsTrue)

	vPage, err := os.ReadFile(filepath.Join(outDir, "prod", "vision", "cats", "_versions", "1.0.0.html"))
	qt.Assert(t, err, qt.IsNil)
	// record json comes out chroma-highlighted, and the download link uses
	// the uuid-sharded layout.
	qt.Check(t, strings.Contains(string(vPage), "<pre"), qt.IsTrue)
	qt.Check(t, strings.Contains(string(vPage), "blobs/8f2/a77/8f2a771c-demo"), qt.IsTrue)

	_, err = os.Stat(filepath.Join(outDir, "main.css"))
	qt.Assert(t, err, qt.IsNil)
}

func TestDownloadUrlShortUuid(t *testing.T) {
	downloadURL := "https://data.example.com/blobs"
	dlg := downloadLinkGenerator{cfg: SiteConfig{DownloadURL: &downloadURL}}

	qt.Check(t, dlg.DownloadUrl(&dfapi.DatasetVersion{Uuid: "8f2a771c-demo"}),
		qt.Equals, "https://data.example.com/blobs/8f2/a77/8f2a771c-demo")
	// uuids too short to shard get a flat link instead of a panic.
	qt.Check(t, dlg.DownloadUrl(&dfapi.DatasetVersion{Uuid: "ab1"}),
		qt.Equals, "https://data.example.com/blobs/ab1")
	qt.Check(t, dlg.DownloadUrl(&dfapi.DatasetVersion{Uuid: ""}),
		qt.Equals, "https://data.example.com/blobs/")
}
