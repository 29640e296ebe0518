package cataloghtml

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/ipld/go-ipld-prime"
	ipldJson "github.com/ipld/go-ipld-prime/codec/json"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/metastore"
)

var (
	//go:embed catalogIndex.tmpl.html
	catalogIndexTemplate string

	//go:embed catalogDataset.tmpl.html
	catalogDatasetTemplate string

	//go:embed catalogVersion.tmpl.html
	catalogVersionTemplate string

	//go:embed css/main.css
	mainCssBody []byte

	// FUTURE: consider the use of `embed.FS` and `template.ParseFS()`, if there grow to be many files here.
	// It has slightly less compile-time safety checks on filenames, though.
)

type SiteConfig struct {
	Ctx context.Context

	// The metastore whose records get rendered.
	// Arguably should be a parameter, but would end up in almost every single function, so, eh.
	Store *metastore.Metastore

	// A plain string for output path prefix is used because golang still lacks
	// an interface for filesystem *writing* -- io/fs is only reading.  Sigh.
	OutputPath string

	// Set to "/" if you'll be publishing at the root of a subdomain.
	URLPrefix string

	// URL prefix for version payload download links in generated HTML.
	// If nil, download links will be disabled.
	DownloadURL *string
}

func (cfg SiteConfig) tfuncs() map[string]interface{} {
	return map[string]interface{}{
		"string": func(x interface{}) string {
			// Very small helper function to stringify things.
			// This is useful for things that are literally typedefs of string but the template package isn't smart enough to be calm about unboxing it.
			// (It also does return something for values of non-string types, but not something very useful.)
			return reflect.ValueOf(x).String()
		},
		"url": func(parts ...string) string {
			return path.Join(append([]string{cfg.URLPrefix}, parts...)...)
		},
		"megabytes": func(size int64) string {
			return strconv.FormatFloat(float64(size)/(1<<20), 'f', 2, 64)
		},
	}
}

// DatasetPage is the data handed to the dataset template.
type DatasetPage struct {
	Namespace dfapi.NamespaceName
	Project   dfapi.ProjectName
	Dataset   *dfapi.Dataset
}

// CatalogAndChildrenToHtml performs CatalogToHtml, and also
// procedes to invoke the html'ing of all datasets within.
// Additionally, it does all the other "once" things
// (namely, outputs a copy of the css).
//
// Errors:
//
//   - dataforge-error-io -- in case of errors writing out the new html content.
//   - dataforge-error-internal -- in case of templating errors.
//   - dataforge-error-catalog-invalid -- in case the catalog data is invalid.
//   - dataforge-error-catalog-parse -- in case the catalog data failed to parse entirely.
//   - dataforge-error-serialization -- in case the version record serialization fails.
func (cfg SiteConfig) CatalogAndChildrenToHtml() error {
	// Emit catalog index.
	if err := cfg.CatalogToHtml(); err != nil {
		return err
	}

	// Emit the "once" stuff.
	path := filepath.Join(cfg.OutputPath, "main.css")
	if err := os.WriteFile(path, mainCssBody, 0644); err != nil {
		return dfapi.ErrorIo("couldn't open file for css as part of cataloghtml emission", path, err)
	}

	// Emit all datasets within.
	pages, err := cfg.DatasetPages()
	if err != nil {
		return err
	}
	for _, page := range pages {
		if err := cfg.DatasetAndChildrenToHtml(page); err != nil {
			return err
		}
	}
	return nil
}

// DatasetPages enumerates every dataset record in the store, listing
// datasets included.
//
// Errors:
//
//   - dataforge-error-io -- in case of errors reading the store.
//   - dataforge-error-catalog-parse -- in case the catalog data failed to parse entirely.
func (cfg SiteConfig) DatasetPages() ([]DatasetPage, error) {
	var pages []DatasetPage
	for _, key := range cfg.Store.Projects() {
		namespace := dfapi.NamespaceName(key[0])
		project := dfapi.ProjectName(key[1])
		names, err := cfg.Store.ListDatasets(namespace, project, true)
		if err != nil {
			// Error Codes -= dataforge-error-project-not-found
			return nil, dfapi.ErrorInternal("project list out of sync with store", err)
		}
		for _, name := range names {
			ds, err := cfg.Store.GetDataset(dfapi.DatasetRef{Namespace: namespace, Project: project, Name: name})
			if err != nil {
				// Error Codes -= dataforge-error-project-not-found, dataforge-error-dataset-not-found
				return nil, dfapi.ErrorInternal("dataset list out of sync with store", err)
			}
			pages = append(pages, DatasetPage{Namespace: namespace, Project: project, Dataset: ds})
		}
	}
	return pages, nil
}

// doTemplate does the common bits of making files, processing the template,
// and getting the output where it needs to go.
//
// Errors:
//
//   - dataforge-error-io -- in case of errors writing out the new html content.
//   - dataforge-error-internal -- in case of templating errors.
func (cfg SiteConfig) doTemplate(outputPath string, tmpl string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0775); err != nil {
		return dfapi.ErrorIo("couldn't mkdir during cataloghtml emission", outputPath, err)
	}
	f, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0664)
	if err != nil {
		return dfapi.ErrorIo("couldn't open file for writing during cataloghtml emission", outputPath, err)
	}
	defer f.Close()

	t := template.Must(template.New("main").Funcs(cfg.tfuncs()).Parse(tmpl))
	if err := t.Execute(f, data); err != nil {
		return dfapi.ErrorInternal("templating failed", err)
	}
	return nil
}

// CatalogToHtml generates a root page that links to all the datasets.
//
// This function has no parameters because it uses the store in the SiteConfig entirely.
//
// Errors:
//
//   - dataforge-error-io -- in case of errors writing out the new html content.
//   - dataforge-error-internal -- in case of templating errors.
//   - dataforge-error-catalog-parse -- in case the catalog data failed to parse entirely.
func (cfg SiteConfig) CatalogToHtml() error {
	pages, err := cfg.DatasetPages()
	if err != nil {
		return err
	}
	return cfg.doTemplate(
		filepath.Join(cfg.OutputPath, "index.html"),
		catalogIndexTemplate,
		pages,
	)
}

// DatasetAndChildrenToHtml performs DatasetToHtml, and also
// procedes to invoke the html'ing of all version records within.
//
// Errors:
//
//   - dataforge-error-io -- in case of errors writing out the new html content.
//   - dataforge-error-internal -- in case of templating errors.
//   - dataforge-error-catalog-invalid -- in case the catalog data is invalid.
//   - dataforge-error-catalog-parse -- in case the catalog data failed to parse entirely.
//   - dataforge-error-serialization -- in case the version record serialization fails.
func (cfg SiteConfig) DatasetAndChildrenToHtml(page DatasetPage) error {
	if err := cfg.DatasetToHtml(page); err != nil {
		return err
	}
	ref := dfapi.DatasetRef{Namespace: page.Namespace, Project: page.Project, Name: page.Dataset.Name}
	for _, versionName := range page.Dataset.Versions.Keys {
		dv, err := cfg.Store.GetVersion(ref, versionName)
		if err != nil {
			return err
		}
		if err := cfg.VersionToHtml(page, dv); err != nil {
			return err
		}
	}
	return nil
}

// DatasetToHtml generates a page for a dataset which enumerates
// and links to all the versions within it,
// as well as enumerates all the attrs and schema attached to the record.
//
// Errors:
//
//   - dataforge-error-io -- in case of errors writing out the new html content.
//   - dataforge-error-internal -- in case of templating errors.
func (cfg SiteConfig) DatasetToHtml(page DatasetPage) error {
	return cfg.doTemplate(
		filepath.Join(cfg.OutputPath, string(page.Namespace), string(page.Project), string(page.Dataset.Name), "_dataset.html"),
		catalogDatasetTemplate,
		page,
	)
}

// VersionToHtml generates a page for one version record of a dataset.
//
// Possible but not-yet-implemented future features of this output might include:
// links to neighboring (e.g. forward and previous) versions; diff summaries
// against the previous version; etc.
//
// Errors:
//
//   - dataforge-error-io -- in case of errors writing out the new html content.
//   - dataforge-error-internal -- in case of templating errors.
//   - dataforge-error-serialization -- in case serializing the record fails.
func (cfg SiteConfig) VersionToHtml(page DatasetPage, dv *dfapi.DatasetVersion) error {
	capsule := dfapi.DatasetVersionCapsule{DatasetVersion: dv}
	recordJson, errRaw := ipld.Marshal(ipldJson.Encode, &capsule, dfapi.TypeSystem.TypeByName("DatasetVersionCapsule"))
	if errRaw != nil {
		return dfapi.ErrorSerialization("failed to serialize version record", errRaw)
	}

	return cfg.doTemplate(
		filepath.Join(cfg.OutputPath, string(page.Namespace), string(page.Project), string(page.Dataset.Name), "_versions", string(dv.Version)+".html"),
		catalogVersionTemplate,
		map[string]interface{}{
			"Page":            page,
			"Version":         dv,
			"RecordFormatter": recordFormatter{cfg: cfg, json: string(recordJson)},
			"LinkGenerator":   downloadLinkGenerator{cfg: cfg},
		},
	)
}

// Helper type to format a record's JSON into highlighted HTML.
type recordFormatter struct {
	cfg  SiteConfig
	json string
}

func (rf recordFormatter) FormattedJson() template.HTML {
	// indent the json
	var indentedJson bytes.Buffer
	err := json.Indent(&indentedJson, []byte(rf.json), "", "  ")
	if err != nil {
		panic("failed to indent json")
	}

	// apply syntax highlighting to json
	lexer := lexers.Get("json")
	style := styles.Get("dracula")
	formatter := formatters.Get("html")
	if lexer == nil || style == nil || formatter == nil {
		panic("failed to setup syntax highlighting")
	}
	iterator, err := lexer.Tokenise(nil, indentedJson.String())
	if err != nil {
		panic("failed to tokenize for syntax highlighting")
	}
	var outBuf bytes.Buffer
	err = formatter.Format(&outBuf, style, iterator)
	if err != nil {
		panic("failed to apply syntax highlighting")
	}
	return template.HTML(outBuf.String())
}

type downloadLinkGenerator struct {
	cfg SiteConfig
}

func (dlg downloadLinkGenerator) DownloadLinksAvailable() bool {
	// if download URL prefix is set, a link can be created
	return dlg.cfg.DownloadURL != nil
}

func (dlg downloadLinkGenerator) DownloadUrl(dv *dfapi.DatasetVersion) string {
	// Storage shards objects by the first uuid characters.  Records loaded
	// from elsewhere may carry uuids too short to shard; link those flat.
	if len(dv.Uuid) < 6 {
		return fmt.Sprintf("%s/%s", *dlg.cfg.DownloadURL, dv.Uuid)
	}
	return fmt.Sprintf("%s/%s/%s/%s", *dlg.cfg.DownloadURL, dv.Uuid[0:3], dv.Uuid[3:6], dv.Uuid)
}
