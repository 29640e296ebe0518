package cataloghtmlcli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	appbase "github.com/datatools/dataforge/app/base"
	"github.com/datatools/dataforge/app/base/util"
	"github.com/datatools/dataforge/pkg/cataloghtml"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, catalogHtmlCmdDef)
}

var catalogHtmlCmdDef = &cli.Command{
	Name:  "catalog-html",
	Usage: "Generates HTML output for the workspace catalog containing information on datasets",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output path for HTML generation",
		},
		&cli.StringFlag{
			Name:  "url-prefix",
			Usage: "URL prefix for links within generated HTML",
		},
		&cli.StringFlag{
			Name:  "download-url",
			Usage: "URL of the object store to use for version download links",
		},
	},
	Action: util.ChainCmdMiddleware(cmdCatalogHtml,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

func cmdCatalogHtml(c *cli.Context) error {
	cat, err := util.OpenCatalog()
	if err != nil {
		return err
	}

	// by default, output to a subdir of the workspace's magic dir named `_html`
	// this can be overriden by a cli flag that provides a path
	outputPath := filepath.Join("/", cat.Workspace().InternalPath(), "_html")
	if c.String("output") != "" {
		outputPath = c.String("output")
	}

	// by default, the URL prefix is the same as the output path,
	// this works if the HTML is accessed using `file:///` URLs.
	// however, to allow for generating a hosted site, this can be
	// overridden by the CLI
	urlPrefix := outputPath
	if c.String("url-prefix") != "" {
		urlPrefix = c.String("url-prefix")
	}

	var downloadUrl *string = nil
	if c.String("download-url") != "" {
		dlUrl := c.String("download-url")
		downloadUrl = &dlUrl
	}

	cfg := cataloghtml.SiteConfig{
		Ctx:         context.Background(),
		Store:       cat.Metastore(),
		OutputPath:  outputPath,
		URLPrefix:   urlPrefix,
		DownloadURL: downloadUrl,
	}
	os.RemoveAll(cfg.OutputPath)
	if err := cfg.CatalogAndChildrenToHtml(); err != nil {
		return fmt.Errorf("failed to generate html: %s", err)
	}

	fmt.Fprintf(c.App.Writer, "published catalog HTML to %s\n", outputPath)

	return nil
}
