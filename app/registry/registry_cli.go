package registrycli

import (
	"fmt"

	"github.com/serum-errors/go-serum"
	"github.com/urfave/cli/v2"

	appbase "github.com/datatools/dataforge/app/base"
	"github.com/datatools/dataforge/app/base/util"
	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/logging"
	"github.com/datatools/dataforge/pkg/remote"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, registryCmdDef)
}

var registryCmdDef = &cli.Command{
	Name:  "registry",
	Usage: "Subcommands that operate on the workspace's remote registry",
	Subcommands: []*cli.Command{
		{
			Name:  "update",
			Usage: "Refresh the registry cache. Clones or pulls git-backed registries.",
			Action: util.ChainCmdMiddleware(cmdRegistryUpdate,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:  "show",
			Usage: "Show which registry backend the workspace is configured with",
			Action: util.ChainCmdMiddleware(cmdRegistryShow,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
	},
}

func cmdRegistryUpdate(c *cli.Context) error {
	ctx := c.Context
	log := logging.Ctx(ctx)

	cat, err := util.OpenCatalog()
	if err != nil {
		return err
	}
	registry, err := cat.Registry(ctx)
	if err != nil {
		return err
	}
	if registry == nil {
		return serum.Error(dfapi.CodeRegistry,
			serum.WithMessageLiteral("no remote registry is configured for this workspace"),
		)
	}

	// Connecting already refreshes the cache for git backends; an explicit
	// second update here reports pull results while the user is watching.
	if gitReg, ok := registry.(*remote.GitRegistry); ok {
		if err := gitReg.Update(ctx); err != nil {
			return err
		}
	}
	log.Info("", "%s registry cache is up to date", registry.Kind())
	return nil
}

func cmdRegistryShow(c *cli.Context) error {
	cat, err := util.OpenCatalog()
	if err != nil {
		return err
	}
	cfg, err := cat.Workspace().GetRegistryConfig()
	if err != nil {
		return err
	}
	if cfg == nil {
		fmt.Fprintf(c.App.Writer, "no remote registry configured\n")
		return nil
	}
	switch {
	case cfg.S3 != nil:
		fmt.Fprintf(c.App.Writer, "s3 registry: bucket %q, region %q\n", cfg.S3.Bucket, cfg.S3.Region)
	case cfg.Git != nil:
		fmt.Fprintf(c.App.Writer, "git registry: %s\n", cfg.Git.Url)
	case cfg.Mock != nil:
		fmt.Fprintf(c.App.Writer, "mock registry\n")
	default:
		fmt.Fprintf(c.App.Writer, "registry config present but selects no backend\n")
	}
	return nil
}
