package initcli

import (
	"os"

	"github.com/serum-errors/go-serum"
	"github.com/urfave/cli/v2"

	appbase "github.com/datatools/dataforge/app/base"
	"github.com/datatools/dataforge/app/base/util"
	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/config"
	"github.com/datatools/dataforge/pkg/logging"
	"github.com/datatools/dataforge/pkg/workspace"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, initCmdDef)
}

var initCmdDef = &cli.Command{
	Name:  "init",
	Usage: "Create a workspace in the current directory, with the default namespace and project",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "root",
			Usage: "Mark the new workspace as a root workspace, terminating workspace stacks",
		},
	},
	Action: util.ChainCmdMiddleware(cmdInit,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

func cmdInit(c *cli.Context) error {
	ctx := c.Context
	log := logging.Ctx(ctx)

	pwd, err := os.Getwd()
	if err != nil {
		return serum.Errorf(dfapi.CodeUnknown, "failed to get working directory: %w", err)
	}

	if err := workspace.InitWorkspace(pwd, c.Bool("root")); err != nil {
		return err
	}
	log.Info("", "initialized workspace at %s", pwd)

	cat, err := util.OpenCatalog()
	if err != nil {
		return err
	}
	state, err := config.NewState()
	if err != nil {
		return err
	}
	namespace := dfapi.NamespaceName(config.DefaultNamespace(state))
	project := dfapi.ProjectName(config.DefaultProject(state))
	if _, err := cat.Metastore().CreateProject(namespace, project); err != nil {
		if serum.Code(err) != dfapi.CodeAlreadyExists {
			return err
		}
		return nil
	}
	log.Info("", "created default project %s.%s", namespace, project)
	return nil
}
