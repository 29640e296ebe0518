package healthcheckcli

import (
	"os"

	"github.com/serum-errors/go-serum"
	"github.com/urfave/cli/v2"

	appbase "github.com/datatools/dataforge/app/base"
	"github.com/datatools/dataforge/app/base/util"
	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/healthcheck"
	"github.com/datatools/dataforge/pkg/logging"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, healthcheckCmdDef)
}

var healthcheckCmdDef = &cli.Command{
	Name:  "healthcheck",
	Usage: "Check for potential errors in system configuration",
	Action: util.ChainCmdMiddleware(cmdHealth,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

func cmdHealth(c *cli.Context) error {
	ctx := c.Context
	log := logging.Ctx(ctx)

	pwd, err := os.Getwd()
	if err != nil {
		return serum.Errorf(dfapi.CodeUnknown, "failed to get working directory: %w", err)
	}

	// Probe kernel info, workspace detection, and then the local workspace's
	// metastore and registry.  The store probes only run if a workspace opened.
	runners := []healthcheck.Runner{
		&healthcheck.KernelInfo{},
		&healthcheck.WorkspaceCheck{Fsys: os.DirFS("/"), SearchPath: pwd[1:], BasePath: ""},
	}
	if wss, err := util.OpenWorkspaceSet(); err == nil {
		runners = append(runners,
			&healthcheck.MetastoreCheck{Workspace: wss.Local()},
			&healthcheck.RegistryCheck{Workspace: wss.Local()},
		)
	}

	hc := &healthcheck.HealthCheck{Runners: runners}
	if err := hc.Run(ctx); err != nil {
		log.Info("", "health check critical error: %s", err)
		return err
	}

	log.Debug("", "runners=%d, results=%d", len(hc.Runners), len(hc.Results))

	if err := hc.Fprint(c.App.Writer); err != nil {
		return err
	}
	if hc.AnyFailed() {
		return serum.Error(dfapi.CodeInternal,
			serum.WithMessageLiteral("one or more health checks failed"),
		)
	}
	return nil
}
