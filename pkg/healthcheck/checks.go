package healthcheck

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/pkg/remote"
	"github.com/datatools/dataforge/pkg/workspace"
)

// WorkspaceCheck probes workspace detection from a search path.
type WorkspaceCheck struct {
	Fsys       fs.FS
	SearchPath string
	BasePath   string
}

func (c *WorkspaceCheck) String() string {
	return fmt.Sprintf("Workspace Check: %q", c.SearchPath)
}

// Run reports the workspace stack found from the search path.
// Errors:
//
//	- dataforge-error-healthcheck-run-okay -- when a workspace is found
//	- dataforge-error-healthcheck-run-fail -- when workspace detection fails
//	- dataforge-error-healthcheck-run-ambiguous -- when only the home workspace is in reach
func (c *WorkspaceCheck) Run(ctx context.Context) error {
	stack, err := workspace.FindWorkspaceStack(c.Fsys, c.BasePath, c.SearchPath)
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageLiteral("workspace detection failed"),
		)
	}
	if len(stack) == 0 {
		return serum.Error(CodeRunFailure,
			serum.WithMessageLiteral("no workspace found"),
		)
	}
	local := stack[0]
	if local.IsHomeWorkspace() {
		return serum.Errorf(CodeRunAmbiguous, "no project workspace; only the home workspace is in reach")
	}
	_, path := local.Path()
	return serum.Errorf(CodeRunOkay, "workspace: /%s (stack depth %d)", path, len(stack))
}

// MetastoreCheck probes that a workspace's metastore opens and reads.
type MetastoreCheck struct {
	Workspace *workspace.Workspace
}

func (c *MetastoreCheck) String() string {
	return "Metastore Check"
}

// Run opens the metastore and counts its contents.
// Errors:
//
//	- dataforge-error-healthcheck-run-okay -- when the metastore reads cleanly
//	- dataforge-error-healthcheck-run-fail -- when opening or reading fails
func (c *MetastoreCheck) Run(ctx context.Context) error {
	store, err := c.Workspace.OpenMetastore()
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageLiteral("could not open metastore"),
		)
	}
	rows, err := store.ListDatasetsVersions(true)
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageLiteral("could not read metastore records"),
		)
	}
	return serum.Errorf(CodeRunOkay, "%d projects, %d dataset versions", len(store.Projects()), len(rows))
}

// RegistryCheck probes the workspace's configured remote registry.
type RegistryCheck struct {
	Workspace *workspace.Workspace
}

func (c *RegistryCheck) String() string {
	return "Registry Check"
}

// Run loads the registry config, connects the backend, and lists it.
// Errors:
//
//	- dataforge-error-healthcheck-run-okay -- when the registry answers
//	- dataforge-error-healthcheck-run-fail -- when config or backend fails
//	- dataforge-error-healthcheck-run-ambiguous -- when no registry is configured
func (c *RegistryCheck) Run(ctx context.Context) error {
	cfg, err := c.Workspace.GetRegistryConfig()
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageLiteral("could not read registry config"),
		)
	}
	if cfg == nil {
		return serum.Errorf(CodeRunAmbiguous, "no remote registry configured")
	}
	registry, err := remote.FromConfig(ctx, *cfg, c.Workspace.RegistryCachePath())
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageLiteral("registry backend did not connect"),
		)
	}
	rows, err := registry.ListDatasets(ctx)
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageTemplate("{{kind}} registry did not list"),
			serum.WithDetail("kind", registry.Kind()),
		)
	}
	return serum.Errorf(CodeRunOkay, "%s registry answers; %d datasets visible", registry.Kind(), len(rows))
}
