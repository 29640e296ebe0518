package query

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/config"
	"github.com/datatools/dataforge/pkg/logging"
	"github.com/datatools/dataforge/pkg/metastore"
	"github.com/datatools/dataforge/pkg/tracing"
	"github.com/datatools/dataforge/pkg/workspace"
)

// Session scopes catalog usage to one workspace and tracks the temp datasets
// created through it so Close can garbage-collect them.  Most callers use the
// process-wide default session; tests and embedders can build isolated
// in-memory sessions instead.
type Session struct {
	id  string
	cat *Catalog

	// tempDir is set only for in-memory sessions; Close removes it.
	tempDir string

	mu       sync.Mutex
	tempRefs []dfapi.DatasetRef
	tempSeq  int
	closed   bool
}

type sessionConfig struct {
	inMemory  bool
	workspace *workspace.Workspace
	namespace string
	project   string
}

// SessionOption configures NewSession.
type SessionOption func(*sessionConfig)

// InMemory backs the session with a throwaway workspace under the system
// temp dir instead of the ambient workspace stack.
func InMemory() SessionOption {
	return func(cfg *sessionConfig) { cfg.inMemory = true }
}

// WithWorkspace pins the session to a specific workspace.
func WithWorkspace(ws *workspace.Workspace) SessionOption {
	return func(cfg *sessionConfig) { cfg.workspace = ws }
}

// WithDefaults overrides the namespace and project applied to unqualified
// dataset names.  Empty strings keep the environment-derived defaults.
func WithDefaults(namespace, project string) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.namespace = namespace
		cfg.project = project
	}
}

// NewSession creates a session and opens its catalog.
// Without options the workspace comes from the ambient workspace stack.
//
// Errors:
//
// 	- dataforge-error-serialization -- when copying process state fails
// 	- dataforge-error-searching-filesystem -- when workspace detection fails
// 	- dataforge-error-workspace -- when the workspace cannot be opened
// 	- dataforge-error-io -- when creating an in-memory workspace fails
// 	- dataforge-error-catalog-invalid -- when the metastore is in an invalid state
func NewSession(ctx context.Context, opts ...SessionOption) (*Session, error) {
	var cfg sessionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	state, err := config.NewState()
	if err != nil {
		return nil, err
	}
	if cfg.namespace == "" {
		cfg.namespace = config.DefaultNamespace(state)
	}
	if cfg.project == "" {
		cfg.project = config.DefaultProject(state)
	}

	sess := &Session{id: uuid.NewString()}
	ws := cfg.workspace
	switch {
	case cfg.inMemory:
		ws, err = initTempWorkspace(sess.id)
		if err != nil {
			return nil, err
		}
		sess.tempDir = tempWorkspacePath(sess.id)
	case ws == nil:
		stack, e2 := config.DefaultWorkspaceStack(state)
		if e2 != nil {
			return nil, e2
		}
		ws = stack.Local()
	}

	cat, err := NewCatalog(ws, cfg.namespace, cfg.project)
	if err != nil {
		if sess.tempDir != "" {
			os.RemoveAll(sess.tempDir)
		}
		return nil, err
	}
	sess.cat = cat
	log := logging.Ctx(ctx)
	log.Debug("session", "opened session %s on workspace %q", sess.id, wsDescription(ws))
	return sess, nil
}

func tempWorkspacePath(id string) string {
	return filepath.Join(os.TempDir(), "dataforge-session-"+id)
}

func initTempWorkspace(id string) (*workspace.Workspace, error) {
	path := tempWorkspacePath(id)
	if err := workspace.InitWorkspace(path, true); err != nil {
		return nil, err
	}
	return workspace.OpenWorkspace(os.DirFS("/"), path[1:])
}

func wsDescription(ws *workspace.Workspace) string {
	_, path := ws.Path()
	return path
}

// ID returns the session's uuid.
func (sess *Session) ID() string {
	return sess.id
}

// Catalog returns the session's catalog handle.
func (sess *Session) Catalog() *Catalog {
	return sess.cat
}

// NewTempDatasetRef mints a ref for a session-owned temp dataset and tracks
// it for removal at Close.  Temp datasets never show up in listings.
func (sess *Session) NewTempDatasetRef() dfapi.DatasetRef {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.tempSeq++
	ref := dfapi.DatasetRef{
		Namespace: dfapi.NamespaceName(sess.cat.defaultNamespace),
		Project:   dfapi.ProjectName(sess.cat.defaultProject),
		Name:      dfapi.DatasetName(fmt.Sprintf("%s%.8s-%d", metastore.TempDatasetPrefix, sess.id, sess.tempSeq)),
	}
	sess.tempRefs = append(sess.tempRefs, ref)
	return ref
}

// TrackTempDataset registers an externally created temp dataset for removal
// at Close.
func (sess *Session) TrackTempDataset(ref dfapi.DatasetRef) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.tempRefs = append(sess.tempRefs, ref)
}

// Close removes the session's temp datasets and, for in-memory sessions, the
// backing workspace.  Close is idempotent.
//
// Errors:
//
// 	- dataforge-error-io -- when removing temp datasets or the temp workspace fails
func (sess *Session) Close(ctx context.Context) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return nil
	}
	sess.closed = true

	log := logging.Ctx(ctx)
	_, span := tracing.StartFn(ctx, "SessionClose")
	var err error
	defer func() { tracing.EndWithStatus(span, err) }()

	for _, ref := range sess.tempRefs {
		e2 := sess.cat.store.RemoveDataset(ref, "", true)
		switch serum.Code(e2) {
		case "", dfapi.CodeDatasetNotFound, dfapi.CodeProjectNotFound:
			// fine either way; the dataset may never have been materialized.
		default:
			log.Info("session", "failed to remove temp dataset %s: %s", ref.FullName(), e2)
			err = e2
		}
	}
	sess.tempRefs = nil

	if sess.tempDir != "" {
		if e2 := os.RemoveAll(sess.tempDir); e2 != nil {
			err = serum.Error(dfapi.CodeIo,
				serum.WithMessageTemplate("failed to remove session workspace at {{path|q}}"),
				serum.WithDetail("path", sess.tempDir),
				serum.WithCause(e2),
			)
		}
	}
	return err
}

var (
	defaultSessionMu sync.Mutex
	defaultSession   *Session
)

// DefaultSession returns the process-wide session, creating it on first use.
//
// Errors:
//
// 	- dataforge-error-serialization -- when copying process state fails
// 	- dataforge-error-searching-filesystem -- when workspace detection fails
// 	- dataforge-error-workspace -- when the workspace cannot be opened
// 	- dataforge-error-catalog-invalid -- when the metastore is in an invalid state
func DefaultSession(ctx context.Context) (*Session, error) {
	defaultSessionMu.Lock()
	defer defaultSessionMu.Unlock()
	if defaultSession != nil {
		return defaultSession, nil
	}
	sess, err := NewSession(ctx)
	if err != nil {
		return nil, err
	}
	defaultSession = sess
	return sess, nil
}

// CloseDefaultSession closes the process-wide session if one was created.
// The next DefaultSession call starts a fresh one.
//
// Errors:
//
// 	- dataforge-error-io -- when removing temp datasets fails
func CloseDefaultSession(ctx context.Context) error {
	defaultSessionMu.Lock()
	defer defaultSessionMu.Unlock()
	if defaultSession == nil {
		return nil
	}
	err := defaultSession.Close(ctx)
	defaultSession = nil
	return err
}
