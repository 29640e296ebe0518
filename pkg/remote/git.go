package remote

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/serum-errors/go-serum"
	"go.opentelemetry.io/otel/trace"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/dab"
	"github.com/datatools/dataforge/pkg/logging"
	"github.com/datatools/dataforge/pkg/tracing"
)

// GitRegistry serves dataset records out of a git repository that mirrors the
// metastore layout.  The repository is cloned into the workspace's registry
// cache directory and pulled on update; reads then go against the checkout.
// The backing store is read-only: removals are refused.
type GitRegistry struct {
	cfg       dfapi.GitRegistryConfig
	cachePath string
	fsys      fs.FS
}

func newGitRegistry(ctx context.Context, cfg dfapi.GitRegistryConfig, cachePath string) (GitRegistry, error) {
	reg := GitRegistry{
		cfg:       cfg,
		cachePath: cachePath,
		fsys:      os.DirFS(cachePath),
	}
	if err := reg.Update(ctx); err != nil {
		return GitRegistry{}, err
	}
	return reg, nil
}

func (reg *GitRegistry) Kind() string {
	return "git"
}

// Update clones the registry repository into the cache directory,
// or pulls when a checkout already exists.
//
// Errors:
//
// 	- dataforge-error-io -- when the cache path exists but is in a strange state
// 	- dataforge-error-git -- when cloning or pulling fails
func (reg *GitRegistry) Update(ctx context.Context) error {
	log := logging.Ctx(ctx)
	_, err := os.Stat(filepath.Join(reg.cachePath, ".git"))
	switch {
	case os.IsNotExist(err):
		log.Info("registry", "cloning registry %s into cache...", reg.cfg.Url)
		gitCtx, gitSpan := tracing.Start(ctx, "clone registry", trace.WithAttributes(tracing.AttrFullExecNameGit, tracing.AttrFullExecOperationGitClone))
		defer gitSpan.End()
		cloneOpts := &git.CloneOptions{
			URL: reg.cfg.Url,
		}
		if reg.cfg.Ref != nil {
			cloneOpts.ReferenceName = plumbing.ReferenceName(*reg.cfg.Ref)
		}
		_, err = git.PlainCloneContext(gitCtx, reg.cachePath, false, cloneOpts)
		tracing.EndWithStatus(gitSpan, err)
		if err != nil {
			return dfapi.ErrorGit("unable to clone registry", err)
		}
		return nil
	case err != nil:
		return dfapi.ErrorIo("unknown error with registry cache path", reg.cachePath, err)
	}

	repo, err := git.PlainOpen(reg.cachePath)
	if err != nil {
		return dfapi.ErrorGit("failed to open registry cache checkout", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return dfapi.ErrorGit("failed to open registry cache worktree", err)
	}
	gitCtx, gitSpan := tracing.Start(ctx, "pull registry", trace.WithAttributes(tracing.AttrFullExecNameGit, tracing.AttrFullExecOperationGitPull))
	err = wt.PullContext(gitCtx, &git.PullOptions{})
	if err == git.NoErrAlreadyUpToDate {
		log.Debug("registry", "registry cache already up to date")
		err = nil
	}
	tracing.EndWithStatus(gitSpan, err)
	if err != nil {
		return dfapi.ErrorGit("failed to pull registry", err)
	}
	log.Debug("registry", "registry cache updated")
	return nil
}

func (reg *GitRegistry) datasetPath(ref dfapi.DatasetRef) string {
	return filepath.Join(string(ref.Namespace), string(ref.Project), string(ref.Name), dab.MagicFilename_Dataset)
}

// GetDataset reads a dataset record from the registry checkout.
//
// Errors:
//
// 	- dataforge-error-dataset-not-found -- when the registry has no such dataset
// 	- dataforge-error-catalog-parse -- when the record cannot be parsed
// 	- dataforge-error-name-invalid -- when the stored record carries an invalid name
func (reg *GitRegistry) GetDataset(ctx context.Context, ref dfapi.DatasetRef) (*dfapi.Dataset, error) {
	recordPath := reg.datasetPath(ref)
	if _, err := fs.Stat(reg.fsys, recordPath); err != nil {
		return nil, dfapi.ErrorDatasetNotFound(ref.FullName())
	}
	ds, err := dab.DatasetFromFile(reg.fsys, recordPath)
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

// GetVersion reads the version record named by ref.Version from the checkout.
//
// Errors:
//
// 	- dataforge-error-dataset-version-not-found -- when the registry has no such version
// 	- dataforge-error-catalog-parse -- when the record cannot be parsed
func (reg *GitRegistry) GetVersion(ctx context.Context, ref dfapi.DatasetRef) (*dfapi.DatasetVersion, error) {
	versionPath := filepath.Join(string(ref.Namespace), string(ref.Project), string(ref.Name),
		dab.MagicDirname_Versions, string(ref.Version)+".json")
	if _, err := fs.Stat(reg.fsys, versionPath); err != nil {
		return nil, dfapi.ErrorDatasetVersionNotFound(ref.FullName(), string(ref.Version))
	}
	dv, err := dab.DatasetVersionFromFile(reg.fsys, versionPath)
	if err != nil {
		return nil, err
	}
	return &dv, nil
}

// ListDatasets walks the checkout and reads every dataset record.
// Files that do not sniff as dataset documents are skipped.
//
// Errors:
//
// 	- dataforge-error-io -- when walking the checkout fails
// 	- dataforge-error-catalog-parse -- when a record cannot be parsed
func (reg *GitRegistry) ListDatasets(ctx context.Context) ([]RemoteDataset, error) {
	var result []RemoteDataset
	err := fs.WalkDir(reg.fsys, ".", func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() != dab.MagicFilename_Dataset {
			return nil
		}
		// Layout is <ns>/<proj>/<ds>/_dataset.json; anything else is not a record.
		parts := strings.Split(walkPath, "/")
		if len(parts) != 4 {
			return nil
		}
		if ok, err := sniffDatasetDocument(reg.fsys, walkPath); err != nil || !ok {
			return err
		}
		ds, err := dab.DatasetFromFile(reg.fsys, walkPath)
		if err != nil {
			return err
		}
		result = append(result, RemoteDataset{
			Namespace: dfapi.NamespaceName(parts[0]),
			Project:   dfapi.ProjectName(parts[1]),
			Dataset:   &ds,
		})
		return nil
	})
	if err != nil {
		if serum.Code(err) != "" {
			return nil, err
		}
		return nil, dfapi.ErrorIo("failed to walk registry checkout", reg.cachePath, err)
	}
	return result, nil
}

// RemoveDataset is refused: git registries are read-only mirrors.
//
// Errors:
//
// 	- dataforge-error-registry-unsupported -- always
func (reg *GitRegistry) RemoveDataset(ctx context.Context, ref dfapi.DatasetRef, force bool) error {
	return dfapi.ErrorRegistryUnsupported("git", "remove dataset")
}

// sniffDatasetDocument peeks at a file to check it holds a dataset capsule.
func sniffDatasetDocument(fsys fs.FS, path string) (bool, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return false, dfapi.ErrorIo("failed to open record file", path, err)
	}
	defer f.Close()
	br := bufio.NewReaderSize(f, 1024)
	peek, _ := br.Peek(1024)
	marker, err := dab.GuessDocumentType(peek, dab.GuessMagic_All)
	if err != nil {
		return false, nil // unparsable file; not a record.
	}
	return marker == dab.GuessMagic_DatasetV1, nil
}
