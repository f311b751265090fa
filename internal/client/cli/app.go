package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/dmitrijs2005/panoclone/internal/client/api"
	"github.com/dmitrijs2005/panoclone/internal/client/blob"
	"github.com/dmitrijs2005/panoclone/internal/client/config"
	"github.com/dmitrijs2005/panoclone/internal/client/mirror"
	"github.com/dmitrijs2005/panoclone/internal/client/pipeline"
	"github.com/dmitrijs2005/panoclone/internal/client/scheduler"
	"github.com/dmitrijs2005/panoclone/internal/client/store"
	"github.com/dmitrijs2005/panoclone/internal/filex"
	"github.com/dmitrijs2005/panoclone/internal/logging"
	"github.com/dmitrijs2005/panoclone/internal/shared"
)

// apiClient is the slice of the transport client the app needs.
type apiClient interface {
	GetFolder(ctx context.Context, folderID string) (*api.Folder, error)
	CreateFolder(ctx context.Context, name, description, parentID string) (*api.Folder, error)
	CreateUploadSession(ctx context.Context, folderID string) (*api.UploadSession, error)
	MarkUploadComplete(ctx context.Context, session *api.UploadSession) error
	GetUploadSession(ctx context.Context, id string) (*api.UploadSession, error)
}

type transferEngine interface {
	Upload(ctx context.Context, target blob.Target, localPath string, progress blob.ProgressFunc) error
}

// App runs one mirroring-and-upload pass over the source tree.
type App struct {
	config *config.Config
	api    apiClient
	engine transferEngine
	log    logging.Logger
}

func NewApp(c *config.Config, client apiClient, engine transferEngine, log logging.Logger) *App {
	return &App{config: c, api: client, engine: engine, log: log}
}

// Run executes the full pass: optional cache cleanup, remote folder
// mirroring, file enumeration and the scheduled uploads. It returns an error
// when any file failed terminally; processing timeouts and skips do not fail
// the run.
func (a *App) Run(ctx context.Context) error {
	if a.config.Clean {
		a.log.Info(ctx, "cleaning local caches", "dir", a.config.WorkDir)
		if err := store.Clean(a.config.WorkDir); err != nil {
			return fmt.Errorf("clean caches: %w", err)
		}
	}

	// confirm the destination exists and the credential can reach it
	dest, err := a.api.GetFolder(ctx, a.config.DestinationID)
	if err != nil {
		return err
	}
	a.log.Info(ctx, "uploading into remote folder", "name", dest.Name, "id", dest.ID)

	folders, err := a.loadOrBuildMirror(ctx)
	if err != nil {
		return err
	}

	files, err := a.loadOrListFiles(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		a.log.Info(ctx, "no files to upload")
		return nil
	}

	ledger, err := store.OpenLedger(filepath.Join(a.config.WorkDir, store.LedgerName))
	if err != nil {
		return err
	}

	pl := pipeline.New(a.api, a.engine, ledger, pipeline.Options{
		WorkDir:          a.config.WorkDir,
		RetryBase:        a.config.RetryBase,
		PollInterval:     a.config.PollInterval,
		ProcessingBudget: a.config.ProcessingBudget,
	}, a.log)

	resolver := scheduler.NewResolver(folders, a.config.Source, a.config.DestinationID, a.log)
	sched := scheduler.New(pl, ledger, resolver, a.config.MaxConcurrency, a.log)

	outcomes := sched.Run(ctx, files)
	return a.summarize(ctx, outcomes)
}

// loadOrBuildMirror returns the local-to-remote folder map, reusing the
// folder cache when it loads. A missing or incompatible cache triggers a
// full rebuild against the remote service.
func (a *App) loadOrBuildMirror(ctx context.Context) (*mirror.Map, error) {
	cachePath := filepath.Join(a.config.WorkDir, store.FolderCacheName)

	m, err := store.LoadFolderCache(cachePath)
	if err == nil {
		a.log.Info(ctx, "folder mirror loaded from cache", "folders", m.Len())
		return m, nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case errors.Is(err, shared.ErrorCacheVersion):
		a.log.Warn(ctx, "incompatible folder cache, rebuilding", "error", err)
	default:
		return nil, err
	}

	builder := mirror.NewBuilder(a.api, mirror.NewFixedPacer(a.config.PacingDelay), a.log)
	m, err = builder.Build(ctx, a.config.Source, a.config.DestinationID)
	if err != nil {
		return nil, err
	}
	if err := store.SaveFolderCache(cachePath, m); err != nil {
		return nil, err
	}
	return m, nil
}

// loadOrListFiles returns the snapshot of files to upload, enumerating the
// source tree only when no snapshot exists yet. The snapshot keeps re-runs
// working on the same file set even if the tree changes mid-way.
func (a *App) loadOrListFiles(ctx context.Context) ([]string, error) {
	listPath := filepath.Join(a.config.WorkDir, store.FileListName)

	files, err := store.LoadFileList(listPath)
	if err == nil {
		a.log.Info(ctx, "file list loaded from snapshot", "files", len(files))
		return files, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	files, err = filex.ListFiles(a.config.Source)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", a.config.Source, err)
	}
	if err := store.SaveFileList(listPath, files); err != nil {
		return nil, err
	}
	a.log.Info(ctx, "file list snapshot written", "files", len(files))
	return files, nil
}

func (a *App) summarize(ctx context.Context, outcomes []scheduler.Outcome) error {
	var uploaded, skipped, timedOut int
	var failed []scheduler.Outcome
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			skipped++
		case o.TimedOut:
			timedOut++
		case o.Err != nil:
			failed = append(failed, o)
		default:
			uploaded++
		}
	}

	a.log.Info(ctx, "run finished",
		"uploaded", uploaded, "skipped", skipped,
		"timed_out", timedOut, "failed", len(failed))

	for _, o := range failed {
		a.log.Error(ctx, "file not uploaded", "file", o.Path, "error", o.Err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed to upload", len(failed), len(outcomes))
	}
	return nil
}
