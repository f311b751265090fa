// Package scheduler drains the file list through a bounded worker pool,
// resolving each file's destination folder and running the upload pipeline.
package scheduler

import (
	"context"
	"errors"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/panoclone/internal/client/store"
	"github.com/dmitrijs2005/panoclone/internal/logging"
	"github.com/dmitrijs2005/panoclone/internal/shared"
)

// runner starts one per-file upload pipeline.
type runner interface {
	Run(ctx context.Context, localPath, folderID string) (store.Record, error)
}

// Outcome is the result of one file's trip through the scheduler.
type Outcome struct {
	Path     string
	FolderID string
	TaskID   string
	Err      error // nil on success; set for skipped=false failures and timeouts
	TimedOut bool  // processing-monitor budget ran out, bytes uploaded anyway
	Skipped  bool  // already in the ledger, nothing done
}

// Scheduler uploads files with at most maxConcurrency pipelines in flight.
type Scheduler struct {
	pipeline       runner
	ledger         *store.Ledger
	resolver       *Resolver
	maxConcurrency int
	log            logging.Logger
}

func New(pipeline runner, ledger *store.Ledger, resolver *Resolver, maxConcurrency int, log logging.Logger) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Scheduler{
		pipeline:       pipeline,
		ledger:         ledger,
		resolver:       resolver,
		maxConcurrency: maxConcurrency,
		log:            log,
	}
}

// Run uploads every file in files and returns one Outcome per file, in the
// input order. A failing file never aborts the others: workers record their
// error in the Outcome instead of returning it to the group. Only context
// cancellation stops the run early; files not started by then carry the
// context error in their Outcome.
func (s *Scheduler) Run(ctx context.Context, files []string) []Outcome {
	outcomes := make([]Outcome, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, path := range files {
		path := path
		out := &outcomes[i]
		out.Path = path

		if s.ledger.Contains(path) {
			out.Skipped = true
			s.log.Info(ctx, "already uploaded, skipping", "file", path)
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out.Err = err
				return nil
			}

			folderID := s.resolver.FolderFor(path)
			out.FolderID = folderID

			rec, err := s.pipeline.Run(ctx, path, folderID)
			out.TaskID = rec.TaskID
			if err != nil {
				out.Err = err
				if errors.Is(err, shared.ErrorProcessingTimeout) {
					out.TimedOut = true
				} else {
					s.log.Error(ctx, "upload failed", "file", path, "error", err)
				}
			}
			return nil
		})
	}

	// workers never return errors, Wait only blocks
	_ = g.Wait()

	return outcomes
}

// Resolver maps a local file to the ID of its mirrored remote folder.
type Resolver struct {
	folders       folderMap
	sourceRoot    string
	destinationID string
	log           logging.Logger
}

type folderMap interface {
	Resolve(rel string) (string, bool)
}

func NewResolver(folders folderMap, sourceRoot, destinationID string, log logging.Logger) *Resolver {
	return &Resolver{
		folders:       folders,
		sourceRoot:    sourceRoot,
		destinationID: destinationID,
		log:           log,
	}
}

// FolderFor resolves the destination folder for path. Files directly under
// the source root, and files whose directory has no mirrored folder, go to
// the destination root.
func (r *Resolver) FolderFor(path string) string {
	rel, err := filepath.Rel(r.sourceRoot, filepath.Dir(path))
	if err != nil || rel == "." {
		return r.destinationID
	}
	rel = filepath.ToSlash(rel)

	if id, ok := r.folders.Resolve(rel); ok {
		return id
	}

	r.log.Warn(context.Background(), "no mirrored folder, uploading to destination root",
		"file", path, "dir", rel)
	return r.destinationID
}
