// Package pipeline drives the per-file upload: session creation, chunked
// transfer of the media and its manifest, upload finalization, processing
// monitoring and cleanup.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/panoclone/internal/client/api"
	"github.com/dmitrijs2005/panoclone/internal/client/blob"
	"github.com/dmitrijs2005/panoclone/internal/client/store"
	"github.com/dmitrijs2005/panoclone/internal/logging"
	"github.com/dmitrijs2005/panoclone/internal/shared"
)

// transferAttempts is the total number of tries a chunked transfer gets
// before its error becomes fatal for the file.
const transferAttempts = 3

// Step is the pipeline's position, advanced strictly forward.
type Step int

const (
	StepCreatingSession Step = iota
	StepUploadingFile
	StepCreatingManifest
	StepFinishingUpload
	StepMonitoringProcessing
	StepCleanup
	StepDone
)

var stepNames = map[Step]string{
	StepCreatingSession:      "CreatingSession",
	StepUploadingFile:        "UploadingFile",
	StepCreatingManifest:     "CreatingManifest",
	StepFinishingUpload:      "FinishingUpload",
	StepMonitoringProcessing: "MonitoringProcessing",
	StepCleanup:              "Cleanup",
	StepDone:                 "Done",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// sessionAPI is the slice of the transport client the pipeline needs.
type sessionAPI interface {
	CreateUploadSession(ctx context.Context, folderID string) (*api.UploadSession, error)
	MarkUploadComplete(ctx context.Context, session *api.UploadSession) error
	GetUploadSession(ctx context.Context, id string) (*api.UploadSession, error)
}

// transferEngine is the slice of the chunked uploader the pipeline needs.
type transferEngine interface {
	Upload(ctx context.Context, target blob.Target, localPath string, progress blob.ProgressFunc) error
}

// Options tunes one Pipeline instance.
type Options struct {
	WorkDir          string        // directory for generated manifests
	RetryBase        time.Duration // base delay of the transfer retry backoff
	PollInterval     time.Duration // processing-state poll interval
	ProcessingBudget time.Duration // wall-clock budget of the poll loop
}

// Pipeline uploads single files. It is safe for concurrent use: every Run
// works on its own session and manifest file.
type Pipeline struct {
	api    sessionAPI
	engine transferEngine
	ledger *store.Ledger
	opts   Options
	log    logging.Logger
}

func New(api sessionAPI, engine transferEngine, ledger *store.Ledger, opts Options, log logging.Logger) *Pipeline {
	if opts.RetryBase <= 0 {
		opts.RetryBase = time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.ProcessingBudget <= 0 {
		opts.ProcessingBudget = 10 * time.Minute
	}
	return &Pipeline{api: api, engine: engine, ledger: ledger, opts: opts, log: log}
}

// Run uploads one file into folderID and returns its ledger record.
//
// Fatal errors (session creation, transfer exhaustion, finalization) abort
// the file without a ledger record. A processing timeout or remote
// processing failure is soft: the bytes are on the remote store, the record
// is written, and the error is returned for reporting only (errors.Is
// shared.ErrorProcessingTimeout / shared.ErrorProcessingFailed).
func (p *Pipeline) Run(ctx context.Context, localPath, folderID string) (store.Record, error) {
	taskID := uuid.NewString()
	log := p.log.With("task", taskID, "file", filepath.Base(localPath))

	step := func(s Step) {
		log.Info(ctx, "pipeline step", "step", s.String())
	}

	step(StepCreatingSession)
	session, err := p.api.CreateUploadSession(ctx, folderID)
	if err != nil {
		return store.Record{}, err
	}

	target, err := blob.ParseTarget(session.UploadTarget)
	if err != nil {
		return store.Record{}, err
	}

	step(StepUploadingFile)
	if err := p.uploadWithRetry(ctx, target, localPath, log); err != nil {
		return store.Record{}, err
	}

	step(StepCreatingManifest)
	manifestPath := filepath.Join(p.opts.WorkDir, fmt.Sprintf("manifest_%s.xml", taskID))
	if err := renderManifest(manifestPath, localPath, time.Now()); err != nil {
		return store.Record{}, err
	}
	// the manifest never outlives the pipeline, whatever the exit path
	defer os.Remove(manifestPath)

	if err := p.uploadWithRetry(ctx, target, manifestPath, log); err != nil {
		return store.Record{}, err
	}

	step(StepFinishingUpload)
	if err := p.api.MarkUploadComplete(ctx, session); err != nil {
		return store.Record{}, err
	}

	step(StepMonitoringProcessing)
	softErr := p.monitorProcessing(ctx, session.ID, log)
	if softErr != nil && !errors.Is(softErr, shared.ErrorProcessingTimeout) && !errors.Is(softErr, shared.ErrorProcessingFailed) {
		return store.Record{}, softErr
	}

	step(StepCleanup)
	rec := store.Record{TaskID: taskID, Path: localPath, FolderID: folderID}
	if err := p.ledger.Append(rec); err != nil {
		return store.Record{}, err
	}

	step(StepDone)
	return rec, softErr
}

// uploadWithRetry runs one chunked transfer under the bounded retry policy:
// exponential backoff from RetryBase with up to 1s of jitter, transferAttempts
// tries in total.
func (p *Pipeline) uploadWithRetry(ctx context.Context, target blob.Target, localPath string, log logging.Logger) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	progress := blob.NewProgress(info.Size())

	backoff := retry.WithMaxRetries(transferAttempts-1,
		retry.WithJitter(time.Second, retry.NewExponential(p.opts.RetryBase)))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := p.engine.Upload(ctx, target, localPath, func(uploaded, total int64) {
			progress.Update(uploaded)
			log.Debug(ctx, "transfer progress",
				"percent", progress.Percent(), "speed_mbps", progress.SpeedMBps())
		})
		if err != nil {
			log.Warn(ctx, "transfer attempt failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// monitorProcessing polls the session until it completes, fails terminally
// or the wall-clock budget runs out. Poll errors are inconclusive (the
// transport already absorbed recoverable auth failures) and do not consume
// the terminal branch.
func (p *Pipeline) monitorProcessing(ctx context.Context, sessionID string, log logging.Logger) error {
	deadline := time.Now().Add(p.opts.ProcessingBudget)
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		session, err := p.api.GetUploadSession(ctx, sessionID)
		if err != nil {
			log.Warn(ctx, "processing poll failed", "error", err)
		} else {
			log.Info(ctx, "processing state", "state", session.State.String())

			if session.State == api.StateComplete {
				return nil
			}
			if session.State.Failed() {
				log.Error(ctx, "remote processing failed", "state", session.State.String())
				return fmt.Errorf("session %s in state %s: %w", sessionID, session.State, shared.ErrorProcessingFailed)
			}
		}

		if time.Now().After(deadline) {
			// Not fatal: the server keeps processing asynchronously.
			log.Warn(ctx, "processing monitor budget exceeded, continuing run",
				"budget", p.opts.ProcessingBudget.String())
			return fmt.Errorf("session %s: %w", sessionID, shared.ErrorProcessingTimeout)
		}
	}
}
