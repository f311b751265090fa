package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/panoclone/internal/client/mirror"
	"github.com/dmitrijs2005/panoclone/internal/client/store"
	"github.com/dmitrijs2005/panoclone/internal/logging"
	"github.com/dmitrijs2005/panoclone/internal/shared"
)

type fakePipeline struct {
	mu       sync.Mutex
	inFlight int32
	maxSeen  int32
	failPath string
	delay    time.Duration
	calls    []string
}

func (f *fakePipeline) Run(ctx context.Context, localPath, folderID string) (store.Record, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxSeen, max, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, localPath)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if localPath == f.failPath {
		return store.Record{}, errors.New("boom")
	}
	return store.Record{TaskID: "task-" + filepath.Base(localPath), Path: localPath, FolderID: folderID}, nil
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestScheduler(t *testing.T, p *fakePipeline, concurrency int) (*Scheduler, *store.Ledger) {
	t.Helper()
	ledger, err := store.OpenLedger(filepath.Join(t.TempDir(), store.LedgerName))
	require.NoError(t, err)

	m := mirror.NewMap()
	m.Add("a", mirror.Entry{ID: "id-a"})
	m.Add("a/b", mirror.Entry{ID: "id-ab"})

	resolver := NewResolver(m, "/src", "root123", discardLogger())
	return New(p, ledger, resolver, concurrency, discardLogger()), ledger
}

func TestRun_UploadsAllAndResolvesFolders(t *testing.T) {
	p := &fakePipeline{}
	s, _ := newTestScheduler(t, p, 2)

	files := []string{
		filepath.Join("/src", "top.mp4"),
		filepath.Join("/src", "a", "one.mp4"),
		filepath.Join("/src", "a", "b", "two.mp4"),
	}
	outcomes := s.Run(context.Background(), files)

	require.Len(t, outcomes, 3)
	require.Equal(t, "root123", outcomes[0].FolderID)
	require.Equal(t, "id-a", outcomes[1].FolderID)
	require.Equal(t, "id-ab", outcomes[2].FolderID)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		require.False(t, o.Skipped)
		require.NotEmpty(t, o.TaskID)
	}
}

func TestRun_FailureIsIsolated(t *testing.T) {
	p := &fakePipeline{failPath: filepath.Join("/src", "bad.mp4")}
	s, _ := newTestScheduler(t, p, 1)

	files := []string{
		filepath.Join("/src", "bad.mp4"),
		filepath.Join("/src", "good.mp4"),
	}
	outcomes := s.Run(context.Background(), files)

	require.Error(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	require.Len(t, p.calls, 2)
}

func TestRun_SkipsLedgeredFiles(t *testing.T) {
	p := &fakePipeline{}
	s, ledger := newTestScheduler(t, p, 2)

	done := filepath.Join("/src", "done.mp4")
	require.NoError(t, ledger.Append(store.Record{TaskID: "t1", Path: done, FolderID: "root123"}))

	outcomes := s.Run(context.Background(), []string{done, filepath.Join("/src", "new.mp4")})

	require.True(t, outcomes[0].Skipped)
	require.NoError(t, outcomes[0].Err)
	require.False(t, outcomes[1].Skipped)
	require.Len(t, p.calls, 1)
}

func TestRun_RespectsConcurrencyLimit(t *testing.T) {
	p := &fakePipeline{delay: 5 * time.Millisecond}
	s, _ := newTestScheduler(t, p, 2)

	files := make([]string, 10)
	for i := range files {
		files[i] = filepath.Join("/src", fmt.Sprintf("clip%d.mp4", i))
	}

	outcomes := s.Run(context.Background(), files)
	require.Len(t, outcomes, 10)
	require.LessOrEqual(t, p.maxSeen, int32(2))
}

func TestRun_TimeoutMarksOutcome(t *testing.T) {
	p := &timeoutPipeline{}
	ledger, err := store.OpenLedger(filepath.Join(t.TempDir(), store.LedgerName))
	require.NoError(t, err)
	resolver := NewResolver(mirror.NewMap(), "/src", "root123", discardLogger())
	s := New(p, ledger, resolver, 1, discardLogger())

	outcomes := s.Run(context.Background(), []string{filepath.Join("/src", "slow.mp4")})

	require.True(t, outcomes[0].TimedOut)
	require.ErrorIs(t, outcomes[0].Err, shared.ErrorProcessingTimeout)
}

type timeoutPipeline struct{}

func (timeoutPipeline) Run(ctx context.Context, localPath, folderID string) (store.Record, error) {
	rec := store.Record{TaskID: "t1", Path: localPath, FolderID: folderID}
	return rec, fmt.Errorf("session t1: %w", shared.ErrorProcessingTimeout)
}

func TestFolderFor_Fallbacks(t *testing.T) {
	m := mirror.NewMap()
	m.Add("a", mirror.Entry{ID: "id-a"})
	r := NewResolver(m, "/src", "root123", discardLogger())

	// root-level file
	require.Equal(t, "root123", r.FolderFor(filepath.Join("/src", "clip.mp4")))
	// mapped directory
	require.Equal(t, "id-a", r.FolderFor(filepath.Join("/src", "a", "clip.mp4")))
	// unmapped directory falls back to the destination root
	require.Equal(t, "root123", r.FolderFor(filepath.Join("/src", "zzz", "clip.mp4")))
}
