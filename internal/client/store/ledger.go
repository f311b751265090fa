package store

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

const (
	ledgerVersionHeader = "# panoclone ledger v1"
	ledgerColumnHeader  = "task_id\tfile_path\tfolder_id"
)

// Record is one successfully uploaded file. Records are append-only and
// never updated once written.
type Record struct {
	TaskID   string
	Path     string
	FolderID string
}

// Ledger is the append-only on-disk record of uploaded files, used for
// resumability and audit. Appends are serialized with a mutex: the worker
// pool may finish several uploads concurrently.
type Ledger struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
	recs []Record
}

// OpenLedger opens (or creates) the ledger at path and indexes the already
// recorded file paths.
func OpenLedger(path string) (*Ledger, error) {
	l := &Ledger{path: path, seen: map[string]struct{}{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		header := ledgerVersionHeader + "\n" + ledgerColumnHeader + "\n"
		if err := os.WriteFile(path, []byte(header), 0o660); err != nil {
			return nil, fmt.Errorf("create ledger: %w", err)
		}
		return l, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	line := 0
	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), "\r\n")
		line++
		if line == 1 {
			if text != ledgerVersionHeader {
				return nil, fmt.Errorf("ledger %s: unexpected header %q", path, text)
			}
			continue
		}
		if line == 2 || text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("ledger %s: malformed line %d", path, line)
		}
		rec := Record{TaskID: fields[0], Path: fields[1], FolderID: fields[2]}
		l.recs = append(l.recs, rec)
		l.seen[rec.Path] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return l, nil
}

// Contains reports whether a file path was already recorded as uploaded.
func (l *Ledger) Contains(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[path]
	return ok
}

// Append writes one record to disk and the in-memory index.
func (l *Ledger) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o660)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\t%s\t%s\n", rec.TaskID, rec.Path, rec.FolderID); err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	l.recs = append(l.recs, rec)
	l.seen[rec.Path] = struct{}{}
	return nil
}

// Records returns a copy of all records read or appended so far.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.recs))
	copy(out, l.recs)
	return out
}
