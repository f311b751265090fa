// Package store persists run state between invocations: the folder mirror
// cache, the files-to-upload snapshot and the append-only upload ledger.
// Every file carries an explicit format version so compatibility across tool
// versions is a contract, not an accident of a generic serializer.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Cache file names, created inside the run's work directory.
const (
	FolderCacheName = ".created_folders.cache"
	FileListName    = ".files_to_upload.cache"
	LedgerName      = ".uploaded_files.cache"
)

// Clean removes all cache files from dir, forcing the next run to re-mirror
// and re-upload from scratch. Missing files are not an error.
func Clean(dir string) error {
	for _, name := range []string{FolderCacheName, FileListName, LedgerName} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
