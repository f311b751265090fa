package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/panoclone/internal/client/mirror"
	"github.com/dmitrijs2005/panoclone/internal/shared"
)

const folderCacheVersion = 1

type folderCacheFile struct {
	Version int                     `json:"version"`
	Folders map[string]mirror.Entry `json:"folders"`
}

// SaveFolderCache writes the folder map to path as versioned JSON.
func SaveFolderCache(path string, m *mirror.Map) error {
	data, err := json.MarshalIndent(folderCacheFile{
		Version: folderCacheVersion,
		Folders: m.Folders,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal folder cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0o660); err != nil {
		return fmt.Errorf("write folder cache: %w", err)
	}
	return nil
}

// LoadFolderCache reads a folder map previously written by SaveFolderCache.
// A missing file surfaces as fs.ErrNotExist; a version mismatch as
// shared.ErrorCacheVersion. Callers treat both as "rebuild the mirror".
func LoadFolderCache(path string) (*mirror.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cache folderCacheFile
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parse folder cache: %w", err)
	}
	if cache.Version != folderCacheVersion {
		return nil, fmt.Errorf("folder cache %s has version %d: %w", path, cache.Version, shared.ErrorCacheVersion)
	}
	return mirror.FromFolders(cache.Folders), nil
}
