// Package mirror recreates a local directory tree as remote folders and
// keeps the local-to-remote mapping.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/dmitrijs2005/panoclone/internal/client/api"
	"github.com/dmitrijs2005/panoclone/internal/filex"
	"github.com/dmitrijs2005/panoclone/internal/logging"
)

const folderDescription = "Created by panoclone"

// folderAPI is the slice of the transport client the builder needs.
type folderAPI interface {
	CreateFolder(ctx context.Context, name, description, parentID string) (*api.Folder, error)
}

// Builder walks the local tree and creates the matching remote folders,
// parents strictly before children.
type Builder struct {
	api   folderAPI
	pacer Pacer
	log   logging.Logger
}

func NewBuilder(api folderAPI, pacer Pacer, log logging.Logger) *Builder {
	return &Builder{api: api, pacer: pacer, log: log}
}

type frame struct {
	dir      string // local absolute path
	rel      string // slash-separated path relative to the root ("" for root)
	parentID string // remote folder the subdirectories are created under
}

// Build creates one remote folder per local subdirectory of localRoot that
// transitively contains at least one file, under destinationID. File-less
// subtrees produce no remote folders. The walk is an explicit stack so the
// pacing policy stays out of the traversal logic.
func (b *Builder) Build(ctx context.Context, localRoot, destinationID string) (*Map, error) {
	m := NewMap()

	stack := []frame{{dir: localRoot, rel: "", parentID: destinationID}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(f.dir)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", f.dir, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			dirPath := filepath.Join(f.dir, entry.Name())
			rel := path.Join(f.rel, entry.Name())

			hasFiles, err := filex.HasFiles(dirPath)
			if err != nil {
				return nil, err
			}
			if !hasFiles {
				b.log.Debug(ctx, "skipping file-less directory", "dir", rel)
				continue
			}

			if err := b.pacer.Wait(ctx); err != nil {
				return nil, err
			}

			folder, err := b.api.CreateFolder(ctx, entry.Name(), folderDescription, f.parentID)
			if err != nil {
				return nil, fmt.Errorf("mirror %s: %w", rel, err)
			}

			m.Add(rel, Entry{ID: folder.ID, Name: folder.Name, ParentID: f.parentID})
			stack = append(stack, frame{dir: dirPath, rel: rel, parentID: folder.ID})
		}
	}

	b.log.Info(ctx, "remote folder mirror built", "folders", m.Len())
	return m, nil
}
