package mirror

import (
	"path"
	"sort"
)

// Entry is one mirrored remote folder.
type Entry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent"`
}

// Map maps local subtrees to their mirrored remote folders. Keys are
// slash-separated paths relative to the source root ("a/b"), which keeps
// sibling directories with identical basenames distinct.
type Map struct {
	Folders map[string]Entry
}

func NewMap() *Map {
	return &Map{Folders: map[string]Entry{}}
}

// FromFolders wraps an existing key->entry mapping (e.g. a loaded cache).
func FromFolders(folders map[string]Entry) *Map {
	if folders == nil {
		folders = map[string]Entry{}
	}
	return &Map{Folders: folders}
}

func (m *Map) Add(rel string, e Entry) {
	m.Folders[rel] = e
}

func (m *Map) Get(rel string) (Entry, bool) {
	e, ok := m.Folders[rel]
	return e, ok
}

func (m *Map) Len() int {
	return len(m.Folders)
}

// Resolve returns the folder ID for a relative directory path. It prefers an
// exact relative-path match; when none exists it falls back to matching by
// basename (kept for compatibility with trees mirrored by older versions),
// scanning keys in sorted order so the fallback is deterministic.
func (m *Map) Resolve(rel string) (string, bool) {
	if e, ok := m.Folders[rel]; ok {
		return e.ID, true
	}

	base := path.Base(rel)
	keys := make([]string, 0, len(m.Folders))
	for k := range m.Folders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if path.Base(k) == base {
			return m.Folders[k].ID, true
		}
	}
	return "", false
}
