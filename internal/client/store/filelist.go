package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const fileListHeader = "# panoclone files v1"

// SaveFileList writes the snapshot of files to upload, one path per line,
// preceded by a version header.
func SaveFileList(path string, files []string) error {
	var b strings.Builder
	b.WriteString(fileListHeader + "\n")
	for _, f := range files {
		b.WriteString(f + "\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o660); err != nil {
		return fmt.Errorf("write file list: %w", err)
	}
	return nil
}

// LoadFileList reads a snapshot written by SaveFileList. A missing file
// surfaces as fs.ErrNotExist.
func LoadFileList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var files []string
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			if line != fileListHeader {
				return nil, fmt.Errorf("unexpected file list header %q", line)
			}
			continue
		}
		if line == "" {
			continue
		}
		files = append(files, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read file list: %w", err)
	}
	return files, nil
}
