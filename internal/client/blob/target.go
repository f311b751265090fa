package blob

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Target is the blob store location of one upload session, parsed from the
// session's UploadTarget string: "endpoint/bucket/prefix", where bucket and
// prefix are single path elements without delimiters.
type Target struct {
	Endpoint string
	Bucket   string
	Prefix   string
}

// ParseTarget splits an UploadTarget into its endpoint, bucket and prefix.
func ParseTarget(uploadTarget string) (Target, error) {
	elements := strings.Split(strings.TrimRight(uploadTarget, "/"), "/")
	if len(elements) < 3 {
		return Target{}, fmt.Errorf("malformed upload target %q", uploadTarget)
	}
	return Target{
		Endpoint: strings.Join(elements[:len(elements)-2], "/"),
		Bucket:   elements[len(elements)-2],
		Prefix:   elements[len(elements)-1],
	}, nil
}

// ObjectKey returns the object key for a local file: "prefix/basename".
func (t Target) ObjectKey(localPath string) string {
	return t.Prefix + "/" + filepath.Base(localPath)
}
