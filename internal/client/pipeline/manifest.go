package pipeline

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// manifestTemplate is the session descriptor sent alongside each media file.
// Placeholders: {Title}, {Description}, {Filename}, {Date}.
//
//go:embed manifest_template.xml
var manifestTemplate string

// manifestDateFormat is UTC ISO-8601 with microsecond precision.
const manifestDateFormat = "2006-01-02T15:04:05.000000-00:00"

// renderManifest writes the manifest for mediaPath to manifestPath.
func renderManifest(manifestPath, mediaPath string, now time.Time) error {
	fileName := filepath.Base(mediaPath)

	content := strings.NewReplacer(
		"{Title}", xmlEscape(fileName),
		"{Description}", xmlEscape(fmt.Sprintf("Media session with the uploaded file %s", fileName)),
		"{Filename}", xmlEscape(fileName),
		"{Date}", now.UTC().Format(manifestDateFormat),
	).Replace(manifestTemplate)

	if err := os.WriteFile(manifestPath, []byte(content), 0o660); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func xmlEscape(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	).Replace(s)
}
