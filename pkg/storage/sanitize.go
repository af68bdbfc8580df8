package storage

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"lxpfetch/pkg/models"
)

// unsafeChars matches everything outside letters, digits, dash, underscore,
// dot and space. Unicode letters count, so Cyrillic titles survive intact.
var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}\-_\. ]`)

// SanitizeName makes a platform title safe to use as a file or directory name
func SanitizeName(name string) string {
	sanitized := unsafeChars.ReplaceAllString(name, "_")
	sanitized = strings.TrimSpace(sanitized)
	if sanitized == "" {
		return "untitled"
	}
	return sanitized
}

// AssetFileName names a downloaded photo or document after its platform ID,
// keeping the extension from the locator. IDs make the names collision-free
// within a subject's assets directory.
func AssetFileName(kind models.Kind, id int64, locator string) string {
	prefix := "document"
	if kind == models.KindAsset {
		prefix = "photo"
	}
	return fmt.Sprintf("%s_%d%s", prefix, id, locatorExt(locator))
}

// locatorExt extracts the file extension from a locator, ignoring any query
// string
func locatorExt(locator string) string {
	if u, err := url.Parse(locator); err == nil && u.Path != "" {
		return path.Ext(u.Path)
	}
	return path.Ext(locator)
}
