package models

import "fmt"

// Format selects the on-disk representation of converted content
type Format string

const (
	// FormatMarkdown renders lesson pages to Markdown and downloads their
	// embedded assets.
	FormatMarkdown Format = "markdown"
	// FormatJSON dumps the raw platform payloads. No assets are downloaded
	// in this mode.
	FormatJSON Format = "json"
)

// Ext returns the file extension for the format, including the dot
func (f Format) Ext() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".md"
}

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (Format, error) {
	switch s {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want markdown or json)", s)
	}
}
