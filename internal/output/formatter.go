package output

import (
	"fmt"
	"io"
)

// Format represents the output format
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatTable    Format = "table"
)

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(digest *Digest, w io.Writer) error
}

// ParseFormat validates a user-supplied format name. Empty selects markdown.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatJSON, FormatTable:
		return Format(s), nil
	default:
		return "", fmt.Errorf("invalid output format: %s (must be markdown, json or table)", s)
	}
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatTable:
		return NewTableFormatter()
	default:
		return &MarkdownFormatter{}
	}
}
