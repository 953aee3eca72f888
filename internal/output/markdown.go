package output

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownFormatter prints the digest as one heading per day followed by a
// bullet per item.
type MarkdownFormatter struct{}

// Format writes the digest, or the no-activity line when it is empty.
func (f *MarkdownFormatter) Format(digest *Digest, w io.Writer) error {
	if digest.Empty() {
		_, err := fmt.Fprintln(w, NoActivityMessage(digest.WindowDays))
		return err
	}

	for _, day := range digest.Days {
		if _, err := fmt.Fprintf(w, "# %s (%s)\n", day.Weekday, day.Date); err != nil {
			return err
		}
		for _, e := range day.Entries {
			if _, err := fmt.Fprintln(w, formatLine(e)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func formatLine(e Entry) string {
	parts := []string{"-", e.URL, "-"}
	if e.Title != "" {
		parts = append(parts, e.Title)
	}
	if label := e.StateLabel(); label != "" {
		parts = append(parts, label)
	}
	if summary := e.ActivitySummary(); summary != "" {
		parts = append(parts, summary)
	}
	return strings.Join(parts, " ")
}
