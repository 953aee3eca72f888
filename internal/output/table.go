package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spiffcs/recap/internal/format"
	"github.com/spiffcs/recap/internal/model"
	"golang.org/x/term"
)

// Column widths
const (
	colType     = 5
	colRepo     = 28
	colTitle    = 44
	colState    = 8
	colActivity = 30
)

// TableFormatter formats output as a terminal table, one section per day
type TableFormatter struct {
	links bool
}

// NewTableFormatter creates a table formatter. Titles become terminal
// hyperlinks when stdout is a terminal.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{links: term.IsTerminal(int(os.Stdout.Fd()))}
}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func (f *TableFormatter) hyperlink(text, url string) string {
	if !f.links {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// Format outputs the digest as a table
func (f *TableFormatter) Format(digest *Digest, w io.Writer) error {
	if digest.Empty() {
		_, err := fmt.Fprintln(w, NoActivityMessage(digest.WindowDays))
		return err
	}

	heading := color.New(color.Bold)
	rule := strings.Repeat("-", colType+colRepo+colTitle+colState+colActivity+8)

	for _, day := range digest.Days {
		fmt.Fprintln(w, heading.Sprintf("%s (%s)", day.Weekday, day.Date))
		fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %s\n",
			colType, "Type",
			colRepo, "Repository",
			colTitle, "Title",
			colState, "State",
			"Activity")
		fmt.Fprintln(w, rule)

		for _, e := range day.Entries {
			f.formatRow(w, e)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func (f *TableFormatter) formatRow(w io.Writer, e Entry) {
	typeStr := "PR"
	if e.IsIssue {
		typeStr = "ISS"
	}

	repo, repoWidth := format.Truncate(repoFromHTMLURL(e.URL), colRepo)
	title, titleWidth := format.Truncate(e.Title, colTitle)
	title = format.PadRight(f.hyperlink(title, e.URL), titleWidth, colTitle)

	state := format.PadRight(string(e.State), len(e.State), colState)
	switch e.State {
	case model.StateMerged:
		state = color.MagentaString(state)
	case model.StateClosed:
		state = color.RedString(state)
	default:
		state = color.GreenString(state)
	}

	activity := strings.TrimSuffix(strings.TrimPrefix(e.ActivitySummary(), "("), ")")

	fmt.Fprintf(w, "%-*s  %s  %s  %s  %s\n",
		colType, typeStr,
		format.PadRight(repo, repoWidth, colRepo),
		title,
		state,
		activity)
}

// repoFromHTMLURL extracts owner/name from a github.com item URL.
func repoFromHTMLURL(u string) string {
	rest := u
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 3 {
		return u
	}
	return parts[1] + "/" + parts[2]
}
