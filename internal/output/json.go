package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// JSONOutput wraps the digest with its summary for JSON output
type JSONOutput struct {
	*Digest
	Summary Summary `json:"summary"`
}

// Format outputs the digest and its summary as one JSON document
func (f *JSONFormatter) Format(digest *Digest, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(JSONOutput{
		Digest:  digest,
		Summary: Summarize(digest),
	})
}
