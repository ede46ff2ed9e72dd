package report

import (
	"fmt"
	"io"
)

// Format renders the report one line per triggered entry: the fail partition
// first, then warn, each line prefixed with its severity.
func Format(r *Report) []string {
	lines := make([]string, 0, r.Len())
	for _, e := range r.Fail {
		lines = append(lines, "fail: "+e.Message)
	}
	for _, e := range r.Warn {
		lines = append(lines, "warn: "+e.Message)
	}
	return lines
}

// WriteText writes the formatted report followed by a one-line summary.
func WriteText(w io.Writer, r *Report) error {
	for _, line := range Format(r) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	verdict := "valid"
	if r.Failed() {
		verdict = "invalid"
	}
	_, err := fmt.Fprintf(w, "%d fail, %d warn: %s\n", len(r.Fail), len(r.Warn), verdict)
	return err
}
