package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// writeResults prints results as an aligned table or as JSON.
func writeResults(w io.Writer, format string, results []Result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"results": results}); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RULE\tWINNER\tRANKING\tDETAIL")
	for _, r := range results {
		if r.Error != "" {
			_, _ = fmt.Fprintf(tw, "%s\t-\t-\terror: %s\n", r.Rule, r.Error)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Rule, r.Winner(), strings.Join(r.Ranking, " > "), detail(r))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

func detail(r Result) string {
	switch {
	case r.Dictator != nil:
		return "dictator=ballot " + strconv.Itoa(*r.Dictator)
	case len(r.Scores) > 0:
		parts := make([]string, len(r.Scores))
		for i, s := range r.Scores {
			parts[i] = strconv.FormatFloat(s, 'g', -1, 64)
		}
		return "scores=" + strings.Join(parts, ",")
	default:
		return ""
	}
}
