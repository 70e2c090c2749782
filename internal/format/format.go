// Package format renders headless results as text or JSON.
package format

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/covgis/meters/internal/export"
	"github.com/covgis/meters/internal/suggest"
)

// OutputFormat represents the format for non-interactive mode output
type OutputFormat string

const (
	// TextFormat is plain text output (default)
	TextFormat OutputFormat = "text"

	// JSONFormat is output wrapped in a JSON object
	JSONFormat OutputFormat = "json"
)

// IsValid checks if the output format is valid
func (f OutputFormat) IsValid() bool {
	return f == TextFormat || f == JSONFormat
}

// String returns the string representation of the output format
func (f OutputFormat) String() string {
	return string(f)
}

type suggestionJSON struct {
	Label   string `json:"label"`
	Payload any    `json:"payload"`
}

// Suggestions formats the suggestion list for query.
func Suggestions(query string, items []suggest.Item, format OutputFormat) (string, error) {
	switch format {
	case TextFormat:
		var b strings.Builder
		for _, it := range items {
			b.WriteString(it.Label)
			b.WriteByte('\n')
		}
		return strings.TrimSuffix(b.String(), "\n"), nil
	case JSONFormat:
		out := struct {
			Query       string           `json:"query"`
			Suggestions []suggestionJSON `json:"suggestions"`
		}{Query: query, Suggestions: []suggestionJSON{}}
		for _, it := range items {
			out.Suggestions = append(out.Suggestions, suggestionJSON{Label: it.Label, Payload: it.Payload})
		}
		return marshal(out)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

type jobJSON struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

// Jobs formats export jobs in submission order.
func Jobs(jobs []export.Job, format OutputFormat) (string, error) {
	switch format {
	case TextFormat:
		var b strings.Builder
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for _, j := range jobs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", j.ID, j.Title, j.Status, j.URL)
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}
		lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight(l, " ")
		}
		return strings.Join(lines, "\n"), nil
	case JSONFormat:
		out := struct {
			Jobs []jobJSON `json:"jobs"`
		}{Jobs: []jobJSON{}}
		for _, j := range jobs {
			out.Jobs = append(out.Jobs, jobJSON{ID: j.ID, Title: j.Title, Status: j.Status.String(), URL: j.URL})
		}
		return marshal(out)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func marshal(v any) (string, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes), nil
}
