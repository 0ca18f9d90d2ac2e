package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/google/uuid"
)

// jsonResult is one line of --format json output.
type jsonResult struct {
	RunID  uuid.UUID        `json:"runId"`
	File   string           `json:"file"`
	Valid  bool             `json:"valid"`
	Error  string           `json:"error,omitempty"`
	Report *csvcheck.Report `json:"report,omitempty"`
}

func writeResults(w io.Writer, format string, runID uuid.UUID, results []fileResult) error {
	if format == "json" {
		return writeJSONLines(w, runID, results)
	}
	return writeText(w, results)
}

// writeJSONLines writes one JSON object per file.
func writeJSONLines(w io.Writer, runID uuid.UUID, results []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range results {
		line := jsonResult{RunID: runID, File: displayPath(r.Path), Report: r.Report}
		if r.Err != nil {
			line.Error = r.Err.Error()
		} else {
			line.Valid = r.Report.Valid()
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
	}
	return nil
}

// writeText prints a summary line per file followed by its messages.
func writeText(w io.Writer, results []fileResult) error {
	for _, r := range results {
		name := displayPath(r.Path)
		if r.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: cannot validate: %v\n", name, r.Err); err != nil {
				return err
			}
			continue
		}

		rep := r.Report
		if _, err := fmt.Fprintf(w, "%s: %s, %s, %s, %s, %s\n", name,
			plural(rep.DataRowCount, "data row"), plural(rep.FieldCount, "field"),
			plural(rep.CountBySeverity(csvcheck.SeverityError), "error"),
			plural(rep.CountBySeverity(csvcheck.SeverityWarning), "warning"),
			plural(rep.CountBySeverity(csvcheck.SeverityInformation), "note")); err != nil {
			return err
		}
		for _, m := range rep.Messages {
			if _, err := fmt.Fprintf(w, "  %s\n", m); err != nil {
				return err
			}
		}
	}
	return nil
}

func displayPath(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
