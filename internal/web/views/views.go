// Package views renders the HTML pages of the report browser.
//
// Pages are templ components assembled in Go with templ.ComponentFunc, so
// they render through the same templ.Component interface as generated
// templates and every dynamic value is escaped with templ.EscapeString.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/JonMunkholm/csvlint/internal/store"
	"github.com/a-h/templ"
)

const style = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2933}
table{border-collapse:collapse;width:100%}th,td{border:1px solid #cbd2d9;padding:.3rem .6rem;text-align:left}
th{background:#f5f7fa}.error{color:#b42318}.warning{color:#b54708}.information{color:#175cd3}
.ok{color:#027a48}.muted{color:#7b8794}`

// Page wraps body in the common HTML layout.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			"<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s - csvlint</title><style>%s</style></head><body>",
			templ.EscapeString(title), style); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// ReportList renders the newest reports as a table.
func ReportList(reports []store.Summary) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf("<h1>Validation reports</h1>")
		if len(reports) == 0 {
			ew.printf("<p class=\"muted\">No reports yet. POST a file to /api/validate.</p>")
			return ew.err
		}
		ew.printf("<table><tr><th>File</th><th>Profile</th><th>Rows</th><th>Errors</th><th>Warnings</th><th>Info</th><th>Created</th></tr>")
		for _, r := range reports {
			ew.printf("<tr><td><a href=\"/reports/%s\">%s</a></td><td>%s</td><td>%d</td><td class=\"error\">%d</td><td class=\"warning\">%d</td><td class=\"information\">%d</td><td>%s</td></tr>",
				r.ID, esc(displayName(r.FileName)), esc(r.ProfileName), r.DataRowCount,
				r.Errors, r.Warnings, r.Information, r.CreatedAt.Format(time.RFC3339))
		}
		ew.printf("</table>")
		return ew.err
	})
	return Page("Reports", body)
}

// ReportPage renders one stored report with all of its messages.
func ReportPage(r *store.StoredReport) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		rep := r.Report
		ew := &errWriter{w: w}
		ew.printf("<p><a href=\"/\">&larr; all reports</a></p><h1>%s</h1>", esc(displayName(r.FileName)))

		if rep.Valid() {
			ew.printf("<p class=\"ok\">No problems found.</p>")
		} else {
			ew.printf("<p><span class=\"error\">%d errors</span>, <span class=\"warning\">%d warnings</span>, <span class=\"information\">%d notes</span></p>",
				rep.CountBySeverity(csvcheck.SeverityError),
				rep.CountBySeverity(csvcheck.SeverityWarning),
				rep.CountBySeverity(csvcheck.SeverityInformation))
		}

		ew.printf("<table><tr><th>Data rows</th><td>%d</td></tr><tr><th>Fields</th><td>%d</td></tr>", rep.DataRowCount, rep.FieldCount)
		ew.printf("<tr><th>Separator</th><td><code>%s</code></td></tr><tr><th>Header row</th><td>%t</td></tr>", esc(separatorName(r.Separator)), r.HasHeader)
		if r.ProfileName != "" {
			ew.printf("<tr><th>Profile</th><td>%s</td></tr>", esc(r.ProfileName))
		}
		ew.printf("<tr><th>Bytes read</th><td>%d</td></tr><tr><th>Elapsed</th><td>%s</td></tr>", r.BytesRead, esc(rep.Elapsed.String()))
		ew.printf("<tr><th>Report ID</th><td class=\"muted\">%s</td></tr></table>", r.ID)

		if len(rep.HeaderNames) > 0 {
			ew.printf("<h2>Columns</h2><ol>")
			for _, name := range rep.HeaderNames {
				ew.printf("<li><code>%s</code></li>", esc(name))
			}
			ew.printf("</ol>")
		}

		if len(rep.Messages) > 0 {
			ew.printf("<h2>Messages</h2><table><tr><th>Severity</th><th>Code</th><th>Row</th><th>Field</th><th>Offset</th><th>Message</th></tr>")
			for _, m := range rep.Messages {
				ew.printf("<tr class=\"%s\"><td>%s</td><td>%d</td><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>",
					m.Severity, m.Severity, m.Code, m.Row, esc(fieldLabel(m)), position(m.Offset), esc(m.Content))
			}
			ew.printf("</table>")
		}
		return ew.err
	})
	return Page(displayName(r.FileName), body)
}

// ErrorPage renders a user-facing error.
func ErrorPage(message, action, code string) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<h1 class=\"error\">%s</h1><p>%s</p><p class=\"muted\">Code: %s</p><p><a href=\"/\">Back to reports</a></p>",
			esc(message), esc(action), esc(code))
		return err
	})
	return Page("Error", body)
}

// errWriter keeps the first write error so templates read top to bottom.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func esc(s string) string {
	return templ.EscapeString(s)
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed input)"
	}
	return name
}

func separatorName(sep string) string {
	switch sep {
	case "\t":
		return "tab"
	case " ":
		return "space"
	}
	return sep
}

func fieldLabel(m csvcheck.Message) string {
	if m.Field < 1 {
		return "-"
	}
	if m.FieldName != "" {
		return strconv.Itoa(m.Field) + " (" + m.FieldName + ")"
	}
	return strconv.Itoa(m.Field)
}

func position(offset int) string {
	if offset < 0 {
		return "-"
	}
	return strconv.Itoa(offset)
}
