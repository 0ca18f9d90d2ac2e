package views

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/JonMunkholm/csvlint/internal/store"
	"github.com/google/uuid"
)

func TestReportPage(t *testing.T) {
	r := &store.StoredReport{
		ID:        uuid.MustParse("7d9f5a3e-0000-4000-8000-000000000001"),
		FileName:  "<script>.csv",
		Separator: "\t",
		HasHeader: true,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Report: &csvcheck.Report{
			DataRowCount: 2,
			FieldCount:   2,
			HeaderNames:  []string{"id", "na&me"},
			Messages: []csvcheck.Message{{
				Code: csvcheck.CodeQuotePlacement, Severity: csvcheck.SeverityError,
				Content: "quote detected outside of a quoted string", Kind: csvcheck.KindStructural,
				Row: 2, Field: 2, FieldName: "na&me", Offset: 4,
			}},
		},
	}

	var sb strings.Builder
	if err := ReportPage(r).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"&lt;script&gt;.csv",
		"<code>tab</code>",
		"1 errors",
		"2 (na&amp;me)",
		"quote detected outside of a quoted string",
		"7d9f5a3e-0000-4000-8000-000000000001",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Error("file name was not escaped")
	}
}

func TestReportPage_Valid(t *testing.T) {
	r := &store.StoredReport{Report: &csvcheck.Report{}}

	var sb strings.Builder
	if err := ReportPage(r).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(sb.String(), "No problems found.") {
		t.Error("valid report should say no problems were found")
	}
	if !strings.Contains(sb.String(), "(unnamed input)") {
		t.Error("empty file name should get a placeholder")
	}
}

func TestReportList(t *testing.T) {
	tests := []struct {
		name    string
		reports []store.Summary
		want    string
	}{
		{"empty", nil, "No reports yet"},
		{"one row", []store.Summary{{ID: uuid.Nil, FileName: "a.csv", Errors: 3}}, `<a href="/reports/00000000-0000-0000-0000-000000000000">a.csv</a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			if err := ReportList(tt.reports).Render(context.Background(), &sb); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !strings.Contains(sb.String(), tt.want) {
				t.Errorf("output missing %q", tt.want)
			}
		})
	}
}

func TestErrorPage(t *testing.T) {
	var sb strings.Builder
	if err := ErrorPage("Report not found", "Validate again", "RPT001").Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(sb.String(), "Code: RPT001") {
		t.Errorf("missing code in %q", sb.String())
	}
}
