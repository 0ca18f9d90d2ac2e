package csvcheck

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestBuilder_PreservesOrder(t *testing.T) {
	var b Builder
	b.AddHeader("b")
	b.AddHeader("a")
	b.AddMessage(Message{Code: 2, Row: 5})
	b.AddMessage(Message{Code: 1, Row: 2})
	b.AddMessage(Message{Code: 2, Row: 5})
	b.SetDataRowCount(4)
	b.SetFieldCount(2)

	rep := b.Finalize(time.Second)

	if rep.HeaderNames[0] != "b" || rep.HeaderNames[1] != "a" {
		t.Errorf("HeaderNames = %q", rep.HeaderNames)
	}
	if len(rep.Messages) != 3 {
		t.Fatalf("got %d messages, want 3 (no dedup)", len(rep.Messages))
	}
	if rep.Messages[0].Row != 5 || rep.Messages[1].Row != 2 {
		t.Errorf("messages reordered: %v", rep.Messages)
	}
	if rep.DataRowCount != 4 || rep.FieldCount != 2 || rep.Elapsed != time.Second {
		t.Errorf("report = %+v", rep)
	}
}

func TestBuilder_EmptyFinalize(t *testing.T) {
	var b Builder
	rep := b.Finalize(0)
	if rep.HeaderNames == nil || rep.Messages == nil {
		t.Error("Finalize should return empty, non-nil slices")
	}
	if !rep.Valid() || rep.HasErrors() {
		t.Error("empty report should be valid")
	}
}

func TestReport_Counts(t *testing.T) {
	rep := &Report{Messages: []Message{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityInformation},
		{Severity: SeverityError},
	}}

	if got := rep.CountBySeverity(SeverityError); got != 2 {
		t.Errorf("errors = %d, want 2", got)
	}
	if got := rep.AtOrAbove(SeverityWarning); got != 3 {
		t.Errorf("AtOrAbove(warning) = %d, want 3", got)
	}
	if got := rep.AtOrAbove(SeverityInformation); got != 4 {
		t.Errorf("AtOrAbove(information) = %d, want 4", got)
	}
	if !rep.HasErrors() {
		t.Error("HasErrors = false, want true")
	}
}

func TestSeverity_Text(t *testing.T) {
	for _, s := range []Severity{SeverityError, SeverityWarning, SeverityInformation} {
		b, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText: %v", err)
		}
		var back Severity
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if back != s {
			t.Errorf("got %v, want %v", back, s)
		}
	}

	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("expected error for unknown severity")
	}
	if s, _ := ParseSeverity("INFO"); s != SeverityInformation {
		t.Errorf("ParseSeverity(INFO) = %v", s)
	}
}

func TestMessage_JSON(t *testing.T) {
	m := Message{Code: CodeEmptyHeaderName, Severity: SeverityWarning, Kind: KindStructural, Row: 1, Field: 2, Offset: -1}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"severity":"warning"`) {
		t.Errorf("severity not encoded as text: %s", b)
	}
}

func TestMessage_String(t *testing.T) {
	m := Message{Code: 2, Severity: SeverityError, Content: "bad quote", Row: 3, Field: 2, FieldName: "name", Offset: 7}
	want := "error[2] row 3, field 2 (name), offset 7: bad quote"
	if got := m.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	m = Message{Code: 1, Severity: SeverityError, Content: "count", Row: 4, Field: -1, Offset: -1}
	if got := m.String(); got != "error[1] row 4: count" {
		t.Errorf("String() = %q", got)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"zero value", Options{}, false},
		{"semicolon", Options{Separator: ';'}, false},
		{"separator equals quote", Options{Separator: '\'', Quote: '\''}, true},
		{"newline separator", Options{Separator: '\n'}, true},
		{"carriage return quote", Options{Quote: '\r'}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseSeparator(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", ',', false},
		{",", ',', false},
		{"tab", '\t', false},
		{"\t", '\t', false},
		{"semicolon", ';', false},
		{"pipe", '|', false},
		{"§", '§', false},
		{";;", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSeparator(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeparator(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeparator(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
