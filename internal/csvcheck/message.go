package csvcheck

import (
	"fmt"
	"strings"
)

// Code identifies the rule a message reports.
type Code int

const (
	CodeFieldCountMismatch   Code = 1
	CodeQuotePlacement       Code = 2
	CodeUnterminatedQuote    Code = 3
	CodeEmptyHeaderName      Code = 4
	CodeWhitespaceHeaderName Code = 5
)

// Severity classifies how serious a message is.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity parses a severity name. "info" is accepted for information.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "information", "info":
		return SeverityInformation, nil
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// Kind classifies the defect a message describes.
type Kind string

const (
	// KindStructural covers CSV syntax and shape: quoting, field counts, header names.
	KindStructural Kind = "structural"
	// KindSchema is used by header hooks that compare names against a profile.
	KindSchema Kind = "schema"
)

// Message is a single finding about the validated text.
type Message struct {
	Code      Code     `json:"code"`
	Severity  Severity `json:"severity"`
	Content   string   `json:"content"`
	Kind      Kind     `json:"kind"`
	Row       int      `json:"row"`       // 1-based logical row
	Field     int      `json:"field"`     // 1-based field, -1 if not field-specific
	FieldName string   `json:"fieldName"` // empty if unknown when detected
	Offset    int      `json:"offset"`    // 0-based character offset in the row, -1 if none
}

// String formats the message for terminals and logs.
func (m Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d] row %d", m.Severity, m.Code, m.Row)
	if m.Field > 0 {
		fmt.Fprintf(&b, ", field %d", m.Field)
		if m.FieldName != "" {
			fmt.Fprintf(&b, " (%s)", m.FieldName)
		}
	}
	if m.Offset >= 0 {
		fmt.Fprintf(&b, ", offset %d", m.Offset)
	}
	b.WriteString(": ")
	b.WriteString(m.Content)
	return b.String()
}

const (
	msgUnescapedQuote   = "unescaped quote detected in a quoted field"
	msgQuoteOutside     = "quote detected outside of a quoted string"
	msgUnterminated     = "the file ended inside a quoted field"
	msgEmptyHeader      = "a field name with a length of 0 characters was detected"
	msgWhitespaceHeader = "a field name with only whitespace characters was detected"
)

func structuralError(code Code, content string, row, field, offset int) Message {
	return Message{
		Code:     code,
		Severity: SeverityError,
		Content:  content,
		Kind:     KindStructural,
		Row:      row,
		Field:    field,
		Offset:   offset,
	}
}

func fieldCountMismatch(row, got, want int) Message {
	return structuralError(CodeFieldCountMismatch,
		fmt.Sprintf("the number of fields (%d) does not match the expected number of fields (%d)", got, want),
		row, -1, -1)
}
