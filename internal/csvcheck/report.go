package csvcheck

import "time"

// Report is the outcome of one validation run.
type Report struct {
	Elapsed      time.Duration `json:"elapsed"`
	DataRowCount int           `json:"dataRowCount"` // Completed rows, header excluded
	FieldCount   int           `json:"fieldCount"`   // Established by the first row
	HeaderNames  []string      `json:"headerNames"`
	Messages     []Message     `json:"messages"`
}

// CountBySeverity returns how many messages carry the given severity.
func (r *Report) CountBySeverity(s Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any Error-severity message was recorded.
func (r *Report) HasErrors() bool {
	return r.CountBySeverity(SeverityError) > 0
}

// Valid reports whether the input produced no messages at all.
func (r *Report) Valid() bool {
	return len(r.Messages) == 0
}

// AtOrAbove counts messages at least as severe as s.
// Error is the most severe level, Information the least.
func (r *Report) AtOrAbove(s Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity <= s {
			n++
		}
	}
	return n
}

// Builder accumulates the pieces of a Report during a run.
// Header names and messages are kept in append order; nothing is deduplicated.
type Builder struct {
	headers    []string
	messages   []Message
	dataRows   int
	fieldCount int
}

// AddHeader appends one header name.
func (b *Builder) AddHeader(name string) {
	b.headers = append(b.headers, name)
}

// AddMessage appends one message.
func (b *Builder) AddMessage(m Message) {
	b.messages = append(b.messages, m)
}

// AddMessages appends messages in order.
func (b *Builder) AddMessages(ms []Message) {
	b.messages = append(b.messages, ms...)
}

// Headers returns the header names collected so far.
// The slice is shared with the builder and must not be modified.
func (b *Builder) Headers() []string {
	return b.headers
}

// SetDataRowCount records the number of data rows.
func (b *Builder) SetDataRowCount(n int) {
	b.dataRows = n
}

// SetFieldCount records the expected field count.
func (b *Builder) SetFieldCount(n int) {
	b.fieldCount = n
}

// Finalize returns the assembled report. The builder should not be reused.
func (b *Builder) Finalize(elapsed time.Duration) *Report {
	headers := b.headers
	if headers == nil {
		headers = []string{}
	}
	messages := b.messages
	if messages == nil {
		messages = []Message{}
	}
	return &Report{
		Elapsed:      elapsed,
		DataRowCount: b.dataRows,
		FieldCount:   b.fieldCount,
		HeaderNames:  headers,
		Messages:     messages,
	}
}
