package csvcheck

// HeaderChecker inspects the header names of a file once it has been read.
//
// It is the attachment point for schema-aware checks (for example comparing the
// names against a profile). Returned messages are appended after the built-in
// header diagnostics. Checkers run only when the input had a header row.
type HeaderChecker interface {
	CheckHeader(names []string) []Message
}

// HeaderCheckerFunc adapts a function to the HeaderChecker interface.
type HeaderCheckerFunc func(names []string) []Message

// CheckHeader calls f(names).
func (f HeaderCheckerFunc) CheckHeader(names []string) []Message {
	return f(names)
}
