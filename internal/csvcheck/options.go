package csvcheck

import (
	"fmt"
	"unicode/utf8"
)

// Options controls how rows are split into fields.
// Options are passed by value and never modified during a run.
type Options struct {
	Separator rune // Field separator (default ',')
	Quote     rune // Quoting character (default '"')
	HasHeader bool // First logical row holds the column names
}

// DefaultOptions returns comma-separated, double-quoted options with a header row.
func DefaultOptions() Options {
	return Options{
		Separator: ',',
		Quote:     '"',
		HasHeader: true,
	}
}

// withDefaults fills zero-valued runes with their defaults.
func (o Options) withDefaults() Options {
	if o.Separator == 0 {
		o.Separator = ','
	}
	if o.Quote == 0 {
		o.Quote = '"'
	}
	return o
}

// Validate reports options that cannot describe a CSV dialect.
func (o Options) Validate() error {
	o = o.withDefaults()
	if !utf8.ValidRune(o.Separator) {
		return fmt.Errorf("invalid separator %U", o.Separator)
	}
	if !utf8.ValidRune(o.Quote) {
		return fmt.Errorf("invalid quote %U", o.Quote)
	}
	if o.Separator == o.Quote {
		return fmt.Errorf("separator and quote must differ (both %q)", o.Separator)
	}
	if o.Separator == '\r' || o.Separator == '\n' || o.Quote == '\r' || o.Quote == '\n' {
		return fmt.Errorf("separator and quote cannot be line breaks")
	}
	return nil
}

// ParseSeparator converts a user-supplied separator into a rune.
// Accepts a single character or one of the names "comma", "tab", "semicolon", "pipe".
func ParseSeparator(s string) (rune, error) {
	switch s {
	case "", "comma":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("separator must be a single character, got %q", s)
	}
	return r, nil
}
