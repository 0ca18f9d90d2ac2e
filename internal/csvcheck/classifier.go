package csvcheck

// classifier.go holds the per-row quote state machine.
//
// A row is scanned once, left to right, with one character of lookahead and one
// of lookback. The scanner is always in exactly one state:
//
//	stateUnquoted       outside any quoted field
//	stateQuoted         inside a quoted field
//	statePendingEscape  inside a quoted field, previous char was a quote that
//	                    may be the first half of a doubled ""
//
// Quote transitions (first matching rule wins):
//
//	Unquoted  + quote at row start or after sep      -> Quoted
//	Quoted*   + quote at row end or before sep       -> Unquoted
//	Quoted    + quote before anything else           -> PendingEscape
//	Pending   + quote                                -> Quoted   (literal ")
//	Pending   + other char                           -> Quoted   (code 2)
//	Unquoted  + quote after a non-separator          -> Unquoted (code 2)
//	Quoted    + other char at row end                -> continue on next line
//
// Continuation is decided by the state the last character is read in, so a
// row whose last character resolves a pending escape does not continue.

type quoteState int

const (
	stateUnquoted quoteState = iota
	stateQuoted
	statePendingEscape
)

func (s quoteState) inQuotedField() bool {
	return s != stateUnquoted
}

// RowResult is the classification of one logical row.
type RowResult struct {
	FieldCount        int
	NeedsContinuation bool
	Text              string   // Raw row, only set when NeedsContinuation
	HeaderNames       []string // Only set for the header row
	Messages          []Message
}

// rowScanner carries the state for one Classify call.
type rowScanner struct {
	row     []rune
	rowNum  int
	sep     rune
	quote   rune
	header  bool
	state   quoteState
	field   int
	prevSep int
	result  RowResult
}

// Classify scans one logical row and reports its field count, quoting defects,
// and whether a quoted field is still open at the end of the row. rowNum is the
// 1-based logical row number stamped on messages. When isHeader is set the
// field texts are returned as HeaderNames, one per field.
//
// Classify does not modify row and performs no I/O.
func Classify(row []rune, rowNum int, opts Options, isHeader bool) RowResult {
	opts = opts.withDefaults()
	s := &rowScanner{
		row:    row,
		rowNum: rowNum,
		sep:    opts.Separator,
		quote:  opts.Quote,
		header: isHeader,
		field:  1,
	}

	if len(row) == 0 {
		s.result.FieldCount = 1
		if isHeader {
			s.result.HeaderNames = []string{""}
		}
		return s.result
	}

	last := len(row) - 1
	for i, c := range row {
		continues := s.step(i, c)

		if !s.state.inQuotedField() && c == s.sep {
			s.endField(i)
		}

		if i == last {
			if s.header {
				s.result.HeaderNames = append(s.result.HeaderNames, string(row[s.prevSep:]))
			}
			if continues {
				s.result.NeedsContinuation = true
				s.result.Text = string(row)
			}
		}
	}

	s.result.FieldCount = s.field
	return s.result
}

// step applies the single quote transition that matches position i and
// reports whether the row continues on the next physical line.
func (s *rowScanner) step(i int, c rune) bool {
	isQuote := c == s.quote
	first := i == 0
	lastChar := i == len(s.row)-1

	switch {
	case s.state == stateUnquoted && isQuote && (first || s.row[i-1] == s.sep):
		s.state = stateQuoted

	case s.state.inQuotedField() && isQuote && (lastChar || s.row[i+1] == s.sep):
		s.state = stateUnquoted

	case s.state == stateQuoted && isQuote && !lastChar && s.row[i+1] != s.sep:
		s.state = statePendingEscape

	case s.state == statePendingEscape && isQuote && !first && s.row[i-1] == s.quote:
		s.state = stateQuoted

	case s.state == statePendingEscape && !isQuote:
		s.report(msgUnescapedQuote, i)
		s.state = stateQuoted

	case s.state == stateUnquoted && isQuote && !first && s.row[i-1] != s.sep:
		s.report(msgQuoteOutside, i)

	case s.state == stateQuoted && lastChar:
		return true
	}
	return false
}

// endField closes the current field at separator position i.
func (s *rowScanner) endField(i int) {
	s.field++
	if s.header {
		s.result.HeaderNames = append(s.result.HeaderNames, string(s.row[s.prevSep:i]))
		s.prevSep = i + 1
	}
}

func (s *rowScanner) report(content string, offset int) {
	s.result.Messages = append(s.result.Messages,
		structuralError(CodeQuotePlacement, content, s.rowNum, s.field, offset))
}
