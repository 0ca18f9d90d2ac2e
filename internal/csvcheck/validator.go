package csvcheck

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
)

// DefaultMaxLineBytes bounds a single physical line.
const DefaultMaxLineBytes = 1 << 20

// continuationJoiner rejoins physical lines of a quoted field.
const continuationJoiner = "\r\n"

// ErrLineTooLong is returned when a physical line exceeds the configured limit.
var ErrLineTooLong = errors.New("line too long")

// Validator validates CSV streams with fixed options.
// A Validator holds no per-run state and is safe for concurrent use.
type Validator struct {
	opts          Options
	maxLineBytes  int
	checkers      []HeaderChecker
	noEOFQuoteErr bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxLineBytes sets the largest accepted physical line.
func WithMaxLineBytes(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxLineBytes = n
		}
	}
}

// WithHeaderChecker registers a hook that runs after the header diagnostics.
func WithHeaderChecker(c HeaderChecker) Option {
	return func(v *Validator) {
		if c != nil {
			v.checkers = append(v.checkers, c)
		}
	}
}

// WithoutUnterminatedQuoteError drops the code 3 message for input that ends
// inside a quoted field. The open row is still not counted and the quoting
// messages found in it are still reported.
func WithoutUnterminatedQuoteError() Option {
	return func(v *Validator) {
		v.noEOFQuoteErr = true
	}
}

// New creates a Validator. Zero separator or quote runes take their defaults.
func New(opts Options, options ...Option) *Validator {
	v := &Validator{
		opts:         opts.withDefaults(),
		maxLineBytes: DefaultMaxLineBytes,
	}
	for _, o := range options {
		o(v)
	}
	return v
}

// Options returns the options the validator was built with.
func (v *Validator) Options() Options {
	return v.opts
}

// Validate reads r to the end and returns the report. It is shorthand for
// New(opts).Validate(ctx, r).
func Validate(ctx context.Context, r io.Reader, opts Options) (*Report, error) {
	return New(opts).Validate(ctx, r)
}

// ValidateString validates an in-memory document.
func ValidateString(ctx context.Context, s string, opts Options) (*Report, error) {
	return Validate(ctx, strings.NewReader(s), opts)
}

// run holds the state of one Validate call.
type run struct {
	opts       Options
	eofQuote   bool
	builder    Builder
	onHeader   bool
	headerDone bool
	expected   int
	haveCount  bool
	completed  int
	pending    string
	continuing bool
	last       RowResult
}

// Validate streams r line by line and returns the complete report.
//
// Reading failures, invalid UTF-8, oversized lines and context cancellation
// are returned as errors. Everything else, however malformed, ends up in the
// report's messages.
func (v *Validator) Validate(ctx context.Context, r io.Reader) (*Report, error) {
	start := time.Now()
	if err := v.opts.Validate(); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}

	scanner := bufio.NewScanner(DecodeInput(r))
	scanner.Buffer(make([]byte, 0, min(64*1024, v.maxLineBytes)), v.maxLineBytes)
	scanner.Split(scanPhysicalLines)

	st := &run{opts: v.opts, onHeader: v.opts.HasHeader, eofQuote: !v.noEOFQuoteErr}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st.consume(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrLineTooLong, v.maxLineBytes)
		}
		return nil, fmt.Errorf("read input: %w", err)
	}

	st.finishPending()
	st.checkHeader()
	if st.headerDone {
		for _, c := range v.checkers {
			st.builder.AddMessages(c.CheckHeader(st.builder.Headers()))
		}
	}

	dataRows := st.completed
	if st.headerDone {
		dataRows--
	}
	st.builder.SetDataRowCount(dataRows)
	st.builder.SetFieldCount(st.expected)

	return st.builder.Finalize(time.Since(start)), nil
}

// consume handles one physical line.
func (st *run) consume(line string) {
	text := line
	if st.continuing {
		text = st.pending + continuationJoiner + line
	}

	rowNum := st.completed + 1
	res := Classify([]rune(text), rowNum, st.opts, st.onHeader)

	if res.NeedsContinuation {
		st.pending = res.Text
		st.continuing = true
		st.last = res
		return
	}
	st.pending = ""
	st.continuing = false
	st.complete(res)
}

// complete records a finished logical row.
func (st *run) complete(res RowResult) {
	st.completed++
	st.addRowMessages(res.Messages)

	if st.onHeader {
		for _, name := range res.HeaderNames {
			st.builder.AddHeader(name)
		}
		st.onHeader = false
		st.headerDone = true
	}

	if !st.haveCount {
		st.expected = res.FieldCount
		st.haveCount = true
		return
	}
	if res.FieldCount != st.expected {
		st.builder.AddMessage(fieldCountMismatch(st.completed, res.FieldCount, st.expected))
	}
}

// finishPending reports a quoted field still open at end of input.
func (st *run) finishPending() {
	if !st.continuing {
		return
	}
	st.addRowMessages(st.last.Messages)
	if st.eofQuote {
		st.builder.AddMessage(structuralError(CodeUnterminatedQuote, msgUnterminated,
			st.completed+1, st.last.FieldCount, -1))
	}
	st.continuing = false
	st.pending = ""
}

// addRowMessages appends classifier messages, naming the field when the
// header is already known.
func (st *run) addRowMessages(ms []Message) {
	headers := st.builder.Headers()
	for _, m := range ms {
		if st.headerDone && m.FieldName == "" && m.Field >= 1 && m.Field <= len(headers) {
			m.FieldName = headers[m.Field-1]
		}
		st.builder.AddMessage(m)
	}
}

// checkHeader emits the header-quality messages in header order.
func (st *run) checkHeader() {
	for i, name := range st.builder.Headers() {
		switch {
		case name == "":
			st.builder.AddMessage(Message{
				Code:     CodeEmptyHeaderName,
				Severity: SeverityWarning,
				Content:  msgEmptyHeader,
				Kind:     KindStructural,
				Row:      1,
				Field:    i + 1,
				Offset:   -1,
			})
		case isBlank(name):
			st.builder.AddMessage(Message{
				Code:      CodeWhitespaceHeaderName,
				Severity:  SeverityInformation,
				Content:   msgWhitespaceHeader,
				Kind:      KindStructural,
				Row:       1,
				Field:     i + 1,
				FieldName: name,
				Offset:    -1,
			})
		}
	}
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
