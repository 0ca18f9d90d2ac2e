// Package csvcheck validates the structure of CSV text.
//
// Validation never stops at the first defect. Every quoting problem, field-count
// mismatch and questionable header name is recorded as a [Message] with a
// [Severity], and the caller receives a complete [Report] for any readable stream.
// Only failures to read the input (I/O errors, invalid UTF-8, oversized lines)
// are returned as errors.
//
// # Flow
//
//	io.Reader -> DecodeInput (BOM, UTF-8) -> physical lines
//	          -> logical rows (quoted line breaks rejoined with "\r\n")
//	          -> Classify per row -> Builder -> Report
//
// [Classify] is a pure function over a single logical row. The [Validator] owns
// all per-run state, so independent calls may run in parallel without
// coordination.
//
// # Message Codes
//
//	1 - field count differs from the first row (Error)
//	2 - quote misplaced or unescaped (Error)
//	3 - input ended inside a quoted field (Error)
//	4 - empty header name (Warning)
//	5 - whitespace-only header name (Information)
//
// Codes 1, 2, 4 and 5 are the classic structural checks. Code 3 goes beyond
// them: without it an input that ends inside a quoted field silently loses its
// last row. It is on by default; [WithoutUnterminatedQuoteError] turns it off
// for callers that compare reports against tools lacking the check.
//
// # Header Hooks
//
// Column-level checks against a schema are not part of this package. Callers
// register a [HeaderChecker] with [WithHeaderChecker]; it receives the header
// names after the whole file was read and may return extra messages.
package csvcheck
