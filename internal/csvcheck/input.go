package csvcheck

// input.go provides streaming readers that prepare raw bytes for validation.
//
//   - BOMSkippingReader: removes a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - UTF8CheckingReader: fails with ErrInvalidEncoding on malformed UTF-8
//   - CountingReader: tracks bytes consumed for logging and progress
//
// DecodeInput applies the first two. Callers that need a byte count wrap the
// raw reader in a CountingReader before handing it over.

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrInvalidEncoding is returned when the input is not valid UTF-8.
// Encoding problems are fatal: they are never reported as messages.
var ErrInvalidEncoding = errors.New("invalid UTF-8 encoding")

// EncodingError locates the first invalid UTF-8 sequence.
type EncodingError struct {
	Offset int64 // Byte offset after BOM removal
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error: invalid UTF-8 sequence at byte %d", e.Offset)
}

// Unwrap lets errors.Is match ErrInvalidEncoding.
func (e *EncodingError) Unwrap() error {
	return ErrInvalidEncoding
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte
	pending    []byte // Non-BOM bytes read during detection
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if n == 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			n = 0
		}
		r.pending = r.buf[:n]
		if n == 0 && err == io.EOF {
			return 0, io.EOF
		}
	}

	if len(r.pending) > 0 {
		copied := copy(p, r.pending)
		r.pending = r.pending[copied:]
		return copied, nil
	}

	return r.reader.Read(p)
}

// UTF8CheckingReader passes bytes through unchanged and fails on the first
// invalid UTF-8 sequence. A multi-byte sequence split across two reads is held
// back until it is complete.
type UTF8CheckingReader struct {
	reader  io.Reader
	carry   []byte // Incomplete trailing sequence from the previous read
	offset  int64  // Bytes already returned
	err     error  // Sticky error
	pending []byte // Validated bytes not yet returned
}

// NewUTF8CheckingReader creates a new strict UTF-8 reader.
func NewUTF8CheckingReader(r io.Reader) *UTF8CheckingReader {
	return &UTF8CheckingReader{
		reader: r,
		carry:  make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (u *UTF8CheckingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(u.pending) > 0 {
		n := copy(p, u.pending)
		u.pending = u.pending[n:]
		u.offset += int64(n)
		return n, nil
	}
	if u.err != nil {
		return 0, u.err
	}

	for {
		buf := make([]byte, len(u.carry)+len(p))
		start := copy(buf, u.carry)
		u.carry = u.carry[:0]

		n, err := u.reader.Read(buf[start:])
		data := buf[:start+n]
		atEOF := err == io.EOF

		valid, bad := validPrefix(data, atEOF)
		if bad {
			u.err = &EncodingError{Offset: u.offset + int64(valid)}
		} else {
			u.carry = append(u.carry, data[valid:]...)
			if err != nil {
				u.err = err
			}
		}

		u.pending = data[:valid]
		copied := copy(p, u.pending)
		u.pending = u.pending[copied:]
		u.offset += int64(copied)

		if copied > 0 {
			return copied, nil
		}
		if u.err != nil {
			return 0, u.err
		}
		if n == 0 {
			return 0, nil
		}
	}
}

// validPrefix returns the length of the longest valid UTF-8 prefix of data.
// bad is set when an invalid sequence follows it. When atEOF is false an
// incomplete sequence at the very end is not treated as invalid.
func validPrefix(data []byte, atEOF bool) (n int, bad bool) {
	for n < len(data) {
		if data[n] < utf8.RuneSelf {
			n++
			continue
		}
		if !atEOF && !utf8.FullRune(data[n:]) {
			return n, false
		}
		r, size := utf8.DecodeRune(data[n:])
		if r == utf8.RuneError && size == 1 {
			return n, true
		}
		n += size
	}
	return n, false
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // If known (0 if unknown)
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{
		reader: r,
		Total:  total,
	}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// DecodeInput strips a leading BOM and enforces UTF-8.
func DecodeInput(r io.Reader) io.Reader {
	return NewUTF8CheckingReader(NewBOMSkippingReader(r))
}
