// Package csvio contains the streaming CSV primitives of the booking import
// pipeline: a chunked line scanner, delimiter sniffing, header field mapping
// and the per-row normalization helpers. Everything here is tolerant by
// construction; malformed input degrades to a skippable value instead of an
// error.
package csvio

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 150 * 1024

// maxEmptyReads bounds consecutive (0, nil) reads before the scanner gives
// up with io.ErrNoProgress, mirroring bufio's stance.
const maxEmptyReads = 100

// LineScanner yields decoded text lines from a reader without buffering the
// whole input: it reads fixed-size binary chunks, splits on line feeds and
// carries the incomplete trailing fragment into the next read. Lines are
// decoded as UTF-8 with a Latin-1 fallback, so Scan never fails on malformed
// bytes. The sequence is lazy, finite and non-restartable.
type LineScanner struct {
	r          io.Reader
	chunkSize  int
	buf        []byte
	carry      []byte
	pending    []string
	line       string
	eof        bool
	err        error
	emptyReads int
}

// NewLineScanner returns a LineScanner reading r in DefaultChunkSize chunks.
func NewLineScanner(r io.Reader) *LineScanner {
	return NewLineScannerSize(r, DefaultChunkSize)
}

// NewLineScannerSize returns a LineScanner with an explicit chunk size.
func NewLineScannerSize(r io.Reader, chunkSize int) *LineScanner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &LineScanner{
		r:         r,
		chunkSize: chunkSize,
		buf:       make([]byte, chunkSize),
	}
}

// Scan advances to the next line. It returns false at end of input or on a
// read error (see Err).
func (s *LineScanner) Scan() bool {
	for len(s.pending) == 0 {
		if s.eof {
			return false
		}
		s.fill()
	}
	s.line = s.pending[0]
	s.pending = s.pending[1:]
	return true
}

// Text returns the line read by the last successful Scan.
func (s *LineScanner) Text() string {
	return s.line
}

// Err returns the first non-EOF read error encountered, if any.
func (s *LineScanner) Err() error {
	return s.err
}

// fill reads one chunk and splits completed lines out of the carry buffer.
func (s *LineScanner) fill() {
	n, err := s.r.Read(s.buf)
	if n > 0 {
		s.emptyReads = 0
		s.carry = append(s.carry, s.buf[:n]...)
		for {
			idx := bytes.IndexByte(s.carry, '\n')
			if idx < 0 {
				break
			}
			s.pending = append(s.pending, decodeLine(s.carry[:idx]))
			s.carry = s.carry[idx+1:]
		}
	}
	if err == nil && n == 0 {
		// A reader may legally return (0, nil); refuse to spin on one that
		// never makes progress.
		s.emptyReads++
		if s.emptyReads >= maxEmptyReads {
			err = io.ErrNoProgress
		}
	}
	if err != nil {
		s.eof = true
		if err != io.EOF {
			s.err = err
		}
		// Final line without a trailing newline.
		if len(s.carry) > 0 {
			s.pending = append(s.pending, decodeLine(s.carry))
			s.carry = nil
		}
	}
}

// decodeLine strips a trailing CR and decodes the bytes as UTF-8, falling
// back to Latin-1 when the bytes are not valid UTF-8.
func decodeLine(b []byte) string {
	b = bytes.TrimSuffix(b, []byte{'\r'})
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
