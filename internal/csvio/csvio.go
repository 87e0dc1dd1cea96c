// Package csvio reads order exports into record sets and writes the
// processed table back out.
//
// Exports come from spreadsheet programs and web shops in varying shape:
//
//   - UTF-8 with or without a BOM (Excel on Windows adds one)
//   - Legacy single-byte encodings (windows-1252, iso-8859-1)
//   - Comma or semicolon delimited, sometimes with sloppy quoting
//   - Split across several files that must be concatenated
//
// Invalid UTF-8 is replaced with U+FFFD rather than rejected, so a single bad
// byte never blocks a whole file.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/setdecoder/internal/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrEmptyFile is returned for input without a header row.
	ErrEmptyFile = errors.New("empty file")
	// ErrNoCSVFiles is returned by LoadDir for a folder without *.csv files.
	ErrNoCSVFiles = errors.New("no csv files")
)

// Encodings supported for order exports, keyed by configuration name.
var encodings = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8,
	"utf8":         unicode.UTF8,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
}

// LookupEncoding returns the encoding for a configuration name. Blank means UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, ok := encodings[name]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// config holds reader and writer settings.
type config struct {
	delimiter rune
	encoding  encoding.Encoding
}

// Option is a functional option for reading and writing.
type Option func(*config)

// WithDelimiter sets the field delimiter (default is comma).
func WithDelimiter(d rune) Option {
	return func(c *config) {
		if d != 0 {
			c.delimiter = d
		}
	}
}

// WithEncoding sets the character encoding of the input (default UTF-8).
// A BOM in the input still takes precedence.
func WithEncoding(enc encoding.Encoding) Option {
	return func(c *config) {
		if enc != nil {
			c.encoding = enc
		}
	}
}

func newConfig(opts []Option) config {
	c := config{delimiter: ',', encoding: unicode.UTF8}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// decode wraps r so it yields clean UTF-8: a leading BOM is stripped,
// legacy encodings are converted and invalid UTF-8 becomes U+FFFD.
func (c config) decode(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(c.encoding.NewDecoder()))
}

// Read parses one delimited file. The first non-blank record is the header.
// Rows may have fewer or more fields than the header.
func Read(r io.Reader, opts ...Option) (core.RecordSet, error) {
	c := newConfig(opts)

	cr := csv.NewReader(c.decode(r))
	cr.Comma = c.delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // Allow variable number of fields

	records, err := cr.ReadAll()
	if err != nil {
		return core.RecordSet{}, fmt.Errorf("invalid csv: %w", err)
	}

	for len(records) > 0 && isBlank(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return core.RecordSet{}, ErrEmptyFile
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	return core.RecordSet{Header: header, Rows: rows}, nil
}

// Write renders rs as delimited UTF-8 text.
func Write(w io.Writer, rs core.RecordSet, opts ...Option) error {
	c := newConfig(opts)

	cw := csv.NewWriter(w)
	cw.Comma = c.delimiter

	if err := cw.Write(rs.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rs.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
