// Package catalogimport loads versioned reference classification datasets
// (CSV plus a YAML manifest) into the reference catalog.
package catalogimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not UTF-8
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")
)

const encodingCheckSize = 4096

// Parser reads a delimited file whose first row names the columns.
// Header names are matched case-insensitively.
type Parser struct {
	reader     *csv.Reader
	headers    []string
	headerMap  map[string]int
	currentRow int
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*csv.Reader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(r *csv.Reader) {
		r.Comma = d
	}
}

// NewParser strips a UTF-8 BOM, checks the encoding and reads the header row
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	buf := bufio.NewReader(r)

	if bom, _ := buf.Peek(3); len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buf.Discard(3)
	}
	head, err := buf.Peek(encodingCheckSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(trimPartialRune(head)) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(buf)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	for _, opt := range opts {
		opt(cr)
	}

	p := &Parser{reader: cr, headerMap: make(map[string]int)}
	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// trimPartialRune drops a multi-byte sequence cut off by the peek window
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}

func (p *Parser) readHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	p.headers = make([]string, len(record))
	for i, h := range record {
		h = normalizeHeader(h)
		p.headers[i] = h
		if _, dup := p.headerMap[h]; !dup {
			p.headerMap[h] = i
		}
	}
	p.currentRow = 1
	return nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(h)))
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// MissingHeaders returns the required headers that are absent
func (p *Parser) MissingHeaders(required ...string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := p.headerMap[normalizeHeader(h)]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is a parsed data row
type Row struct {
	Line   int
	fields []string
	index  map[string]int
}

// Get returns the trimmed value of a column, empty when the row is short
func (r Row) Get(header string) string {
	i, ok := r.index[normalizeHeader(header)]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// IsEmpty returns true if every field is blank
func (r Row) IsEmpty() bool {
	for _, f := range r.fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Next returns the next row, or io.EOF
func (p *Parser) Next() (Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return Row{}, io.EOF
	}
	p.currentRow++
	if err != nil {
		return Row{}, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}
	return Row{Line: p.currentRow, fields: record, index: p.headerMap}, nil
}
