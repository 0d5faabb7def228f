// Package parser turns uploaded ad-platform exports into a rectangular grid of
// trimmed string cells. Delimited text goes through the sniffer; XLSX
// workbooks are decoded with excelize.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/sniffer"
)

var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrTooFewRows        = errors.New("file must have at least headers and one data row")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Format identifies how a file is decoded.
type Format string

const (
	FormatDelimited Format = "delimited"
	FormatXLSX      Format = "xlsx"
	FormatXLS       Format = "xls"
)

// Grid is an ordered list of rows of string cells.
type Grid [][]string

// ParseError reports a file that could not be turned into a grid.
type ParseError struct {
	File    string
	Row     int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: %s", e.File, e.Row, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is a parsed file.
type Result struct {
	Grid      Grid
	Format    Format
	Delimiter rune // zero for XLSX
}

// Config configures the parser.
type Config struct {
	SampleLines int // lines used for delimiter detection
	MinRows     int // rows required after cleanup
}

// DefaultConfig returns the parser defaults.
func DefaultConfig() Config {
	return Config{
		SampleLines: sniffer.DefaultSampleLines,
		MinRows:     2,
	}
}

// Parser decodes files into grids.
type Parser struct {
	config Config
}

// NewParser creates a new parser.
func NewParser(config Config) *Parser {
	if config.SampleLines <= 0 {
		config.SampleLines = sniffer.DefaultSampleLines
	}
	if config.MinRows <= 0 {
		config.MinRows = 2
	}
	return &Parser{config: config}
}

// DetectFormat picks the decoder from the file extension. CSV, TSV and TXT
// are delimited text; XLSX-family extensions go to the spreadsheet decoder
// and .xls to the legacy BIFF decoder.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt":
		return FormatDelimited, nil
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Parse reads a whole file and decodes it according to its extension.
func (p *Parser) Parse(filename string, r io.Reader) (*Result, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, &ParseError{File: filename, Message: err.Error(), Err: err}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{File: filename, Message: "failed to read file", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{File: filename, Message: ErrEmptyFile.Error(), Err: ErrEmptyFile}
	}

	var result *Result
	switch format {
	case FormatXLSX:
		result, err = p.ParseXLSX(bytes.NewReader(data))
	case FormatXLS:
		result, err = p.ParseXLS(data)
	default:
		result, err = p.ParseDelimited(data)
	}
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.File = filename
			return nil, pe
		}
		return nil, &ParseError{File: filename, Message: err.Error(), Err: err}
	}
	return result, nil
}

// ParseDelimited decodes delimited text: blank lines are dropped, the
// delimiter is detected from the leading lines and every line is split with
// quote handling.
func (p *Parser) ParseDelimited(data []byte) (*Result, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, &ParseError{Message: "failed to decode text", Err: err}
	}

	lines := sniffer.SplitLines(text)
	delimiter := sniffer.DetectDelimiter(lines, p.config.SampleLines)

	grid := make(Grid, 0, len(lines))
	for _, line := range lines {
		grid = append(grid, sniffer.SplitLine(line, delimiter))
	}

	if len(grid) < p.config.MinRows {
		return nil, &ParseError{Message: ErrTooFewRows.Error(), Err: ErrTooFewRows}
	}
	return &Result{Grid: grid, Format: FormatDelimited, Delimiter: delimiter}, nil
}

// decodeText normalizes the file to UTF-8. A UTF-16 or UTF-8 byte order mark
// selects the source encoding; without one the bytes are read as UTF-8.
func decodeText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
