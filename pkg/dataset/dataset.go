// Package dataset reads labeled SMS collections from CSV or TSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/zpam/sms-filter/pkg/errs"
	"github.com/zpam/sms-filter/pkg/label"
)

// Supported text encodings
const (
	EncodingAuto   = "auto"
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

// Example is one labeled message
type Example struct {
	Text  string
	Label label.Label
}

// Options controls how a dataset file is parsed
type Options struct {
	// Header names, matched case-insensitively
	LabelColumn string `json:"label_column" yaml:"label_column"`
	TextColumn  string `json:"text_column" yaml:"text_column"`

	// Zero-based column positions used when no header name matches
	LabelIndex int `json:"label_index" yaml:"label_index"`
	TextIndex  int `json:"text_index" yaml:"text_index"`

	Encoding string `json:"encoding" yaml:"encoding"`

	// Field separator. Empty means tab for .tsv files and comma otherwise.
	Delimiter string `json:"delimiter" yaml:"delimiter"`

	// nil detects the header from the first row
	HasHeader *bool `json:"has_header,omitempty" yaml:"has_header,omitempty"`
}

// DefaultOptions matches the layout of the SMS Spam Collection CSV
func DefaultOptions() *Options {
	return &Options{
		LabelColumn: "v1",
		TextColumn:  "v2",
		LabelIndex:  0,
		TextIndex:   1,
		Encoding:    EncodingAuto,
	}
}

// Validate checks the options
func (o *Options) Validate() error {
	if o.LabelIndex < 0 || o.TextIndex < 0 {
		return fmt.Errorf("column indexes must be non-negative")
	}
	if o.LabelIndex == o.TextIndex {
		return fmt.Errorf("label and text columns must differ (both are %d)", o.LabelIndex)
	}
	switch strings.ToLower(o.Encoding) {
	case "", EncodingAuto, EncodingUTF8, "utf8", EncodingLatin1, "latin1", "iso-8859-1":
	default:
		return fmt.Errorf("unsupported encoding %q", o.Encoding)
	}
	if o.Delimiter != "" && utf8.RuneCountInString(o.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", o.Delimiter)
	}
	return nil
}

// Result holds the parsed examples and row accounting
type Result struct {
	Examples []Example

	// Data rows read, header excluded
	Rows int

	// Rows dropped because the label did not parse
	Skipped int
}

// Load reads every usable example from path
func Load(path string, opts *Options) ([]Example, error) {
	res, err := LoadFile(path, opts)
	if err != nil {
		return nil, err
	}
	return res.Examples, nil
}

// LoadFile reads path and reports how many rows were skipped
func LoadFile(path string, opts *Options) (*Result, error) {
	const op = "dataset.Load"
	if opts == nil {
		opts = DefaultOptions()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Errorf(errs.KindDataLoad, op, "failed to open dataset: %w", err)
	}
	defer f.Close()

	o := *opts
	if o.Delimiter == "" && strings.EqualFold(filepath.Ext(path), ".tsv") {
		o.Delimiter = "\t"
	}
	return Parse(f, &o)
}

// Parse reads examples from r
func Parse(r io.Reader, opts *Options) (*Result, error) {
	const op = "dataset.Parse"
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, errs.E(errs.KindDataLoad, op, err)
	}

	reader := newReader(r, opts.Delimiter)
	decode := decoder(opts.Encoding)

	labelIdx, textIdx := opts.LabelIndex, opts.TextIndex
	result := &Result{}
	first := true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Errorf(errs.KindDataLoad, op, "malformed dataset: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) < 2 {
			return nil, errs.Errorf(errs.KindDataLoad, op, "line %d has %d column(s), expected at least 2", line, len(record))
		}

		if first {
			first = false
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
			if isHeader(record, opts) {
				labelIdx, textIdx = resolveColumns(record, opts)
				continue
			}
		}

		if labelIdx >= len(record) || textIdx >= len(record) {
			return nil, errs.Errorf(errs.KindDataLoad, op, "line %d has %d columns, need column %d",
				line, len(record), max(labelIdx, textIdx)+1)
		}

		result.Rows++
		l, err := label.Parse(decode(record[labelIdx]))
		if err != nil {
			result.Skipped++
			continue
		}
		result.Examples = append(result.Examples, Example{Text: decode(record[textIdx]), Label: l})
	}

	return result, nil
}

func newReader(r io.Reader, delimiter string) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if delimiter != "" {
		reader.Comma, _ = utf8.DecodeRuneInString(delimiter)
	}
	return reader
}

func isHeader(record []string, opts *Options) bool {
	if opts.HasHeader != nil {
		return *opts.HasHeader
	}
	if opts.LabelIndex >= len(record) {
		return true
	}
	_, err := label.Parse(record[opts.LabelIndex])
	return err != nil
}

// resolveColumns prefers header names and falls back to positions.
func resolveColumns(header []string, opts *Options) (int, int) {
	labelIdx, textIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(name)
		if labelIdx < 0 && opts.LabelColumn != "" && strings.EqualFold(name, opts.LabelColumn) {
			labelIdx = i
		}
		if textIdx < 0 && opts.TextColumn != "" && strings.EqualFold(name, opts.TextColumn) {
			textIdx = i
		}
	}
	if labelIdx < 0 || textIdx < 0 || labelIdx == textIdx {
		return opts.LabelIndex, opts.TextIndex
	}
	return labelIdx, textIdx
}

func decoder(encoding string) func(string) string {
	latin1 := charmap.ISO8859_1.NewDecoder()
	toLatin1 := func(s string) string {
		out, err := latin1.String(s)
		if err != nil {
			return strings.ToValidUTF8(s, "\uFFFD")
		}
		return out
	}

	switch strings.ToLower(encoding) {
	case EncodingLatin1, "latin1", "iso-8859-1":
		return toLatin1
	case EncodingUTF8, "utf8":
		return func(s string) string {
			return strings.ToValidUTF8(s, "\uFFFD")
		}
	default:
		return func(s string) string {
			if utf8.ValidString(s) {
				return s
			}
			return toLatin1(s)
		}
	}
}
