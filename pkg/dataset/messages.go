package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zpam/sms-filter/pkg/errs"
)

// LoadMessages reads unlabeled messages for classification. CSV and TSV files
// yield their text column; any other file yields one message per non-blank
// line.
func LoadMessages(path string, opts *Options) ([]string, error) {
	const op = "dataset.LoadMessages"
	if opts == nil {
		opts = DefaultOptions()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Errorf(errs.KindDataLoad, op, "failed to open messages: %w", err)
	}
	defer f.Close()

	decode := decoder(opts.Encoding)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		o := *opts
		if o.Delimiter == "" && strings.EqualFold(filepath.Ext(path), ".tsv") {
			o.Delimiter = "\t"
		}
		return readTextColumn(f, &o, decode)
	}

	var messages []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(decode(scanner.Text()))
		if line != "" {
			messages = append(messages, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Errorf(errs.KindDataLoad, op, "failed to read messages: %w", err)
	}
	return messages, nil
}

// readTextColumn accepts single-column files too, since unlabeled input may
// carry nothing but the message.
func readTextColumn(r io.Reader, opts *Options, decode func(string) string) ([]string, error) {
	const op = "dataset.LoadMessages"
	reader := newReader(r, opts.Delimiter)

	textIdx := opts.TextIndex
	var messages []string
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Errorf(errs.KindDataLoad, op, "malformed messages file: %w", err)
		}

		if first {
			first = false
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
			if len(record) == 1 {
				textIdx = 0
			}
			if idx, ok := headerIndex(record, opts.TextColumn); ok {
				textIdx = idx
				continue
			}
			if opts.HasHeader != nil && *opts.HasHeader {
				continue
			}
		}

		if textIdx >= len(record) {
			line, _ := reader.FieldPos(0)
			return nil, errs.Errorf(errs.KindDataLoad, op, "line %d has no column %d", line, textIdx+1)
		}
		messages = append(messages, decode(record[textIdx]))
	}
	return messages, nil
}

func headerIndex(record []string, name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for i, cell := range record {
		if strings.EqualFold(strings.TrimSpace(cell), name) {
			return i, true
		}
	}
	return 0, false
}

// Write emits examples as a v1,v2 CSV with a header row
func Write(w io.Writer, examples []Example) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"v1", "v2"}); err != nil {
		return err
	}
	for _, ex := range examples {
		if err := writer.Write([]string{strings.ToLower(ex.Label.String()), ex.Text}); err != nil {
			return fmt.Errorf("failed to write example: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
