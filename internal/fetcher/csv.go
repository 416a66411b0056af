package fetcher

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/rotisserie/eris"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures DecodeCSV.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
}

// DecodeCSV reads a CSV document with a header row into a slice of T, mapping
// columns by the `csv` struct tags of T. Unknown columns are ignored and a
// leading UTF-8 byte order mark is stripped.
func DecodeCSV[T any](r io.Reader, opts CSVOptions) ([]T, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []T
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "csv: decode rows")
	}
	return rows, nil
}
