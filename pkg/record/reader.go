package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// Entry is one data row of an input file.
type Entry struct {
	// Line is the line of the file the row starts on; the header is line 1.
	Line   int
	Record *Record
	// Err is set when the row could not be decoded. Record is nil then.
	Err error
}

// ReadFile reads all entries of the CSV file at path.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Read(f)
}

// Read decodes CSV input into entries, in input order. Bare quotes inside
// unquoted fields are kept as data. Rows that cannot be read, or whose field
// count differs from the header, are returned as ErrParse entries. Input that
// has no header, repeats a column, or lacks a required column is rejected as a
// whole.
func Read(r io.Reader) ([]Entry, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("input file is empty")
	}
	if rows[0].err != nil {
		return nil, fmt.Errorf("failed to read header: %w", rows[0].err)
	}

	header := rows[0].fields
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	// Only well-formed rows are handed to gocsv; the rest become parse errors.
	replay := &replayReader{rows: [][]string{header}}
	for _, row := range rows[1:] {
		if row.err == nil && len(row.fields) == len(header) {
			replay.rows = append(replay.rows, row.fields)
		}
	}
	var records []*Record
	if err := gocsv.UnmarshalCSV(replay, &records); err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}

	entries := make([]Entry, 0, len(rows)-1)
	next := 0
	for _, row := range rows[1:] {
		entry := Entry{Line: row.line}
		switch {
		case row.err != nil:
			entry.Err = fmt.Errorf("%w: %w", ErrParse, row.err)
		case len(row.fields) != len(header):
			entry.Err = fmt.Errorf("%w: line %d has %d fields, header has %d", ErrParse, row.line, len(row.fields), len(header))
		default:
			rec := records[next]
			next++
			rec.trim()
			entry.Record = rec
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type rawRow struct {
	line   int
	fields []string
	err    error
}

// readRows reads every row, tolerating rows of uneven length and rows that
// fail to parse so a single bad row does not fail the whole file.
func readRows(r io.Reader) ([]rawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []rawRow
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, rawRow{line: parseErr.StartLine, err: err})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, rawRow{line: line, fields: fields})
	}
}

func checkHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		if h != "" && present[h] {
			return fmt.Errorf("input header repeats column %s", h)
		}
		present[h] = true
	}
	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("input is missing required columns %s (found %s)",
			strings.Join(missing, ", "), strings.Join(header, ", "))
	}
	return nil
}

// replayReader feeds already-read rows to gocsv.
type replayReader struct {
	rows [][]string
	pos  int
}

func (r *replayReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *replayReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rest, nil
}
