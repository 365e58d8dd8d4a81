package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RawRow maps a trimmed, lower-cased header to the cell value at the same
// column position. Rows never leave this package in raw form.
type RawRow map[string]string

var (
	ErrNoSheets    = errors.New("workbook has no sheets")
	ErrEmptyHeader = errors.New("workbook has no header row")
)

// ParseWorkbook reads the first sheet of an xlsx container into ordered
// header-keyed rows. Row 1 is the header; alignment of later rows is
// positional. A sheet with headers but no data rows parses to an empty
// slice. Unreadable files, sheetless workbooks, and blank header rows are
// errors and fatal to the calling job.
func ParseWorkbook(path string) ([]RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	defer rows.Close()

	var headers []string
	parsed := []RawRow{}
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if headers == nil {
			headers = normalizeHeaders(cols)
			if len(headers) == 0 {
				return nil, ErrEmptyHeader
			}
			continue
		}
		row := make(RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cols) {
				row[h] = cols[i]
			} else {
				row[h] = ""
			}
		}
		parsed = append(parsed, row)
	}
	if headers == nil {
		return nil, ErrEmptyHeader
	}
	return parsed, nil
}

// normalizeHeaders trims and lower-cases header cells, dropping trailing
// blanks. A row with no non-blank cell normalizes to nothing.
func normalizeHeaders(cells []string) []string {
	headers := make([]string, len(cells))
	last := -1
	for i, c := range cells {
		h := strings.ToLower(strings.TrimSpace(c))
		headers[i] = h
		if h != "" {
			last = i
		}
	}
	return headers[:last+1]
}
