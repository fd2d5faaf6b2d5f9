// Package sheet decodes tabular extracts and renders review workbooks.
package sheet

import "strings"

// Row is one data row keyed by header.
type Row map[string]string

// Get returns the cell under header, or "" when the column is absent.
func (r Row) Get(header string) string {
	return r[header]
}

// Dataset is an ordered sequence of header-keyed rows.
type Dataset struct {
	Headers []string
	Rows    []Row
}

// HasHeader reports whether the header row carries h.
func (d Dataset) HasHeader(h string) bool {
	for _, x := range d.Headers {
		if x == h {
			return true
		}
	}
	return false
}

// NewDataset builds a Dataset from a header row and raw rows, the way the
// decoder does: headers are trimmed, short rows are padded, blank rows dropped.
func NewDataset(header []string, rows [][]string) Dataset {
	ds := Dataset{Headers: make([]string, 0, len(header))}
	index := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := index[h]; dup {
			continue
		}
		index[h] = i
		ds.Headers = append(ds.Headers, h)
	}

	for _, raw := range rows {
		if isBlank(raw) {
			continue
		}
		row := make(Row, len(ds.Headers))
		for _, h := range ds.Headers {
			col := index[h]
			if col < len(raw) {
				row[h] = raw[col]
			} else {
				row[h] = ""
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
