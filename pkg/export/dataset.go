package export

// Dataset defines tabular export content. Headers carry the column order the
// renderers emit; Rows map header name to cell value.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Reversed returns a copy of the dataset with the column order inverted.
// Exported documents are authored right-to-left, so their column order is the
// mirror of the on-screen table. Rows are shared, only the header order flips.
func (d Dataset) Reversed() Dataset {
	headers := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		headers[len(d.Headers)-1-i] = h
	}
	return Dataset{Headers: headers, Rows: d.Rows}
}
