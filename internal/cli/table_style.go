package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// PlainTableWriter provides kubectl-style plain table output without box-drawing characters.
// Cell widths ignore ANSI escape sequences, so colored state cells stay aligned.
type PlainTableWriter struct {
	headers      []string
	rows         [][]string
	columnWidths []int
	minPadding   int
	showHeaders  bool
	output       io.Writer
}

// NewPlainTableWriter creates a new plain table writer.
func NewPlainTableWriter(output io.Writer) *PlainTableWriter {
	return &PlainTableWriter{
		minPadding:  3,
		showHeaders: true,
		output:      output,
	}
}

// SetHeaders sets the column headers. Headers are uppercased.
func (w *PlainTableWriter) SetHeaders(headers ...string) {
	w.headers = make([]string, len(headers))
	w.columnWidths = make([]int, len(headers))
	for i, h := range headers {
		upper := strings.ToUpper(h)
		w.headers[i] = upper
		w.columnWidths[i] = text.RuneWidthWithoutEscSequences(upper)
	}
}

// SetNoHeaders controls whether to suppress the header row.
func (w *PlainTableWriter) SetNoHeaders(noHeaders bool) {
	w.showHeaders = !noHeaders
}

// AppendRow adds a row, padding or truncating it to the header count.
func (w *PlainTableWriter) AppendRow(cells ...string) {
	row := make([]string, len(w.headers))
	for i := range w.headers {
		if i >= len(cells) {
			continue
		}
		row[i] = cells[i]
		if width := text.RuneWidthWithoutEscSequences(cells[i]); width > w.columnWidths[i] {
			w.columnWidths[i] = width
		}
	}
	w.rows = append(w.rows, row)
}

// Render writes the table.
func (w *PlainTableWriter) Render() {
	if len(w.headers) == 0 {
		return
	}
	if w.showHeaders {
		w.printRow(w.headers)
	}
	for _, row := range w.rows {
		w.printRow(row)
	}
}

func (w *PlainTableWriter) printRow(row []string) {
	var sb strings.Builder
	for i, cell := range row {
		sb.WriteString(cell)
		if i == len(row)-1 {
			break
		}
		pad := w.columnWidths[i] + w.minPadding - text.RuneWidthWithoutEscSequences(cell)
		sb.WriteString(strings.Repeat(" ", pad))
	}
	fmt.Fprintln(w.output, strings.TrimRight(sb.String(), " "))
}
