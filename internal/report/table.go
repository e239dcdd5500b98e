// Package report turns board state into tables, exports and charts.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/rollbook/internal/attendance"
	"github.com/verte-zerg/rollbook/internal/model"
)

// RosterHeaders are the fixed leading columns of every table.
var RosterHeaders = []string{"ID", "First Name", "Last Name", "ASURITE"}

// Source is the board state a table is built from.
type Source interface {
	Students() []model.Student
	Records() []*attendance.Record
}

// Table is a snapshot of the roster joined with every session date.
type Table struct {
	Headers []string
	Rows    [][]string
}

// BuildTable returns one row per student in roster order and one column per
// record in insertion order.
func BuildTable(src Source) Table {
	students := src.Students()
	records := src.Records()

	headers := make([]string, 0, len(RosterHeaders)+len(records))
	headers = append(headers, RosterHeaders...)
	columns := make([][]string, 0, len(records))
	for _, rec := range records {
		headers = append(headers, rec.FormattedDate())
		columns = append(columns, rec.OrderedStrings(students))
	}

	rows := make([][]string, 0, len(students))
	for i, s := range students {
		row := make([]string, 0, len(headers))
		row = append(row, s.ID, s.FirstName, s.LastName, s.Tag)
		for _, col := range columns {
			row = append(row, col[i])
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows}
}

// HasColumn reports whether a header with the given name exists.
func (t Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// RenderTable prints the table with aligned columns.
func RenderTable(w io.Writer, t Table) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No students loaded.")
		return err
	}
	rightAlign := map[int]bool{}
	for i := len(RosterHeaders); i < len(t.Headers); i++ {
		rightAlign[i] = true
	}
	for _, line := range formatTable(t.Headers, t.Rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
