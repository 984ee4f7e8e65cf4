// Package sheet reads uploaded spreadsheets of account IDs and account records.
package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// csvSheetName is the name given to the single table of a CSV upload.
const csvSheetName = "Sheet1"

// Table is one sheet: a header row and the data rows beneath it.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Column returns the index of the header named name, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Workbook is every table of an uploaded file, in file order.
type Workbook struct {
	Tables []*Table
}

// SheetNames returns the table names in file order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Tables))
	for i, t := range w.Tables {
		names[i] = t.Name
	}
	return names
}

// Table returns the named table. An empty name selects the first one.
func (w *Workbook) Table(name string) (*Table, error) {
	if len(w.Tables) == 0 {
		return nil, eris.New("sheet: workbook has no sheets")
	}
	if name == "" {
		return w.Tables[0], nil
	}
	for _, t := range w.Tables {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, eris.Errorf("sheet: sheet %q not found", name)
}

// Open decodes an uploaded file. Files named *.csv are read as CSV, anything
// else as XLSX.
func Open(data []byte, filename string) (*Workbook, error) {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return OpenCSV(bytes.NewReader(data))
	}
	return OpenXLSX(data)
}

// OpenXLSX decodes an XLSX workbook held in memory.
func OpenXLSX(data []byte) (*Workbook, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: open xlsx")
	}

	wb := &Workbook{Tables: make([]*Table, 0, len(f.Sheets))}
	for _, s := range f.Sheets {
		rows := make([][]string, 0, len(s.Rows))
		for _, row := range s.Rows {
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			rows = append(rows, rowToStrings(row))
		}
		wb.Tables = append(wb.Tables, newTable(s.Name, trimTrailingEmpty(rows)))
	}
	return wb, nil
}

// OpenCSV reads a CSV upload as a single-table workbook.
func OpenCSV(r io.Reader) (*Workbook, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "sheet: read csv")
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, record)
	}
	return &Workbook{Tables: []*Table{newTable(csvSheetName, rows)}}, nil
}

func newTable(name string, rows [][]string) *Table {
	t := &Table{Name: name}
	if len(rows) == 0 {
		return t
	}
	t.Headers = headerNames(rows[0])
	t.Rows = rows[1:]
	return t
}

// headerNames names blank header cells "Column_N" (1-based).
func headerNames(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = h
	}
	return headers
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = strings.TrimSpace(cell.String())
	}
	return cells
}

// trimTrailingEmpty drops blank rows at the end of a sheet; xlsx writers
// often leave formatted but empty rows behind the data.
func trimTrailingEmpty(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && isBlank(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cell returns row[i], or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
