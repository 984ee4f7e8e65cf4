package sheet

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shell-match/internal/model"
)

// PreviewRows is the number of data rows returned by Parse.
const PreviewRows = 10

// Preview describes an uploaded workbook for column selection.
type Preview struct {
	SheetNames  []string            `json:"sheet_names"`
	Headers     map[string][]string `json:"headers"`
	PreviewData [][]string          `json:"preview_data"`
	TotalRows   int                 `json:"total_rows"`
}

// Parse returns sheet names, headers for every sheet, and the first
// PreviewRows data rows of the first sheet padded or cut to its header width.
func Parse(wb *Workbook) Preview {
	p := Preview{
		SheetNames:  wb.SheetNames(),
		Headers:     make(map[string][]string, len(wb.Tables)),
		PreviewData: [][]string{},
	}
	for _, t := range wb.Tables {
		headers := t.Headers
		if headers == nil {
			headers = []string{}
		}
		p.Headers[t.Name] = headers
	}
	if len(wb.Tables) == 0 {
		return p
	}

	first := wb.Tables[0]
	width := len(first.Headers)
	for i, row := range first.Rows {
		if i >= PreviewRows {
			break
		}
		out := make([]string, width)
		for j := range out {
			out[j] = cell(row, j)
		}
		p.PreviewData = append(p.PreviewData, out)
	}
	p.TotalRows = max(len(first.Rows), len(p.PreviewData))
	return p
}

// ParseFile opens data and returns its Preview.
func ParseFile(data []byte, filename string) (Preview, error) {
	wb, err := Open(data, filename)
	if err != nil {
		return Preview{}, err
	}
	return Parse(wb), nil
}

// IDColumn is the account IDs of one column plus the rows they came from.
type IDColumn struct {
	IDs       []string            `json:"account_ids"`
	Records   []map[string]string `json:"original_data"`
	TotalRows int                 `json:"total_rows"`
}

// ExtractIDs reads the named column of the named sheet. Blank cells and null
// sentinels are dropped and scientific notation left behind by spreadsheet
// number formatting is expanded back to digits.
func ExtractIDs(wb *Workbook, sheetName, column string) (IDColumn, error) {
	t, err := wb.Table(sheetName)
	if err != nil {
		return IDColumn{}, err
	}
	col := t.Column(column)
	if col < 0 {
		return IDColumn{}, eris.Errorf("sheet: column %q not found in sheet %q", column, t.Name)
	}

	out := IDColumn{
		IDs:       make([]string, 0, len(t.Rows)),
		Records:   make([]map[string]string, 0, len(t.Rows)),
		TotalRows: len(t.Rows),
	}
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			rec[h] = model.CleanField(cell(row, j))
		}
		out.Records = append(out.Records, rec)

		if id := CleanID(cell(row, col)); id != "" {
			out.IDs = append(out.IDs, id)
		}
	}
	return out, nil
}

// CleanID trims raw, maps null sentinels to "" and expands values such as
// "1.23456789012345e+17" to their integer digits.
func CleanID(raw string) string {
	id := model.CleanField(raw)
	if id == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(id), "e+") {
		if f, err := strconv.ParseFloat(id, 64); err == nil {
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
	}
	return id
}
