package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/shell-match/internal/model"
)

// Sheet names of the XLSX export.
const (
	ResultsSheet = "Customer Match Results"
	SummarySheet = "Summary Metrics"
)

const (
	colorHeader = "0684BC"
	colorTitle  = "002855"
	colorBorder = "C8C2B4"
)

var statusColors = map[model.MatchStatus]string{
	model.StatusMatched:   "90EE90",
	model.StatusUnmatched: "FFE4B5",
	model.StatusFlagged:   "FFB6C1",
	model.StatusInvalid:   "FFB6C1",
}

var columnWidths = []float64{18, 30, 25, 35, 12, 40, 18, 30, 18, 25, 35, 15, 15, 15, 15, 15, 50, 12, 40}

// Column indexes into Headers.
const (
	statusColumn    = 4
	candidateColumn = 17
)

var scoreColumns = map[int]bool{11: true, 12: true, 13: true, 14: true, 15: true}

// WriteXLSX renders r as a two-sheet workbook: every customer row on the
// results sheet and the run metrics on the summary sheet.
func WriteXLSX(w io.Writer, r Report) error {
	f := xlsx.NewFile()
	if err := writeResults(f, r); err != nil {
		return err
	}
	if err := writeSummary(f, r.Summary); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}

func writeResults(f *xlsx.File, r Report) error {
	sh, err := f.AddSheet(ResultsSheet)
	if err != nil {
		return eris.Wrap(err, "report: add results sheet")
	}
	last := len(Headers) - 1

	addMerged(sh, Title, last, titleStyle())
	addMerged(sh, "Generated: "+r.GeneratedAt.Format("2006-01-02 15:04:05"), last, centerStyle())
	addMerged(sh, SummaryLine(r.Summary), last, centerStyle())
	sh.AddRow()

	header := sh.AddRow()
	hs := headerStyle()
	for _, h := range Headers {
		c := header.AddCell()
		c.SetString(h)
		c.SetStyle(hs)
	}

	wrap := cellStyle("", false)
	center := cellStyle("", true)
	statusStyles := make(map[model.MatchStatus]*xlsx.Style, len(statusColors))
	for st, color := range statusColors {
		statusStyles[st] = cellStyle(color, false)
	}

	for _, row := range r.Rows {
		e := Format(row)
		xr := sh.AddRow()
		for i, v := range e.Values() {
			c := xr.AddCell()
			if i == candidateColumn && row.CandidateCount > 0 {
				c.SetInt(row.CandidateCount)
			} else {
				c.SetString(v)
			}
			switch {
			case i == statusColumn:
				if s, ok := statusStyles[row.Status]; ok {
					c.SetStyle(s)
				} else {
					c.SetStyle(wrap)
				}
			case row.Status == model.StatusMatched && scoreColumns[i]:
				c.SetStyle(center)
			default:
				c.SetStyle(wrap)
			}
		}
	}

	// Column numbers are 1-based.
	for i, width := range columnWidths {
		sh.SetColWidth(i+1, i+1, width)
	}
	return nil
}

func writeSummary(f *xlsx.File, s model.Summary) error {
	sh, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	addMerged(sh, "Matching Process Summary", 1, titleStyle())
	sh.AddRow()

	hs := headerStyle()
	header := sh.AddRow()
	for _, h := range []string{"Metric", "Value"} {
		c := header.AddCell()
		c.SetString(h)
		c.SetStyle(hs)
	}

	plain := cellStyle("", false)
	for _, m := range Metrics(s) {
		row := sh.AddRow()
		for _, v := range []string{m.Name, m.Value} {
			c := row.AddCell()
			c.SetString(v)
			c.SetStyle(plain)
		}
	}

	sh.SetColWidth(1, 1, 35)
	sh.SetColWidth(2, 2, 20)
	return nil
}

// addMerged adds a row whose first cell spans columns 0..last.
func addMerged(sh *xlsx.Sheet, text string, last int, style *xlsx.Style) {
	c := sh.AddRow().AddCell()
	c.SetString(text)
	c.HMerge = last
	c.SetStyle(style)
}

func titleStyle() *xlsx.Style {
	s := xlsx.NewStyle()
	s.Font = *xlsx.NewFont(16, "Calibri")
	s.Font.Bold = true
	s.Font.Color = "FF" + colorTitle
	s.Fill = *xlsx.NewFill("solid", "FF"+colorHeader, "FF"+colorHeader)
	s.Alignment.Horizontal = "center"
	s.Alignment.Vertical = "center"
	s.ApplyFont = true
	s.ApplyFill = true
	s.ApplyAlignment = true
	return s
}

func headerStyle() *xlsx.Style {
	s := xlsx.NewStyle()
	s.Font = *xlsx.NewFont(11, "Calibri")
	s.Font.Bold = true
	s.Font.Color = "FFFFFFFF"
	s.Fill = *xlsx.NewFill("solid", "FF"+colorHeader, "FF"+colorHeader)
	s.Alignment.Horizontal = "center"
	s.Alignment.Vertical = "center"
	s.Border = thinBorder()
	s.ApplyFont = true
	s.ApplyFill = true
	s.ApplyAlignment = true
	s.ApplyBorder = true
	return s
}

func centerStyle() *xlsx.Style {
	s := xlsx.NewStyle()
	s.Alignment.Horizontal = "center"
	s.ApplyAlignment = true
	return s
}

// cellStyle is a bordered data cell, optionally filled and centered.
func cellStyle(fill string, centered bool) *xlsx.Style {
	s := xlsx.NewStyle()
	s.Border = thinBorder()
	s.ApplyBorder = true
	if fill != "" {
		s.Fill = *xlsx.NewFill("solid", "FF"+fill, "FF"+fill)
		s.ApplyFill = true
	}
	if centered {
		s.Alignment.Horizontal = "center"
		s.Alignment.Vertical = "center"
	} else {
		s.Alignment.Horizontal = "left"
		s.Alignment.Vertical = "top"
		s.Alignment.WrapText = true
	}
	s.ApplyAlignment = true
	return s
}

func thinBorder() xlsx.Border {
	b := *xlsx.NewBorder("thin", "thin", "thin", "thin")
	b.LeftColor = "FF" + colorBorder
	b.RightColor = "FF" + colorBorder
	b.TopColor = "FF" + colorBorder
	b.BottomColor = "FF" + colorBorder
	return b
}
