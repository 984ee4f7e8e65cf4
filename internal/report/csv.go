package report

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// WriteCSV renders the rows of r as CSV with the results sheet headers.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(r.Rows) == 0 {
		if err := enc.EncodeHeader(ExportRow{}); err != nil {
			return eris.Wrap(err, "report: encode csv header")
		}
	}
	for _, row := range r.Rows {
		if err := enc.Encode(Format(row)); err != nil {
			return eris.Wrap(err, "report: encode csv row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "report: flush csv")
	}
	return nil
}
