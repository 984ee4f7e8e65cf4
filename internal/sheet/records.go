package sheet

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/model"
)

// field identifies one account attribute a header column can carry.
type field int

const (
	fieldID field = iota
	fieldName
	fieldWebsite
	fieldCity
	fieldState
	fieldCountry
	fieldPostal
	fieldZoomInfoID
)

// Header aliases, compared after lowercasing and dropping non-alphanumerics.
// Salesforce API names come first so exported reports read back unchanged.
var customerAliases = map[field][]string{
	fieldID:      {"id", "accountid", "customerid", "customeraccountid"},
	fieldName:    {"name", "accountname", "customername", "company", "companyname"},
	fieldWebsite: {"website", "customerwebsite", "url", "domain"},
	fieldCity:    {"billingcity", "city"},
	fieldState:   {"billingstate", "state", "region"},
	fieldCountry: {"billingcountry", "country"},
	fieldPostal:  {"billingpostalcode", "postalcode", "zip", "zipcode", "postcode"},
}

var shellAliases = map[field][]string{
	fieldID:         {"id", "accountid", "shellid", "shellaccountid"},
	fieldZoomInfoID: {"ziidc", "ziid", "zoominfoid", "zicompanyid"},
	fieldName:       {"zicompanynamec", "companyname", "shellname", "name"},
	fieldWebsite:    {"ziwebsitec", "website", "shellwebsite", "url", "domain"},
	fieldCity:       {"zicompanycityc", "city"},
	fieldState:      {"zicompanystatec", "state", "region"},
	fieldCountry:    {"zicompanycountryc", "country"},
	fieldPostal:     {"zicompanypostalcodec", "postalcode", "zip", "zipcode", "postcode"},
}

// ReadCustomers reads full customer records from the named sheet. Rows
// without an ID are skipped.
func ReadCustomers(wb *Workbook, sheetName string) ([]model.CustomerAccount, error) {
	t, cols, err := mapColumns(wb, sheetName, customerAliases)
	if err != nil {
		return nil, err
	}

	out := make([]model.CustomerAccount, 0, len(t.Rows))
	skipped := 0
	for _, row := range t.Rows {
		c := model.CustomerAccount{
			ID:      CleanID(cols.get(row, fieldID)),
			Name:    cols.get(row, fieldName),
			Website: cols.get(row, fieldWebsite),
			Address: cols.address(row),
		}.Clean()
		if c.ID == "" {
			skipped++
			continue
		}
		out = append(out, c)
	}
	logSkipped(t.Name, skipped)
	return out, nil
}

// ReadShells reads full shell records from the named sheet. Rows without an
// ID are skipped.
func ReadShells(wb *Workbook, sheetName string) ([]model.ShellAccount, error) {
	t, cols, err := mapColumns(wb, sheetName, shellAliases)
	if err != nil {
		return nil, err
	}

	out := make([]model.ShellAccount, 0, len(t.Rows))
	skipped := 0
	for _, row := range t.Rows {
		s := model.ShellAccount{
			ID:          CleanID(cols.get(row, fieldID)),
			ZoomInfoID:  CleanID(cols.get(row, fieldZoomInfoID)),
			CompanyName: cols.get(row, fieldName),
			Website:     cols.get(row, fieldWebsite),
			Address:     cols.address(row),
		}.Clean()
		if s.ID == "" {
			skipped++
			continue
		}
		out = append(out, s)
	}
	logSkipped(t.Name, skipped)
	return out, nil
}

// columns maps each recognised field to its column index.
type columns map[field]int

func (c columns) get(row []string, f field) string {
	i, ok := c[f]
	if !ok {
		return ""
	}
	return cell(row, i)
}

func (c columns) address(row []string) model.Address {
	return model.Address{
		City:       c.get(row, fieldCity),
		State:      c.get(row, fieldState),
		Country:    c.get(row, fieldCountry),
		PostalCode: c.get(row, fieldPostal),
	}
}

func mapColumns(wb *Workbook, sheetName string, aliases map[field][]string) (*Table, columns, error) {
	t, err := wb.Table(sheetName)
	if err != nil {
		return nil, nil, err
	}

	byKey := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		k := headerKey(h)
		if _, dup := byKey[k]; !dup {
			byKey[k] = i
		}
	}

	cols := make(columns, len(aliases))
	for f, names := range aliases {
		for _, n := range names {
			if i, ok := byKey[n]; ok {
				cols[f] = i
				break
			}
		}
	}
	if _, ok := cols[fieldID]; !ok {
		return nil, nil, eris.Errorf("sheet: no account ID column in sheet %q", t.Name)
	}
	return t, cols, nil
}

func headerKey(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func logSkipped(sheetName string, n int) {
	if n == 0 {
		return
	}
	zap.L().Warn("sheet: skipped rows without account ID",
		zap.String("sheet", sheetName),
		zap.Int("rows", n),
	)
}
