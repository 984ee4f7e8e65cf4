package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// AccountKind distinguishes customer from shell ID lists.
type AccountKind string

const (
	KindCustomer AccountKind = "customer"
	KindShell    AccountKind = "shell"
)

// ZIStats counts ZoomInfo data completeness among found shell accounts.
type ZIStats struct {
	WithName    int `json:"accounts_with_zi_name"`
	WithWebsite int `json:"accounts_with_zi_website"`
	Complete    int `json:"accounts_with_complete_zi_data"`
}

// Validation is the outcome of checking a list of Account IDs.
type Validation struct {
	Valid          []string `json:"valid_account_ids"`
	Invalid        []string `json:"invalid_account_ids"`
	TotalRequested int      `json:"total_requested"`
	ValidCount     int      `json:"valid_count"`
	InvalidCount   int      `json:"invalid_count"`
	ZIStats        *ZIStats `json:"zi_data_stats,omitempty"`
}

// Message summarizes the validation, listing at most five invalid IDs.
func (v *Validation) Message(kind AccountKind) string {
	if v.InvalidCount == 0 {
		return fmt.Sprintf("Successfully validated %d %s account IDs", v.ValidCount, kind)
	}
	return fmt.Sprintf("Validation complete: %d valid, %d invalid %s account IDs. Invalid IDs: [%s]. Invalid IDs will be excluded from matching.",
		v.ValidCount, v.InvalidCount, kind, PreviewIDs(v.Invalid, 5))
}

// PreviewIDs joins the first n IDs and notes how many were left out.
func PreviewIDs(ids []string, n int) string {
	if len(ids) <= n {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s (and %d more)", strings.Join(ids[:n], ", "), len(ids)-n)
}

type validationRecord struct {
	ID            string `json:"Id"`
	ZICompanyName string `json:"ZI_Company_Name__c"`
	ZIWebsite     string `json:"ZI_Website__c"`
}

// ValidateAccountIDs splits ids into those with a valid Account ID format
// that exist in Salesforce and everything else. IDs keep their input form.
// Shell validation also reports ZoomInfo completeness; incomplete shells
// are still valid.
func ValidateAccountIDs(ctx context.Context, c Client, kind AccountKind, ids []string) (*Validation, error) {
	v := &Validation{Valid: []string{}, Invalid: []string{}, TotalRequested: len(ids)}
	if kind == KindShell {
		v.ZIStats = &ZIStats{}
	}

	var wellFormed []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if ValidAccountIDFormat(id) {
			wellFormed = append(wellFormed, id)
		} else {
			v.Invalid = append(v.Invalid, id)
		}
	}

	fields := []string{"Id"}
	if kind == KindShell {
		fields = []string{"Id", "ZI_Company_Name__c", "ZI_Website__c"}
	}

	recs, notFound, err := fetchByIDs(ctx, c, fields, wellFormed, func(r validationRecord) string { return r.ID })
	if err != nil {
		return nil, eris.Wrapf(err, "sf: validate %s account ids", kind)
	}

	missing := make(map[string]bool, len(notFound))
	for _, id := range notFound {
		missing[To15(id)] = true
	}
	for _, id := range wellFormed {
		if missing[To15(id)] {
			v.Invalid = append(v.Invalid, id)
		} else {
			v.Valid = append(v.Valid, id)
		}
	}

	if v.ZIStats != nil {
		for _, r := range recs {
			name := strings.TrimSpace(r.ZICompanyName) != ""
			site := strings.TrimSpace(r.ZIWebsite) != ""
			if name {
				v.ZIStats.WithName++
			}
			if site {
				v.ZIStats.WithWebsite++
			}
			if name && site {
				v.ZIStats.Complete++
			}
		}
	}

	v.ValidCount = len(v.Valid)
	v.InvalidCount = len(v.Invalid)
	return v, nil
}
