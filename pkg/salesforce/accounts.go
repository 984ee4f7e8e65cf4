package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/model"
)

// maxIDsPerQuery bounds the IN clause of one SOQL query.
const maxIDsPerQuery = 200

// CustomerRecord is a customer Account as returned by SOQL.
type CustomerRecord struct {
	ID                string `json:"Id" salesforce:"Id"`
	Name              string `json:"Name" salesforce:"Name"`
	Website           string `json:"Website" salesforce:"Website"`
	BillingCity       string `json:"BillingCity" salesforce:"BillingCity"`
	BillingState      string `json:"BillingState" salesforce:"BillingState"`
	BillingCountry    string `json:"BillingCountry" salesforce:"BillingCountry"`
	BillingPostalCode string `json:"BillingPostalCode" salesforce:"BillingPostalCode"`
}

// ShellRecord is a ZoomInfo-enriched shell Account as returned by SOQL.
type ShellRecord struct {
	ID               string `json:"Id" salesforce:"Id"`
	ZIID             string `json:"ZI_Id__c" salesforce:"ZI_Id__c"`
	ZICompanyName    string `json:"ZI_Company_Name__c" salesforce:"ZI_Company_Name__c"`
	ZIWebsite        string `json:"ZI_Website__c" salesforce:"ZI_Website__c"`
	ZICompanyCity    string `json:"ZI_Company_City__c" salesforce:"ZI_Company_City__c"`
	ZICompanyState   string `json:"ZI_Company_State__c" salesforce:"ZI_Company_State__c"`
	ZICompanyCountry string `json:"ZI_Company_Country__c" salesforce:"ZI_Company_Country__c"`
	ZICompanyPostal  string `json:"ZI_Company_Postal_Code__c" salesforce:"ZI_Company_Postal_Code__c"`
}

var customerFields = []string{
	"Id", "Name", "Website",
	"BillingCity", "BillingState", "BillingCountry", "BillingPostalCode",
}

var shellFields = []string{
	"Id", "ZI_Id__c", "ZI_Company_Name__c", "ZI_Website__c",
	"ZI_Company_City__c", "ZI_Company_State__c", "ZI_Company_Country__c", "ZI_Company_Postal_Code__c",
}

// ToModel converts the record, clearing null sentinels.
func (r CustomerRecord) ToModel() model.CustomerAccount {
	return model.CustomerAccount{
		ID:      r.ID,
		Name:    r.Name,
		Website: r.Website,
		Address: model.Address{
			City:       r.BillingCity,
			State:      r.BillingState,
			Country:    r.BillingCountry,
			PostalCode: r.BillingPostalCode,
		},
	}.Clean()
}

// ToModel converts the record, clearing null sentinels.
func (r ShellRecord) ToModel() model.ShellAccount {
	return model.ShellAccount{
		ID:          r.ID,
		ZoomInfoID:  r.ZIID,
		CompanyName: r.ZICompanyName,
		Website:     r.ZIWebsite,
		Address: model.Address{
			City:       r.ZICompanyCity,
			State:      r.ZICompanyState,
			Country:    r.ZICompanyCountry,
			PostalCode: r.ZICompanyPostal,
		},
	}.Clean()
}

// FetchCustomerAccounts loads customer Accounts by ID. IDs that Salesforce
// did not return are reported in notFound, in input form.
func FetchCustomerAccounts(ctx context.Context, c Client, ids []string) ([]model.CustomerAccount, []string, error) {
	recs, notFound, err := fetchByIDs(ctx, c, customerFields, ids, func(r CustomerRecord) string { return r.ID })
	if err != nil {
		return nil, nil, eris.Wrap(err, "sf: fetch customer accounts")
	}
	out := make([]model.CustomerAccount, len(recs))
	for i, r := range recs {
		out[i] = r.ToModel()
	}
	zap.L().Info("sf: fetched customer accounts", zap.Int("requested", len(ids)), zap.Int("found", len(out)))
	return out, notFound, nil
}

// FetchShellAccounts loads shell Accounts with their ZoomInfo fields.
func FetchShellAccounts(ctx context.Context, c Client, ids []string) ([]model.ShellAccount, []string, error) {
	recs, notFound, err := fetchByIDs(ctx, c, shellFields, ids, func(r ShellRecord) string { return r.ID })
	if err != nil {
		return nil, nil, eris.Wrap(err, "sf: fetch shell accounts")
	}
	out := make([]model.ShellAccount, len(recs))
	for i, r := range recs {
		out[i] = r.ToModel()
	}
	zap.L().Info("sf: fetched shell accounts", zap.Int("requested", len(ids)), zap.Int("found", len(out)))
	return out, notFound, nil
}

// TestConnection runs a trivial Account query and returns the row count.
func TestConnection(ctx context.Context, c Client) (int, error) {
	var recs []struct {
		ID string `json:"Id"`
	}
	if err := c.Query(ctx, "SELECT Id FROM Account LIMIT 5", &recs); err != nil {
		return 0, eris.Wrap(err, "sf: connection test")
	}
	return len(recs), nil
}

// fetchByIDs queries Account in chunks of maxIDsPerQuery. 15-character IDs
// are queried in 18-character form and matched back case-sensitively.
func fetchByIDs[R any](ctx context.Context, c Client, fields []string, ids []string, idOf func(R) string) ([]R, []string, error) {
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return nil, nil, nil
	}

	var (
		all   []R
		found = make(map[string]bool, len(unique))
	)
	for _, batch := range chunk(unique, maxIDsPerQuery) {
		query := make([]string, len(batch))
		for i, id := range batch {
			query[i] = To18(id)
		}

		soql := fmt.Sprintf("SELECT %s FROM Account WHERE Id IN (%s)", strings.Join(fields, ", "), inList(query))
		var recs []R
		if err := c.Query(ctx, soql, &recs); err != nil {
			return nil, nil, err
		}
		for _, r := range recs {
			found[To15(idOf(r))] = true
		}
		all = append(all, recs...)
	}

	var notFound []string
	for _, id := range unique {
		if !found[To15(id)] {
			notFound = append(notFound, id)
		}
	}
	return all, notFound, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		k := To15(id)
		if id == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, id)
	}
	return out
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func inList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + escapeSoql(id) + "'"
	}
	return strings.Join(quoted, ", ")
}

// escapeSoql escapes single quotes in SOQL string literals.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
