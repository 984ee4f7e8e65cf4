package model

import "strings"

// Address is a billing or company address. Empty strings mean absent.
type Address struct {
	City       string `json:"city,omitempty" yaml:"city"`
	State      string `json:"state,omitempty" yaml:"state"`
	Country    string `json:"country,omitempty" yaml:"country"`
	PostalCode string `json:"postal_code,omitempty" yaml:"postal_code"`
}

// IsEmpty reports whether no address component is present.
func (a Address) IsEmpty() bool {
	return strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.Country) == "" &&
		strings.TrimSpace(a.PostalCode) == ""
}

// String joins the present components as "city, state, country, postal".
func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.City, a.State, a.Country, a.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// CustomerAccount is a customer-side business account to be resolved.
type CustomerAccount struct {
	ID      string  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Website string  `json:"website,omitempty"`
	Address Address `json:"address"`
}

// ShellAccount is an enriched reference account (ZoomInfo provenance).
type ShellAccount struct {
	ID          string  `json:"id"`
	ZoomInfoID  string  `json:"zi_id,omitempty"`
	CompanyName string  `json:"company_name,omitempty"`
	Website     string  `json:"website,omitempty"`
	Address     Address `json:"address"`
}

// nullSentinels are spreadsheet and dataframe artifacts that mean "no value".
var nullSentinels = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"nat":  true,
}

// CleanField trims s and maps null sentinels to the empty string.
func CleanField(s string) string {
	s = strings.TrimSpace(s)
	if nullSentinels[strings.ToLower(s)] {
		return ""
	}
	return s
}

// Clean returns a copy of the customer with every field passed through CleanField.
func (c CustomerAccount) Clean() CustomerAccount {
	return CustomerAccount{
		ID:      CleanField(c.ID),
		Name:    CleanField(c.Name),
		Website: CleanField(c.Website),
		Address: c.Address.clean(),
	}
}

// Clean returns a copy of the shell with every field passed through CleanField.
func (s ShellAccount) Clean() ShellAccount {
	return ShellAccount{
		ID:          CleanField(s.ID),
		ZoomInfoID:  CleanField(s.ZoomInfoID),
		CompanyName: CleanField(s.CompanyName),
		Website:     CleanField(s.Website),
		Address:     s.Address.clean(),
	}
}

func (a Address) clean() Address {
	return Address{
		City:       CleanField(a.City),
		State:      CleanField(a.State),
		Country:    CleanField(a.Country),
		PostalCode: CleanField(a.PostalCode),
	}
}
