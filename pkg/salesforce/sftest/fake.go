// Package sftest provides an in-memory salesforce.Client for tests.
package sftest

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shell-match/pkg/salesforce"
)

var quotedID = regexp.MustCompile(`'([^']+)'`)

// Fake answers Account queries from records added with AddCustomer and
// AddShell. Records are decoded into the caller's slice through JSON, the
// same way go-salesforce does.
type Fake struct {
	mu       sync.Mutex
	accounts map[string]map[string]any
	order    []string
	queries  []string

	// Err, when set, fails every call.
	Err error
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{accounts: make(map[string]map[string]any)}
}

// AddCustomer stores a customer Account.
func (f *Fake) AddCustomer(r salesforce.CustomerRecord) *Fake {
	f.add(r.ID, r)
	return f
}

// AddShell stores a shell Account.
func (f *Fake) AddShell(r salesforce.ShellRecord) *Fake {
	f.add(r.ID, r)
	return f
}

func (f *Fake) add(id string, rec any) {
	b, _ := json.Marshal(rec)
	var m map[string]any
	_ = json.Unmarshal(b, &m)

	f.mu.Lock()
	defer f.mu.Unlock()
	key := salesforce.To15(id)
	if _, ok := f.accounts[key]; !ok {
		f.order = append(f.order, key)
	}
	f.accounts[key] = m
}

// Queries returns the SOQL statements received so far.
func (f *Fake) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// Query serves "WHERE Id IN (...)" lookups and "LIMIT n" scans of Account.
func (f *Fake) Query(_ context.Context, soql string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, soql)
	if f.Err != nil {
		return f.Err
	}

	var recs []map[string]any
	if i := strings.Index(soql, " IN ("); i >= 0 {
		for _, m := range quotedID.FindAllStringSubmatch(soql[i:], -1) {
			if rec, ok := f.accounts[salesforce.To15(m[1])]; ok {
				recs = append(recs, rec)
			}
		}
	} else {
		for _, k := range f.order {
			if len(recs) == 5 {
				break
			}
			recs = append(recs, f.accounts[k])
		}
	}
	if recs == nil {
		recs = []map[string]any{}
	}

	b, err := json.Marshal(recs)
	if err != nil {
		return eris.Wrap(err, "sftest: marshal records")
	}
	return json.Unmarshal(b, out)
}

// DescribeSObject returns the Account fields the matcher reads.
func (f *Fake) DescribeSObject(_ context.Context, name string) (*salesforce.SObjectDescription, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	d := &salesforce.SObjectDescription{Name: name, Label: name}
	for _, field := range []string{"Id", "Name", "Website", "ZI_Id__c", "ZI_Company_Name__c", "ZI_Website__c"} {
		d.Fields = append(d.Fields, salesforce.SObjectField{Name: field, Label: field, Type: "string"})
	}
	return d, nil
}
