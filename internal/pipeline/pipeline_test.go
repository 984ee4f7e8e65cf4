package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shell-match/internal/assess"
	"github.com/sells-group/shell-match/internal/match"
	"github.com/sells-group/shell-match/internal/model"
	"github.com/sells-group/shell-match/pkg/salesforce"
	"github.com/sells-group/shell-match/pkg/salesforce/sftest"
)

const goodReply = `{"confidence_score": 91, "explanation_bullets": ["✅ Same domain"]}`

func fakeOrg() *sftest.Fake {
	return sftest.New().
		AddCustomer(salesforce.CustomerRecord{ID: "001000000000001AAA", Name: "Acme Corp", Website: "https://www.acme.com", BillingCity: "Austin", BillingState: "TX", BillingCountry: "USA"}).
		AddCustomer(salesforce.CustomerRecord{ID: "001000000000002AAA", Name: "Jane's Bakery", Website: "www.gmail.com"}).
		AddShell(salesforce.ShellRecord{ID: "001000000000101AAA", ZIID: "ZI-1", ZICompanyName: "ACME Corporation", ZIWebsite: "acme.com", ZICompanyCity: "Austin", ZICompanyState: "TX", ZICompanyCountry: "USA"}).
		AddShell(salesforce.ShellRecord{ID: "001000000000102AAA", ZIID: "ZI-2", ZICompanyName: "Globex", ZIWebsite: "globex.com"})
}

func countStatus(rows []model.Row, s model.MatchStatus) int {
	n := 0
	for _, r := range rows {
		if r.Status == s {
			n++
		}
	}
	return n
}

func TestProcess_EndToEnd(t *testing.T) {
	p := New(fakeOrg(), nil, nil, nil)

	res, err := p.Process(context.Background(), Request{
		CustomerIDs: []string{"001000000000001AAA", "001000000000002AAA", "001000000000009AAA"},
		ShellIDs:    []string{"001000000000101AAA", "001000000000102AAA", "001000000000199AAA"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.RunID)

	rows := res.Report.Rows
	require.Len(t, rows, 3)
	assert.Equal(t, 1, countStatus(rows, model.StatusMatched))
	assert.Equal(t, 1, countStatus(rows, model.StatusFlagged))
	assert.Equal(t, 1, countStatus(rows, model.StatusInvalid))

	for _, r := range rows {
		if r.Status == model.StatusMatched {
			assert.Equal(t, "001000000000101AAA", r.ShellID)
			assert.Nil(t, r.Assessment)
		}
	}

	s := res.Report.Summary
	assert.Equal(t, 3, s.TotalCustomers)
	assert.Equal(t, 1, s.CleanCustomers)
	assert.Equal(t, 1, s.InvalidCustomers)
	assert.Equal(t, 3, s.TotalShells, "resolved plus invalid")
	assert.Equal(t, 1, s.InvalidShells)
}

func TestProcess_RequiresIDs(t *testing.T) {
	p := New(fakeOrg(), nil, nil, nil)

	_, err := p.Process(context.Background(), Request{CustomerIDs: []string{"001000000000001AAA"}})
	assert.ErrorIs(t, err, ErrNoIDs)

	_, err = p.Process(context.Background(), Request{ShellIDs: []string{"001000000000101AAA"}})
	assert.ErrorIs(t, err, ErrNoIDs)
}

func TestProcess_SalesforceErrorSavesFailedRun(t *testing.T) {
	sf := fakeOrg()
	sf.Err = errors.New("INVALID_SESSION_ID")

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, mock.MatchedBy(func(r model.Run) bool {
		return r.Status == model.RunStatusFailed && r.Source == SourceSalesforce && strings.Contains(r.Error, "INVALID_SESSION_ID")
	})).Return(&model.Run{ID: "run-failed"}, nil)

	p := New(sf, nil, nil, st)
	_, err := p.Process(context.Background(), Request{
		CustomerIDs: []string{"001000000000001AAA"},
		ShellIDs:    []string{"001000000000101AAA"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: fetch customers")
	st.AssertExpectations(t)
}

func TestProcess_NoShellsFoundStillReports(t *testing.T) {
	p := New(fakeOrg(), nil, nil, nil)

	res, err := p.Process(context.Background(), Request{
		CustomerIDs: []string{"001000000000001AAA", "001000000000002AAA", "001000000000404AAA"},
		ShellIDs:    []string{"001000000000199AAA"},
	})
	require.NoError(t, err)

	rows := res.Report.Rows
	require.Len(t, rows, 3, "one row per customer")
	assert.Equal(t, 1, countStatus(rows, model.StatusUnmatched))
	assert.Equal(t, 1, countStatus(rows, model.StatusFlagged))
	assert.Equal(t, 1, countStatus(rows, model.StatusInvalid))

	for _, r := range rows {
		if r.Status == model.StatusUnmatched {
			assert.Equal(t, "001000000000001AAA", r.CustomerID)
			assert.Equal(t, match.ErrNoShells.Error(), r.Reason)
			assert.Empty(t, r.ShellID)
		}
	}

	s := res.Report.Summary
	assert.Equal(t, 0, s.Matched)
	assert.Equal(t, 1, s.Unmatched)
	assert.Equal(t, 1, s.InvalidShells)
	assert.Equal(t, 1, s.TotalShells)
}

func TestProcessRecords_NoShellsSavesCompleteRun(t *testing.T) {
	st := new(mockStore)
	st.On("CreateRun", mock.Anything, mock.MatchedBy(func(r model.Run) bool {
		return r.Status == model.RunStatusComplete && len(r.Rows) == 3 && r.Summary.Unmatched == 1
	})).Return(&model.Run{ID: "run-empty"}, nil)

	p := New(nil, nil, nil, st)
	res, err := p.ProcessRecords(context.Background(), Records{
		Customers: []model.CustomerAccount{
			{ID: "c1", Name: "Acme Corp", Website: "acme.com"},
			{ID: "c2", Name: "Bob", Website: "gmail.com"},
		},
		InvalidCustomerIDs: []string{"001C"},
	})
	require.NoError(t, err)
	assert.Equal(t, "run-empty", res.RunID)
	assert.Equal(t, 1, countStatus(res.Report.Rows, model.StatusUnmatched))
	assert.Equal(t, 1, countStatus(res.Report.Rows, model.StatusFlagged))
	assert.Equal(t, 1, countStatus(res.Report.Rows, model.StatusInvalid))
	st.AssertExpectations(t)
}

func TestProcessRecords_AssessesAndSaves(t *testing.T) {
	mp := new(mockProvider)
	mp.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(goodReply, nil)
	assessor := assess.New(mp, assess.Config{Concurrency: 2, BatchSize: 5})

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, mock.MatchedBy(func(r model.Run) bool {
		return r.Status == model.RunStatusComplete && r.Source == SourceSheet && len(r.Rows) == 2
	})).Return(&model.Run{ID: "run-1"}, nil)

	p := New(nil, nil, assessor, st)
	assert.True(t, p.AssessEnabled())

	res, err := p.ProcessRecords(context.Background(), Records{
		Customers: []model.CustomerAccount{
			{ID: "c1", Name: "Acme Corp", Website: "acme.com"},
			{ID: "c2", Name: "Globex Inc", Website: "globex.com"},
		},
		Shells: []model.ShellAccount{
			{ID: "s1", CompanyName: "Acme", Website: "acme.com"},
			{ID: "s2", CompanyName: "Globex", Website: "www.globex.com"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)

	for _, r := range res.Report.Rows {
		require.NotNil(t, r.Assessment, r.CustomerID)
		assert.Equal(t, 91, r.Assessment.Confidence)
		assert.True(t, r.Assessment.Success)
	}
	mp.AssertNumberOfCalls(t, "Complete", 2)
	st.AssertExpectations(t)
}

func TestProcessRecords_SkipAssessment(t *testing.T) {
	mp := new(mockProvider)
	p := New(nil, nil, assess.New(mp, assess.Config{}), nil)

	res, err := p.ProcessRecords(context.Background(), Records{
		Customers:      []model.CustomerAccount{{ID: "c1", Name: "Acme", Website: "acme.com"}},
		Shells:         []model.ShellAccount{{ID: "s1", CompanyName: "Acme", Website: "acme.com"}},
		SkipAssessment: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Report.Rows, 1)
	assert.Nil(t, res.Report.Rows[0].Assessment)
	mp.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessRecords_StoreErrorIsNotFatal(t *testing.T) {
	st := new(mockStore)
	st.On("CreateRun", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

	p := New(nil, nil, nil, st)
	res, err := p.ProcessRecords(context.Background(), Records{
		Customers: []model.CustomerAccount{{ID: "c1", Name: "Acme", Website: "acme.com"}},
		Shells:    []model.ShellAccount{{ID: "s1", CompanyName: "Acme", Website: "acme.com"}},
		Source:    SourceSalesforce,
	})
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
	assert.Equal(t, 1, res.Report.Summary.Matched)
	st.AssertExpectations(t)
}

func TestProcessRecords_CleansNullSentinels(t *testing.T) {
	p := New(nil, nil, nil, nil)

	res, err := p.ProcessRecords(context.Background(), Records{
		Customers: []model.CustomerAccount{{ID: "c1", Name: "Acme", Website: "nan"}},
		Shells:    []model.ShellAccount{{ID: "s1", CompanyName: "Acme", Website: "None"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Report.Rows, 1)
	assert.Empty(t, res.Report.Rows[0].CustomerWebsite)
	assert.Equal(t, model.StatusMatched, res.Report.Rows[0].Status)
}

func TestProcess_MergesPrevalidatedInvalidIDs(t *testing.T) {
	p := New(fakeOrg(), nil, nil, nil)

	res, err := p.Process(context.Background(), Request{
		CustomerIDs:        []string{"001000000000001AAA", "001000000000009AAA"},
		ShellIDs:           []string{"001000000000101AAA"},
		InvalidCustomerIDs: []string{"not-an-id", "001000000000009"},
		InvalidShellIDs:    []string{"bad-shell"},
	})
	require.NoError(t, err)

	s := res.Report.Summary
	assert.Equal(t, 2, s.InvalidCustomers, "15 and 18 character forms are the same account")
	assert.Equal(t, 1, s.InvalidShells)
	assert.Equal(t, 3, s.TotalCustomers)
}

func TestMergeIDs(t *testing.T) {
	got := mergeIDs([]string{"x", "001000000000009"}, []string{"x", "001000000000009AAA", "001000000000010AAA"})
	assert.Equal(t, []string{"x", "001000000000009", "001000000000010AAA"}, got)
	assert.Empty(t, mergeIDs(nil, nil))
}
