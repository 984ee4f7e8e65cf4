package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr Address
		want string
	}{
		{"full", Address{City: "Austin", State: "TX", Country: "USA", PostalCode: "78701"}, "Austin, TX, USA, 78701"},
		{"partial", Address{State: "TX", Country: "USA"}, "TX, USA"},
		{"whitespace only", Address{City: "  "}, ""},
		{"empty", Address{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.addr.String())
		})
	}
}

func TestAddressIsEmpty(t *testing.T) {
	t.Parallel()
	assert.True(t, Address{}.IsEmpty())
	assert.True(t, Address{City: " "}.IsEmpty())
	assert.False(t, Address{PostalCode: "78701"}.IsEmpty())
}

func TestCleanField(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", CleanField("nan"))
	assert.Equal(t, "", CleanField(" NaN "))
	assert.Equal(t, "", CleanField("None"))
	assert.Equal(t, "", CleanField("null"))
	assert.Equal(t, "Acme", CleanField("  Acme "))
	assert.Equal(t, "Nancy", CleanField("Nancy"))
}

func TestCustomerClean(t *testing.T) {
	t.Parallel()

	c := CustomerAccount{
		ID:      " 001A ",
		Name:    "nan",
		Website: "acme.com",
		Address: Address{City: "None", State: "TX"},
	}.Clean()

	assert.Equal(t, "001A", c.ID)
	assert.Empty(t, c.Name)
	assert.Equal(t, "acme.com", c.Website)
	assert.Empty(t, c.Address.City)
	assert.Equal(t, "TX", c.Address.State)
}

func TestShellClean(t *testing.T) {
	t.Parallel()

	s := ShellAccount{ID: "001B", ZoomInfoID: "null", CompanyName: " Acme Inc "}.Clean()
	assert.Empty(t, s.ZoomInfoID)
	assert.Equal(t, "Acme Inc", s.CompanyName)
}

func TestSummaryMatchRate(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Summary{Matched: 3}.MatchRate())
	assert.InDelta(t, 75.0, Summary{Matched: 3, CleanCustomers: 4}.MatchRate(), 0.001)
	assert.Equal(t, "1.50s", Summary{ExecutionSeconds: 1.5}.ExecutionTime())
}

func TestMatchStatusValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MATCHED", string(StatusMatched))
	assert.Equal(t, "UNMATCHED", string(StatusUnmatched))
	assert.Equal(t, "FLAGGED", string(StatusFlagged))
	assert.Equal(t, "INVALID", string(StatusInvalid))
}
