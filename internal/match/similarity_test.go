package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/shell-match/internal/model"
)

func TestFuzzyRatio(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, FuzzyRatio("Acme", "ACME Inc."), 1e-9)
	assert.InDelta(t, 0.0, FuzzyRatio("acme", "zzzz"), 1e-9)
	assert.InDelta(t, 4.0/6.0, FuzzyRatio("abc", "abd"), 1e-9)
	assert.Zero(t, FuzzyRatio("", "acme"))
	assert.Zero(t, FuzzyRatio("acme", "!!!"))
}

func TestFuzzyRatioSymmetricAndBounded(t *testing.T) {
	t.Parallel()

	words := []string{"Acme Corp", "acme", "Acme Widgets", "Widget Co", "kitten", "sitting", "Société", "", "x"}
	for _, a := range words {
		for _, b := range words {
			ab := FuzzyRatio(a, b)
			assert.Equal(t, ab, FuzzyRatio(b, a), "%q vs %q", a, b)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

func TestWebsiteMatch(t *testing.T) {
	t.Parallel()

	t.Run("same token across tlds", func(t *testing.T) {
		t.Parallel()
		got := WebsiteMatch("https://www.acme.com", "https://acme.io")
		assert.InDelta(t, 100.0, got.Score, 1e-9)
		assert.Equal(t, "Comparing customer domain 'acme.com' with shell ZI domain 'acme.io' (similarity: 100.0%)", got.Explanation)
	})

	tests := []struct {
		name     string
		customer string
		shell    string
		want     string
	}{
		{"no customer website", "", "acme.com", "No customer website provided"},
		{"no shell website", "acme.com", " ", "No shell ZI website provided"},
		{"bad customer url", "https://", "acme.com", "Could not extract valid domain from customer website: https://"},
		{"bad shell url", "acme.com", "http://", "Could not extract valid domain from shell ZI website: http://"},
		{"no customer token", ".com", "acme.com", "Could not extract company name from customer domain: .com"},
		{"no shell token", "acme.com", ".io", "Could not extract company name from shell domain: .io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := WebsiteMatch(tt.customer, tt.shell)
			assert.Zero(t, got.Score)
			assert.Equal(t, tt.want, got.Explanation)
		})
	}
}

func TestNameMatch(t *testing.T) {
	t.Parallel()

	got := NameMatch("Acme Corp", "Acme Corporation")
	assert.InDelta(t, 100.0, got.Score, 1e-9)
	assert.Equal(t, "Comparing customer name 'acme' with shell ZI name 'acme' (similarity: 100.0%)", got.Explanation)

	got = NameMatch("", "Acme")
	assert.Zero(t, got.Score)
	assert.Equal(t, "No customer name provided", got.Explanation)

	got = NameMatch("Acme", "")
	assert.Zero(t, got.Score)
	assert.Equal(t, "No shell ZI company name provided", got.Explanation)
}

func TestAddressConsistency(t *testing.T) {
	t.Parallel()

	full := model.Address{City: "Austin", State: "TX", Country: "USA", PostalCode: "78701"}

	t.Run("all equal", func(t *testing.T) {
		t.Parallel()
		got := AddressConsistency(full, model.Address{City: " austin", State: "tx", Country: "usa", PostalCode: "78701"})
		assert.InDelta(t, 100.0, got.Score, 1e-9)
		assert.Equal(t, "Matches: Country: usa, State: tx, City: austin, Postal: 78701", got.Explanation)
	})

	t.Run("postal differs", func(t *testing.T) {
		t.Parallel()
		shell := full
		shell.PostalCode = "78702"
		got := AddressConsistency(full, shell)
		assert.InDelta(t, 90.0, got.Score, 1e-9)
		assert.Contains(t, got.Explanation, "Mismatches: Postal: 78701 ≠ 78702")
	})

	t.Run("one sided postal ignored", func(t *testing.T) {
		t.Parallel()
		customer := full
		customer.PostalCode = ""
		got := AddressConsistency(customer, full)
		assert.InDelta(t, 90.0, got.Score, 1e-9)
		assert.NotContains(t, got.Explanation, "Mismatches")
	})

	t.Run("nothing to compare", func(t *testing.T) {
		t.Parallel()
		got := AddressConsistency(model.Address{City: "Austin"}, model.Address{State: "TX"})
		assert.Zero(t, got.Score)
		assert.Equal(t, "No address data to compare", got.Explanation)
	})

	t.Run("only mismatches", func(t *testing.T) {
		t.Parallel()
		got := AddressConsistency(model.Address{State: "TX"}, model.Address{State: "CA"})
		assert.Zero(t, got.Score)
		assert.Equal(t, "Mismatches: State: tx ≠ ca", got.Explanation)
	})
}

func TestOverallSimilarityBranches(t *testing.T) {
	t.Parallel()

	t.Run("website branch", func(t *testing.T) {
		t.Parallel()
		sim := OverallSimilarity(
			model.CustomerAccount{Name: "Acme Corp", Website: "acme.com", Address: model.Address{City: "Austin"}},
			model.ShellAccount{CompanyName: "Acme Corporation", Website: "acme.com", Address: model.Address{City: "Austin"}},
		)
		assert.Equal(t, model.BranchWebsite, sim.Branch)
		assert.InDelta(t, 60+30+0.03, sim.Overall, 1e-9)
	})

	t.Run("name branch", func(t *testing.T) {
		t.Parallel()
		sim := OverallSimilarity(
			model.CustomerAccount{Name: "Acme Corp"},
			model.ShellAccount{CompanyName: "Acme", Website: "acme.com", Address: model.Address{State: "TX"}},
		)
		assert.Equal(t, model.BranchName, sim.Branch)
		assert.InDelta(t, 60.0, sim.Overall, 1e-9)
	})

	t.Run("address branch keeps unit scale", func(t *testing.T) {
		t.Parallel()
		addr := model.Address{City: "Austin", State: "TX", Country: "USA", PostalCode: "78701"}
		sim := OverallSimilarity(
			model.CustomerAccount{Address: addr},
			model.ShellAccount{Address: addr},
		)
		assert.Equal(t, model.BranchAddress, sim.Branch)
		assert.InDelta(t, 0.7, sim.Overall, 1e-9)
	})

	t.Run("all absent", func(t *testing.T) {
		t.Parallel()
		sim := OverallSimilarity(model.CustomerAccount{}, model.ShellAccount{})
		assert.Zero(t, sim.Overall)
		assert.NotEmpty(t, sim.Website.Explanation)
		assert.NotEmpty(t, sim.Name.Explanation)
		assert.NotEmpty(t, sim.Address.Explanation)
	})
}

func TestOverallSimilarityWebsitePrecedence(t *testing.T) {
	t.Parallel()

	customer := model.CustomerAccount{Website: "acme.com", Address: model.Address{State: "TX"}}
	shell := model.ShellAccount{Website: "acme.io", Address: model.Address{State: "TX"}}

	for _, names := range [][2]string{
		{"Acme", "Acme"},
		{"Acme", "Totally Different"},
		{"", "Acme"},
		{"Zeta Partners", "Alpha Labs"},
	} {
		customer.Name, shell.CompanyName = names[0], names[1]
		sim := OverallSimilarity(customer, shell)
		primaryAndGeo := sim.Website.Score*0.6 + sim.Address.Score*0.1/100
		assert.Equal(t, model.BranchWebsite, sim.Branch)
		assert.InDelta(t, sim.Name.Score*0.3, sim.Overall-primaryAndGeo, 1e-9, "names %v", names)
	}
}

func TestOverallSimilarityBounds(t *testing.T) {
	t.Parallel()

	customers := []model.CustomerAccount{
		{},
		{Name: "Acme"},
		{Website: "acme.com"},
		{Name: "Acme", Website: "https://www.acme.com", Address: model.Address{City: "Austin", State: "TX", Country: "USA", PostalCode: "78701"}},
		{Website: "not a url %%", Name: "!!!"},
	}
	shells := []model.ShellAccount{
		{},
		{CompanyName: "Acme Inc", Website: "acme.io"},
		{Website: "https://", Address: model.Address{Country: "usa"}},
		{CompanyName: "Acme", Website: "acme.com", Address: model.Address{City: "austin", State: "tx", Country: "usa", PostalCode: "78701"}},
	}

	for _, c := range customers {
		for _, s := range shells {
			sim := OverallSimilarity(c, s)
			assert.GreaterOrEqual(t, sim.Overall, 0.0)
			assert.LessOrEqual(t, sim.Overall, 100.0)
			for _, sig := range []model.SignalScore{sim.Website, sim.Name, sim.Address} {
				assert.GreaterOrEqual(t, sig.Score, 0.0)
				assert.LessOrEqual(t, sig.Score, 100.0)
				assert.NotEmpty(t, sig.Explanation)
			}
		}
	}
}
