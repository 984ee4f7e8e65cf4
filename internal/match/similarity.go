package match

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/sells-group/shell-match/internal/model"
)

// Signal weights for the precedence-weighted combination.
const (
	primaryWeight   = 0.6
	secondaryWeight = 0.3
	geoWeight       = 0.1
)

// Address component points.
const (
	countryPoints = 30
	statePoints   = 30
	cityPoints    = 30
	postalPoints  = 10
)

// FuzzyRatio returns the sequence similarity of the normalized forms of a
// and b in [0,1]: 2*LCS/(len(a)+len(b)). Either side normalizing to empty
// yields 0.
func FuzzyRatio(a, b string) float64 {
	na := NormalizeCompanyName(a)
	nb := NormalizeCompanyName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	total := utf8.RuneCountInString(na) + utf8.RuneCountInString(nb)
	lcs := edlib.LCS(na, nb)
	return float64(2*lcs) / float64(total)
}

// WebsiteMatch scores two websites by the similarity of their
// domain-derived company tokens.
func WebsiteMatch(customerURL, shellURL string) model.SignalScore {
	if strings.TrimSpace(customerURL) == "" {
		return model.SignalScore{Explanation: "No customer website provided"}
	}
	if strings.TrimSpace(shellURL) == "" {
		return model.SignalScore{Explanation: "No shell ZI website provided"}
	}

	customerDomain, ok := ExtractDomain(customerURL)
	if !ok {
		return model.SignalScore{Explanation: fmt.Sprintf("Could not extract valid domain from customer website: %s", customerURL)}
	}
	shellDomain, ok := ExtractDomain(shellURL)
	if !ok {
		return model.SignalScore{Explanation: fmt.Sprintf("Could not extract valid domain from shell ZI website: %s", shellURL)}
	}

	customerToken, ok := CompanyTokenFromDomain(customerDomain)
	if !ok {
		return model.SignalScore{Explanation: fmt.Sprintf("Could not extract company name from customer domain: %s", customerDomain)}
	}
	shellToken, ok := CompanyTokenFromDomain(shellDomain)
	if !ok {
		return model.SignalScore{Explanation: fmt.Sprintf("Could not extract company name from shell domain: %s", shellDomain)}
	}

	score := FuzzyRatio(customerToken, shellToken) * 100
	return model.SignalScore{
		Score: score,
		Explanation: fmt.Sprintf("Comparing customer domain '%s' with shell ZI domain '%s' (similarity: %.1f%%)",
			customerDomain, shellDomain, score),
	}
}

// NameMatch scores two company names by fuzzy similarity of their normalized forms.
func NameMatch(customerName, shellName string) model.SignalScore {
	if strings.TrimSpace(customerName) == "" {
		return model.SignalScore{Explanation: "No customer name provided"}
	}
	if strings.TrimSpace(shellName) == "" {
		return model.SignalScore{Explanation: "No shell ZI company name provided"}
	}

	score := FuzzyRatio(customerName, shellName) * 100
	return model.SignalScore{
		Score: score,
		Explanation: fmt.Sprintf("Comparing customer name '%s' with shell ZI name '%s' (similarity: %.1f%%)",
			NormalizeCompanyName(customerName), NormalizeCompanyName(shellName), score),
	}
}

// AddressConsistency awards country 30, state 30, city 30 and postal code 10
// points for components present on both sides and equal after trimming and
// lower-casing. Components present on both sides but unequal are listed as
// mismatches; one-sided components are ignored.
func AddressConsistency(customer, shell model.Address) model.SignalScore {
	var (
		score      float64
		matches    []string
		mismatches []string
	)

	compare := func(label, a, b string, points float64) {
		a = strings.ToLower(strings.TrimSpace(a))
		b = strings.ToLower(strings.TrimSpace(b))
		if a == "" || b == "" {
			return
		}
		if a == b {
			score += points
			matches = append(matches, fmt.Sprintf("%s: %s", label, a))
			return
		}
		mismatches = append(mismatches, fmt.Sprintf("%s: %s ≠ %s", label, a, b))
	}

	compare("Country", customer.Country, shell.Country, countryPoints)
	compare("State", customer.State, shell.State, statePoints)
	compare("City", customer.City, shell.City, cityPoints)
	compare("Postal", customer.PostalCode, shell.PostalCode, postalPoints)

	var parts []string
	if len(matches) > 0 {
		parts = append(parts, "Matches: "+strings.Join(matches, ", "))
	}
	if len(mismatches) > 0 {
		parts = append(parts, "Mismatches: "+strings.Join(mismatches, ", "))
	}
	if len(parts) == 0 {
		return model.SignalScore{Explanation: "No address data to compare"}
	}
	return model.SignalScore{Score: score, Explanation: strings.Join(parts, "; ")}
}

// OverallSimilarity scores a customer/shell pair. The primary signal is
// chosen by strict precedence:
//
//	both websites present: 0.6*website + 0.3*name
//	both names present:    0.6*name
//	otherwise:             0.6*(address/100)
//
// and 0.1*(address/100) is always added. Address terms stay on a 0-1 scale
// while website and name use 0-100; existing rankings depend on it. The
// result is clamped to [0,100].
func OverallSimilarity(customer model.CustomerAccount, shell model.ShellAccount) model.Similarity {
	sim := model.Similarity{
		Website: WebsiteMatch(customer.Website, shell.Website),
		Name:    NameMatch(customer.Name, shell.CompanyName),
		Address: AddressConsistency(customer.Address, shell.Address),
	}

	var primary, secondary float64
	switch {
	case present(customer.Website) && present(shell.Website):
		sim.Branch = model.BranchWebsite
		primary = sim.Website.Score * primaryWeight
		secondary = sim.Name.Score * secondaryWeight
	case present(customer.Name) && present(shell.CompanyName):
		sim.Branch = model.BranchName
		primary = sim.Name.Score * primaryWeight
	default:
		sim.Branch = model.BranchAddress
		primary = sim.Address.Score * primaryWeight / 100
	}
	geo := sim.Address.Score * geoWeight / 100

	sim.Overall = clamp(primary+secondary+geo, 0, 100)
	return sim
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
