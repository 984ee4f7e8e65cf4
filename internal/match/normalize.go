package match

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// domainPrefixes are host prefixes that never identify a company. Only the
// first match is stripped.
var domainPrefixes = []string{"www.", "app.", "portal.", "my.", "secure.", "admin."}

// domainSuffixes are checked in listed order; the first match is stripped.
var domainSuffixes = []string{".com", ".org", ".net", ".edu", ".gov", ".co", ".io", ".ai"}

// legalSuffixes is the vocabulary of trailing legal-entity tokens.
var legalSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"ltd":          true,
	"limited":      true,
	"llc":          true,
	"llp":          true,
	"company":      true,
	"co":           true,
	"group":        true,
	"holdings":     true,
	"enterprises":  true,
}

var (
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]+`)
	nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\s]+`)
)

// ExtractDomain returns the lower-cased host of rawURL with a leading
// www./app./portal./my./secure./admin. label removed. A missing scheme is
// treated as https. It returns false when no host can be derived.
func ExtractDomain(rawURL string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if s == "" {
		return "", false
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	for _, p := range domainPrefixes {
		if strings.HasPrefix(host, p) {
			host = strings.TrimPrefix(host, p)
			break
		}
	}
	if host == "" {
		return "", false
	}
	return host, true
}

// CompanyTokenFromDomain strips a known top-level suffix from domain and
// keeps only its lower-case alphanumerics, so "acme-labs.io" becomes
// "acmelabs". It returns false if nothing remains.
func CompanyTokenFromDomain(domain string) (string, bool) {
	d := strings.ToLower(strings.TrimSpace(domain))
	for _, sfx := range domainSuffixes {
		if strings.HasSuffix(d, sfx) {
			d = strings.TrimSuffix(d, sfx)
			break
		}
	}
	d = nonAlnum.ReplaceAllString(d, "")
	if d == "" {
		return "", false
	}
	return d, true
}

// CompanyTokenFromURL chains ExtractDomain and CompanyTokenFromDomain.
func CompanyTokenFromURL(rawURL string) (string, bool) {
	d, ok := ExtractDomain(rawURL)
	if !ok {
		return "", false
	}
	return CompanyTokenFromDomain(d)
}

// NormalizeCompanyName lower-cases name, folds diacritics, turns punctuation
// into spaces, collapses whitespace and drops the trailing run of legal
// suffix tokens ("Acme Holdings, Inc." becomes "acme"). At least one token is
// always kept. The result is a fixed point: normalizing it again returns it
// unchanged.
func NormalizeCompanyName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}
	s = foldDiacritics(s)
	s = nonAlnumSpace.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	for len(tokens) > 1 && legalSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// NameTokens returns the normalized tokens of name longer than minLen runes.
func NameTokens(name string, minLen int) []string {
	fields := strings.Fields(NormalizeCompanyName(name))
	out := fields[:0]
	for _, f := range fields {
		if len(f) > minLen {
			out = append(out, f)
		}
	}
	return out
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
