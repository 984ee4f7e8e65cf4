// Package domaincheck flags customer accounts whose website cannot identify
// a company, so they are kept out of matching.
package domaincheck

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/match"
	"github.com/sells-group/shell-match/internal/model"
)

// Built-in categories.
const (
	CategoryFreeEmail   = "free_email"
	CategoryPlaceholder = "placeholder"
	CategorySocial      = "social"
	CategoryShortener   = "shortener"
	CategorySiteBuilder = "site_builder"
	CategoryInvalid     = "invalid"
)

var categoryLabels = map[string]string{
	CategoryFreeEmail:   "a free email provider",
	CategoryPlaceholder: "a placeholder domain",
	CategorySocial:      "a social media site",
	CategoryShortener:   "a link shortener",
	CategorySiteBuilder: "a hosted site builder",
}

var defaultDomains = map[string][]string{
	CategoryFreeEmail: {
		"gmail.com", "googlemail.com", "yahoo.com", "ymail.com", "hotmail.com",
		"outlook.com", "live.com", "msn.com", "aol.com", "icloud.com", "me.com",
		"mac.com", "protonmail.com", "proton.me", "gmx.com", "gmx.net",
		"mail.com", "zoho.com", "yandex.com", "comcast.net", "verizon.net",
		"att.net", "sbcglobal.net",
	},
	CategoryPlaceholder: {
		"example.com", "example.org", "example.net", "test.com", "domain.com",
		"website.com", "none.com", "na.com", "noemail.com",
	},
	CategorySocial: {
		"facebook.com", "fb.com", "linkedin.com", "twitter.com", "x.com",
		"instagram.com", "youtube.com", "tiktok.com", "pinterest.com",
		"yelp.com",
	},
	CategoryShortener: {
		"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "rebrand.ly",
	},
	CategorySiteBuilder: {
		"wixsite.com", "wix.com", "squarespace.com", "weebly.com",
		"wordpress.com", "blogspot.com", "godaddysites.com", "sites.google.com",
		"business.site", "myshopify.com",
	},
}

// Result is the outcome of checking one website.
type Result struct {
	Domain      string `json:"domain,omitempty"`
	Category    string `json:"category,omitempty"`
	IsBad       bool   `json:"is_bad"`
	Explanation string `json:"explanation"`
}

// Checker decides whether a website is usable for matching. It is read-only
// after construction and safe for concurrent use.
type Checker struct {
	domains map[string]string
	allow   map[string]bool
}

// New returns a Checker over the built-in list extended by cfg (may be nil).
func New(cfg *Config) *Checker {
	c := &Checker{
		domains: make(map[string]string),
		allow:   make(map[string]bool),
	}
	for cat, domains := range defaultDomains {
		for _, d := range domains {
			c.domains[d] = cat
		}
	}
	if cfg == nil {
		return c
	}
	for cat, domains := range cfg.Categories {
		for _, d := range domains {
			c.domains[d] = cat
		}
	}
	for _, d := range cfg.Allow {
		c.allow[d] = true
	}
	return c
}

// Load builds a Checker from the YAML file at path. An empty path yields
// the built-in list.
func Load(path string) (*Checker, error) {
	if path == "" {
		return New(nil), nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// Len returns the number of listed domains.
func (c *Checker) Len() int {
	return len(c.domains)
}

// Check classifies website. An absent website is not bad; it simply carries
// no domain signal.
func (c *Checker) Check(website string) Result {
	website = model.CleanField(website)
	if website == "" {
		return Result{Explanation: "No website provided"}
	}

	domain, ok := match.ExtractDomain(website)
	if !ok || !strings.Contains(domain, ".") {
		return Result{
			Category:    CategoryInvalid,
			IsBad:       true,
			Explanation: fmt.Sprintf("Website %q is not a valid domain", website),
		}
	}

	for d := domain; d != ""; d = parent(d) {
		if c.allow[d] {
			return Result{Domain: domain, Explanation: "Domain is allowed"}
		}
		if cat, listed := c.domains[d]; listed {
			return Result{
				Domain:      domain,
				Category:    cat,
				IsBad:       true,
				Explanation: fmt.Sprintf("Website domain %s is %s", domain, label(cat)),
			}
		}
	}
	return Result{Domain: domain, Explanation: "Domain looks valid"}
}

// Partition splits customers into those usable for matching and those
// flagged for a bad website domain. Input order is kept in both outputs.
func (c *Checker) Partition(customers []model.CustomerAccount) ([]model.CustomerAccount, []model.FlaggedCustomer) {
	clean := make([]model.CustomerAccount, 0, len(customers))
	var flagged []model.FlaggedCustomer
	for _, cust := range customers {
		r := c.Check(cust.Website)
		if !r.IsBad {
			clean = append(clean, cust)
			continue
		}
		flagged = append(flagged, model.FlaggedCustomer{
			Customer: cust,
			Domain:   r.Domain,
			Reason:   r.Explanation,
		})
	}

	if len(flagged) > 0 {
		zap.L().Info("domaincheck: flagged customers",
			zap.Int("flagged", len(flagged)),
			zap.Int("clean", len(clean)),
		)
	}
	return clean, flagged
}

// Categories returns the listed categories, sorted.
func (c *Checker) Categories() []string {
	seen := make(map[string]bool)
	for _, cat := range c.domains {
		seen[cat] = true
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// parent drops the left-most label; "a.b.com" becomes "b.com". Single-label
// names have no parent.
func parent(domain string) string {
	i := strings.IndexByte(domain, '.')
	if i < 0 {
		return ""
	}
	rest := domain[i+1:]
	if !strings.Contains(rest, ".") {
		return ""
	}
	return rest
}

func label(cat string) string {
	if l, ok := categoryLabels[cat]; ok {
		return l
	}
	return "listed as " + strings.ReplaceAll(cat, "_", " ")
}
