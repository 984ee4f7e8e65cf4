package match

import (
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/model"
)

const (
	// MinNameTokenLen is the length a name token must exceed to be indexed.
	MinNameTokenLen = 2
	// NameUnionThreshold is the candidate count below which name buckets are
	// unioned into a domain lookup.
	NameUnionThreshold = 10
)

// CandidateIndex is an inverted index over a shell batch keyed by
// domain-derived company token and by normalized name token. It is
// read-only after BuildIndex.
type CandidateIndex struct {
	shells   []model.ShellAccount
	byDomain map[string][]int
	byName   map[string][]int
}

// BuildIndex indexes shells. Shells repeating an earlier ID are dropped.
func BuildIndex(shells []model.ShellAccount) *CandidateIndex {
	idx := &CandidateIndex{
		shells:   make([]model.ShellAccount, 0, len(shells)),
		byDomain: make(map[string][]int),
		byName:   make(map[string][]int),
	}

	seen := make(map[string]bool, len(shells))
	for _, s := range shells {
		if s.ID != "" {
			if seen[s.ID] {
				zap.L().Warn("match: duplicate shell id dropped", zap.String("shell_id", s.ID))
				continue
			}
			seen[s.ID] = true
		}

		pos := len(idx.shells)
		idx.shells = append(idx.shells, s)

		if tok, ok := CompanyTokenFromURL(s.Website); ok {
			idx.byDomain[tok] = append(idx.byDomain[tok], pos)
		}

		added := make(map[string]bool)
		for _, tok := range NameTokens(s.CompanyName, MinNameTokenLen) {
			if added[tok] {
				continue
			}
			added[tok] = true
			idx.byName[tok] = append(idx.byName[tok], pos)
		}
	}

	zap.L().Debug("match: index built",
		zap.Int("shells", len(idx.shells)),
		zap.Int("domain_buckets", len(idx.byDomain)),
		zap.Int("name_buckets", len(idx.byName)),
	)
	return idx
}

// Len returns the number of distinct shells indexed.
func (idx *CandidateIndex) Len() int {
	return len(idx.shells)
}

// Shells returns the indexed shells in input order.
func (idx *CandidateIndex) Shells() []model.ShellAccount {
	return idx.shells
}

// Lookup returns candidate shells for customer, deduplicated by position.
// Domain bucket members come first; name-token buckets are unioned in when
// fewer than NameUnionThreshold candidates were found.
func (idx *CandidateIndex) Lookup(customer model.CustomerAccount) []model.ShellAccount {
	var (
		out  []model.ShellAccount
		seen = make(map[int]bool)
	)
	add := func(positions []int) {
		for _, p := range positions {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, idx.shells[p])
		}
	}

	if tok, ok := CompanyTokenFromURL(customer.Website); ok {
		add(idx.byDomain[tok])
	}

	if len(out) < NameUnionThreshold {
		for _, tok := range NameTokens(customer.Name, MinNameTokenLen) {
			add(idx.byName[tok])
		}
	}
	return out
}
