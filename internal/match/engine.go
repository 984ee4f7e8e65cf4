package match

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/model"
)

var (
	// ErrNoShells is returned when the shell collection is empty.
	ErrNoShells = eris.New("No shell accounts provided")
	// ErrNoViableCandidate is returned when ranking produced nothing to pick.
	ErrNoViableCandidate = eris.New("No viable shell candidates found")
)

// Engine ranks customers against one shell batch. The index is built once
// and shared by every lookup, so an Engine is safe for concurrent use.
type Engine struct {
	index *CandidateIndex
}

// NewEngine indexes shells for matching.
func NewEngine(shells []model.ShellAccount) (*Engine, error) {
	if len(shells) == 0 {
		return nil, ErrNoShells
	}
	return &Engine{index: BuildIndex(shells)}, nil
}

// TotalShells returns the number of distinct shells the engine matches against.
func (e *Engine) TotalShells() int {
	return e.index.Len()
}

// Candidates returns the shells to score for customer. When the index
// yields nothing every shell is a candidate and fallback is true.
func (e *Engine) Candidates(customer model.CustomerAccount) (cands []model.ShellAccount, fallback bool) {
	cands = e.index.Lookup(customer)
	if len(cands) == 0 {
		zap.L().Debug("match: no indexed candidates, scoring all shells",
			zap.String("customer_id", customer.ID),
			zap.Int("shells", e.index.Len()),
		)
		return e.index.Shells(), true
	}
	return cands, false
}

// Rank scores every candidate for customer and returns them best first.
// Ties keep candidate order. limit <= 0 returns all candidates.
func (e *Engine) Rank(customer model.CustomerAccount, limit int) []model.ScoredCandidate {
	cands, _ := e.Candidates(customer)
	ranked := score(customer, cands)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Match returns the best shell for customer.
func (e *Engine) Match(customer model.CustomerAccount) (model.MatchResult, error) {
	cands, fallback := e.Candidates(customer)
	ranked := score(customer, cands)
	if len(ranked) == 0 {
		return model.MatchResult{}, ErrNoViableCandidate
	}

	best := ranked[0]
	shell := best.Shell
	res := model.MatchResult{
		Customer:       customer,
		Shell:          &shell,
		Confidence:     best.Similarity.Overall,
		Website:        best.Similarity.Website,
		Name:           best.Similarity.Name,
		Address:        best.Similarity.Address,
		Branch:         best.Similarity.Branch,
		CandidateCount: len(cands),
		TotalShells:    e.index.Len(),
		UsedFallback:   fallback,
	}

	zap.L().Debug("match: best shell",
		zap.String("customer_id", customer.ID),
		zap.String("shell_id", shell.ID),
		zap.Float64("confidence", res.Confidence),
		zap.String("branch", string(res.Branch)),
		zap.Int("candidates", res.CandidateCount),
	)
	return res, nil
}

// MatchAll matches every customer in order. Customers that cannot be ranked
// are returned as unmatched with the reason.
func (e *Engine) MatchAll(customers []model.CustomerAccount) ([]model.MatchResult, []model.UnmatchedCustomer) {
	var (
		matched   = make([]model.MatchResult, 0, len(customers))
		unmatched []model.UnmatchedCustomer
	)
	for _, c := range customers {
		res, err := e.Match(c)
		if err != nil {
			unmatched = append(unmatched, model.UnmatchedCustomer{Customer: c, Reason: err.Error()})
			continue
		}
		matched = append(matched, res)
	}
	return matched, unmatched
}

// FindBestMatch indexes shells and returns the best match for customer.
// Use an Engine to match many customers against the same shells.
func FindBestMatch(customer model.CustomerAccount, shells []model.ShellAccount) (model.MatchResult, error) {
	e, err := NewEngine(shells)
	if err != nil {
		return model.MatchResult{}, err
	}
	return e.Match(customer)
}

func score(customer model.CustomerAccount, cands []model.ShellAccount) []model.ScoredCandidate {
	ranked := make([]model.ScoredCandidate, len(cands))
	for i, s := range cands {
		ranked[i] = model.ScoredCandidate{Shell: s, Similarity: OverallSimilarity(customer, s)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity.Overall > ranked[j].Similarity.Overall
	})
	return ranked
}
