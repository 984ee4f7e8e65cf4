// Package pipeline runs a matching job end to end: load records, filter bad
// domains, match, assess, assemble and persist.
package pipeline

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/assess"
	"github.com/sells-group/shell-match/internal/domaincheck"
	"github.com/sells-group/shell-match/internal/match"
	"github.com/sells-group/shell-match/internal/model"
	"github.com/sells-group/shell-match/internal/report"
	"github.com/sells-group/shell-match/internal/store"
	"github.com/sells-group/shell-match/pkg/salesforce"
)

// Run sources.
const (
	SourceSalesforce = "salesforce"
	SourceSheet      = "sheet"
)

// ErrNoIDs is returned when a request omits customer or shell IDs.
var ErrNoIDs = eris.New("customer and shell account IDs are both required")

// Pipeline wires the matching stages together. A nil assessor or store
// disables that stage.
type Pipeline struct {
	salesforce salesforce.Client
	domains    *domaincheck.Checker
	assessor   *assess.Assessor
	store      store.Store
}

// New creates a Pipeline. domains defaults to the built-in bad-domain list.
func New(sf salesforce.Client, domains *domaincheck.Checker, assessor *assess.Assessor, st store.Store) *Pipeline {
	if domains == nil {
		domains = domaincheck.New(nil)
	}
	return &Pipeline{
		salesforce: sf,
		domains:    domains,
		assessor:   assessor,
		store:      st,
	}
}

// AssessEnabled reports whether matched pairs get an LLM assessment.
func (p *Pipeline) AssessEnabled() bool {
	return p.assessor != nil
}

// Request asks for a match between customer and shell Accounts by ID.
type Request struct {
	CustomerIDs    []string `json:"customer_account_ids"`
	ShellIDs       []string `json:"shell_account_ids"`
	SkipAssessment bool     `json:"skip_assessment,omitempty"`

	// IDs already rejected by upload validation. They are reported as
	// invalid alongside IDs Salesforce does not return.
	InvalidCustomerIDs []string `json:"invalid_customer_ids,omitempty"`
	InvalidShellIDs    []string `json:"invalid_shell_ids,omitempty"`
}

// Records is a matching job over records already in memory.
type Records struct {
	Customers []model.CustomerAccount
	Shells    []model.ShellAccount
	// InvalidCustomerIDs are customer IDs that did not resolve to a record.
	InvalidCustomerIDs []string
	InvalidShells      int
	Source             string
	SkipAssessment     bool
}

// Result is the outcome of a run. RunID is empty when no store is configured
// or the save failed.
type Result struct {
	RunID  string        `json:"run_id,omitempty"`
	Report report.Report `json:"report"`
}

// Process fetches both sides from Salesforce and matches them.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	if len(req.CustomerIDs) == 0 || len(req.ShellIDs) == 0 {
		return nil, ErrNoIDs
	}
	if p.salesforce == nil {
		return nil, eris.New("pipeline: salesforce client not configured")
	}

	log := zap.L().With(zap.Int("customer_ids", len(req.CustomerIDs)), zap.Int("shell_ids", len(req.ShellIDs)))
	log.Info("pipeline: fetching accounts")

	customers, missingCustomers, err := salesforce.FetchCustomerAccounts(ctx, p.salesforce, req.CustomerIDs)
	if err != nil {
		p.saveFailed(ctx, SourceSalesforce, err)
		return nil, eris.Wrap(err, "pipeline: fetch customers")
	}
	shells, missingShells, err := salesforce.FetchShellAccounts(ctx, p.salesforce, req.ShellIDs)
	if err != nil {
		p.saveFailed(ctx, SourceSalesforce, err)
		return nil, eris.Wrap(err, "pipeline: fetch shells")
	}
	if len(missingCustomers) > 0 || len(missingShells) > 0 {
		log.Warn("pipeline: account IDs not found",
			zap.Int("customers", len(missingCustomers)),
			zap.Int("shells", len(missingShells)),
		)
	}

	return p.ProcessRecords(ctx, Records{
		Customers:          customers,
		Shells:             shells,
		InvalidCustomerIDs: mergeIDs(req.InvalidCustomerIDs, missingCustomers),
		InvalidShells:      len(mergeIDs(req.InvalidShellIDs, missingShells)),
		Source:             SourceSalesforce,
		SkipAssessment:     req.SkipAssessment,
	})
}

// ProcessRecords matches records already loaded, e.g. from spreadsheets.
func (p *Pipeline) ProcessRecords(ctx context.Context, recs Records) (*Result, error) {
	start := time.Now()
	source := recs.Source
	if source == "" {
		source = SourceSheet
	}
	log := zap.L().With(zap.String("source", source))

	customers := make([]model.CustomerAccount, len(recs.Customers))
	for i, c := range recs.Customers {
		customers[i] = c.Clean()
	}
	shells := make([]model.ShellAccount, len(recs.Shells))
	for i, s := range recs.Shells {
		shells[i] = s.Clean()
	}

	clean, flagged := p.domains.Partition(customers)

	var (
		matched     []model.MatchResult
		unmatched   []model.UnmatchedCustomer
		totalShells int
	)
	engine, err := match.NewEngine(shells)
	switch {
	case errors.Is(err, match.ErrNoShells):
		log.Warn("pipeline: no shell accounts, every clean customer is unmatched",
			zap.Int("customers", len(clean)),
		)
		for _, c := range clean {
			unmatched = append(unmatched, model.UnmatchedCustomer{Customer: c, Reason: match.ErrNoShells.Error()})
		}
	case err != nil:
		p.saveFailed(ctx, source, err)
		return nil, eris.Wrap(err, "pipeline: build shell index")
	default:
		totalShells = engine.TotalShells()
		log.Info("pipeline: matching",
			zap.Int("customers", len(clean)),
			zap.Int("flagged", len(flagged)),
			zap.Int("shells", totalShells),
		)
		matched, unmatched = engine.MatchAll(clean)
	}

	var assessments map[string]model.Assessment
	if p.assessor != nil && !recs.SkipAssessment && len(matched) > 0 {
		assessments, err = p.assessor.Batch(ctx, matched)
		if err != nil {
			p.saveFailed(ctx, source, err)
			return nil, eris.Wrap(err, "pipeline: assess matches")
		}
	}

	rep := report.Assemble(report.Input{
		Matched:       matched,
		Unmatched:     unmatched,
		Flagged:       flagged,
		InvalidIDs:    recs.InvalidCustomerIDs,
		Assessments:   assessments,
		TotalShells:   totalShells,
		InvalidShells: recs.InvalidShells,
		Elapsed:       time.Since(start),
	})
	log.Info("pipeline: complete", zap.String("summary", report.SummaryLine(rep.Summary)))

	res := &Result{Report: rep}
	if p.store != nil {
		run, err := p.store.CreateRun(ctx, model.Run{
			Status:  model.RunStatusComplete,
			Source:  source,
			Summary: rep.Summary,
			Rows:    rep.Rows,
		})
		if err != nil {
			log.Warn("pipeline: failed to save run", zap.Error(err))
		} else {
			res.RunID = run.ID
		}
	}
	return res, nil
}

// mergeIDs appends the IDs of extra not already in base.
func mergeIDs(base, extra []string) []string {
	out := append([]string(nil), base...)
	for _, id := range extra {
		if !slices.ContainsFunc(out, func(b string) bool { return b == id || salesforce.SameID(b, id) }) {
			out = append(out, id)
		}
	}
	return out
}

// saveFailed records a failed run so it shows up in run history.
func (p *Pipeline) saveFailed(ctx context.Context, source string, cause error) {
	if p.store == nil {
		return
	}
	// The request context may already be done.
	ctx = context.WithoutCancel(ctx)
	if _, err := p.store.CreateRun(ctx, model.Run{
		Status: model.RunStatusFailed,
		Source: source,
		Error:  cause.Error(),
	}); err != nil {
		zap.L().Warn("pipeline: failed to save failed run", zap.Error(err))
	}
}
