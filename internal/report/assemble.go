// Package report folds matching outcomes into one row per customer and
// renders them as spreadsheet exports.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/sells-group/shell-match/internal/model"
)

// InvalidAccountName is shown in place of the name of an unresolvable ID.
const InvalidAccountName = "INVALID ACCOUNT ID"

// Processing notes per status.
const (
	noteUnmatched = "No matching shell candidates met minimum similarity threshold"
	noteExcluded  = "Excluded from matching due to data quality issues"
)

// Input is everything a run produced, before assembly.
type Input struct {
	Matched   []model.MatchResult
	Unmatched []model.UnmatchedCustomer
	Flagged   []model.FlaggedCustomer
	// InvalidIDs are customer IDs that did not resolve to a record.
	InvalidIDs []string
	// Assessments are keyed by customer ID.
	Assessments map[string]model.Assessment

	// TotalShells counts resolved shells; the summary adds InvalidShells.
	TotalShells   int
	InvalidShells int
	Elapsed       time.Duration
}

// Report is the assembled result of a run.
type Report struct {
	Rows        []model.Row   `json:"rows"`
	Summary     model.Summary `json:"summary"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Assemble produces exactly one row per customer, sorted by customer name
// and then ID. Flagged and invalid customers are recorded as given; nothing
// here scores them.
func Assemble(in Input) Report {
	rows := make([]model.Row, 0, len(in.Matched)+len(in.Unmatched)+len(in.Flagged)+len(in.InvalidIDs))
	failures := 0

	for _, m := range in.Matched {
		row := customerRow(m.Customer, model.StatusMatched,
			fmt.Sprintf("Matched to shell account with %.1f%% confidence", m.Confidence))
		if m.Shell != nil {
			row.ShellID = m.Shell.ID
			row.ShellName = m.Shell.CompanyName
			row.ShellZoomInfoID = m.Shell.ZoomInfoID
			row.ShellWebsite = m.Shell.Website
			row.ShellAddress = m.Shell.Address.String()
		}
		row.Confidence = m.Confidence
		row.WebsiteScore = m.Website.Score
		row.NameScore = m.Name.Score
		row.AddressScore = m.Address.Score
		row.WebsiteExplanation = m.Website.Explanation
		row.NameExplanation = m.Name.Explanation
		row.AddressExplanation = m.Address.Explanation
		row.CandidateCount = m.CandidateCount
		row.TotalShells = m.TotalShells
		row.Notes = fmt.Sprintf("Evaluated %d shell candidates, found %d potential matches",
			m.TotalShells, m.CandidateCount)

		if a, ok := in.Assessments[m.Customer.ID]; ok {
			row.Assessment = &a
			if !a.Success {
				failures++
			}
		}
		rows = append(rows, row)
	}

	for _, u := range in.Unmatched {
		reason := u.Reason
		if reason == "" {
			reason = "No suitable shell match found"
		}
		row := customerRow(u.Customer, model.StatusUnmatched, reason)
		row.Notes = noteUnmatched
		rows = append(rows, row)
	}

	for _, f := range in.Flagged {
		reason := f.Reason
		if reason == "" {
			reason = "Bad domain detected"
		}
		row := customerRow(f.Customer, model.StatusFlagged, "Excluded from matching: "+reason)
		row.Notes = noteExcluded
		rows = append(rows, row)
	}

	for _, id := range in.InvalidIDs {
		row := customerRow(model.CustomerAccount{ID: id, Name: InvalidAccountName}, model.StatusInvalid,
			"Invalid Account ID - does not exist in Salesforce")
		row.Notes = noteExcluded
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CustomerName != rows[j].CustomerName {
			return rows[i].CustomerName < rows[j].CustomerName
		}
		return rows[i].CustomerID < rows[j].CustomerID
	})

	clean := len(in.Matched) + len(in.Unmatched)
	return Report{
		Rows: rows,
		Summary: model.Summary{
			TotalCustomers:     len(rows),
			CleanCustomers:     clean,
			FlaggedCustomers:   len(in.Flagged),
			InvalidCustomers:   len(in.InvalidIDs),
			TotalShells:        in.TotalShells + in.InvalidShells,
			InvalidShells:      in.InvalidShells,
			Matched:            len(in.Matched),
			Unmatched:          len(in.Unmatched),
			AssessmentFailures: failures,
			ExecutionSeconds:   in.Elapsed.Seconds(),
		},
		GeneratedAt: time.Now(),
	}
}

// Counts tallies rows per status.
func (r Report) Counts() map[model.MatchStatus]int {
	out := make(map[model.MatchStatus]int, 4)
	for _, row := range r.Rows {
		out[row.Status]++
	}
	return out
}

func customerRow(c model.CustomerAccount, status model.MatchStatus, reason string) model.Row {
	return model.Row{
		CustomerID:      c.ID,
		CustomerName:    c.Name,
		CustomerWebsite: c.Website,
		CustomerAddress: c.Address.String(),
		Status:          status,
		Reason:          reason,
	}
}
