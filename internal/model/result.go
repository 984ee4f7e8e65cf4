package model

import (
	"fmt"
	"time"
)

// SignalScore is one similarity signal on a 0-100 scale with its explanation.
type SignalScore struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Branch names the precedence branch used to combine signals.
type Branch string

const (
	BranchWebsite Branch = "website"
	BranchName    Branch = "name"
	BranchAddress Branch = "address"
)

// Similarity is the full scoring of one customer/shell pair.
type Similarity struct {
	Website SignalScore `json:"website_match"`
	Name    SignalScore `json:"name_match"`
	Address SignalScore `json:"address_consistency"`
	Overall float64     `json:"overall"`
	Branch  Branch      `json:"branch"`
}

// ScoredCandidate pairs a shell with its similarity to a customer.
type ScoredCandidate struct {
	Shell      ShellAccount `json:"shell"`
	Similarity Similarity   `json:"similarity"`
}

// MatchResult is the best shell found for a customer. It is not mutated after creation.
type MatchResult struct {
	Customer       CustomerAccount `json:"customer"`
	Shell          *ShellAccount   `json:"shell,omitempty"`
	Confidence     float64         `json:"confidence"`
	Website        SignalScore     `json:"website_match"`
	Name           SignalScore     `json:"name_match"`
	Address        SignalScore     `json:"address_consistency"`
	Branch         Branch          `json:"branch,omitempty"`
	CandidateCount int             `json:"candidate_count"`
	TotalShells    int             `json:"total_shells"`
	UsedFallback   bool            `json:"used_fallback"`
}

// Message is the human-readable outcome line for a match.
func (r MatchResult) Message() string {
	return fmt.Sprintf("Found best match with %.1f%% confidence", r.Confidence)
}

// MatchStatus is the final per-customer outcome.
type MatchStatus string

const (
	StatusMatched   MatchStatus = "MATCHED"
	StatusUnmatched MatchStatus = "UNMATCHED"
	StatusFlagged   MatchStatus = "FLAGGED"
	StatusInvalid   MatchStatus = "INVALID"
)

// FlaggedCustomer is a customer excluded by the domain-quality filter.
type FlaggedCustomer struct {
	Customer CustomerAccount `json:"customer"`
	Domain   string          `json:"domain"`
	Reason   string          `json:"reason"`
}

// UnmatchedCustomer is a clean customer for which no shell could be ranked.
type UnmatchedCustomer struct {
	Customer CustomerAccount `json:"customer"`
	Reason   string          `json:"reason"`
}

// Assessment is the advisory second opinion on a matched pair.
type Assessment struct {
	Confidence int      `json:"confidence_score"`
	Bullets    []string `json:"explanation_bullets"`
	Success    bool     `json:"success"`
	Provider   string   `json:"provider,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Row is one line of the final report. Exactly one row exists per input customer.
type Row struct {
	CustomerID      string      `json:"customer_id"`
	CustomerName    string      `json:"customer_name"`
	CustomerWebsite string      `json:"customer_website"`
	CustomerAddress string      `json:"customer_address"`
	Status          MatchStatus `json:"status"`
	Reason          string      `json:"reason"`

	ShellID         string `json:"shell_id,omitempty"`
	ShellName       string `json:"shell_name,omitempty"`
	ShellZoomInfoID string `json:"shell_zi_id,omitempty"`
	ShellWebsite    string `json:"shell_website,omitempty"`
	ShellAddress    string `json:"shell_address,omitempty"`

	Confidence         float64 `json:"confidence"`
	WebsiteScore       float64 `json:"website_score"`
	NameScore          float64 `json:"name_score"`
	AddressScore       float64 `json:"address_score"`
	WebsiteExplanation string  `json:"website_explanation,omitempty"`
	NameExplanation    string  `json:"name_explanation,omitempty"`
	AddressExplanation string  `json:"address_explanation,omitempty"`

	Assessment *Assessment `json:"ai_assessment,omitempty"`

	CandidateCount int    `json:"candidate_count"`
	TotalShells    int    `json:"total_shells"`
	Notes          string `json:"processing_notes"`
}

// Summary aggregates the counts of a matching run.
type Summary struct {
	TotalCustomers     int     `json:"total_customer_accounts"`
	CleanCustomers     int     `json:"clean_customer_accounts"`
	FlaggedCustomers   int     `json:"flagged_customer_accounts"`
	InvalidCustomers   int     `json:"invalid_customer_accounts"`
	TotalShells        int     `json:"total_shell_accounts"`
	InvalidShells      int     `json:"invalid_shell_accounts"`
	Matched            int     `json:"matched_pairs"`
	Unmatched          int     `json:"unmatched_customers"`
	AssessmentFailures int     `json:"assessment_failures"`
	ExecutionSeconds   float64 `json:"execution_seconds"`
}

// ExecutionTime formats the run duration as "1.23s".
func (s Summary) ExecutionTime() string {
	return fmt.Sprintf("%.2fs", s.ExecutionSeconds)
}

// MatchRate is the share of clean customers that were matched, in percent.
func (s Summary) MatchRate() float64 {
	if s.CleanCustomers <= 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.CleanCustomers) * 100
}

// RunStatus is the lifecycle state of a persisted matching run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted matching run.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Source    string    `json:"source"`
	Summary   Summary   `json:"summary"`
	Rows      []Row     `json:"rows,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
