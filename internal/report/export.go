package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/shell-match/internal/model"
)

// Title heads the results sheet.
const Title = "Customer-to-Shell Account Matching Results"

// Headers are the columns of the results sheet and the CSV export.
var Headers = []string{
	"Customer ID", "Customer Name", "Customer Website", "Customer Billing Address",
	"Match Status", "Match Reason",
	"Recommended Shell ID", "Shell Name", "Shell ZI ID", "Shell Website", "Shell Billing Address",
	"Overall Match Confidence", "Website Match Score", "Name Match Score", "Address Consistency Score",
	"AI Confidence Score", "AI Explanation",
	"Candidate Count", "Processing Notes",
}

// ExportRow is a Row formatted for display. Field order follows Headers.
type ExportRow struct {
	CustomerID      string `csv:"Customer ID"`
	CustomerName    string `csv:"Customer Name"`
	CustomerWebsite string `csv:"Customer Website"`
	CustomerAddress string `csv:"Customer Billing Address"`
	Status          string `csv:"Match Status"`
	Reason          string `csv:"Match Reason"`
	ShellID         string `csv:"Recommended Shell ID"`
	ShellName       string `csv:"Shell Name"`
	ShellZoomInfoID string `csv:"Shell ZI ID"`
	ShellWebsite    string `csv:"Shell Website"`
	ShellAddress    string `csv:"Shell Billing Address"`
	Confidence      string `csv:"Overall Match Confidence"`
	WebsiteScore    string `csv:"Website Match Score"`
	NameScore       string `csv:"Name Match Score"`
	AddressScore    string `csv:"Address Consistency Score"`
	AIConfidence    string `csv:"AI Confidence Score"`
	AIExplanation   string `csv:"AI Explanation"`
	CandidateCount  string `csv:"Candidate Count"`
	Notes           string `csv:"Processing Notes"`
}

// Values returns the cells in Headers order.
func (e ExportRow) Values() []string {
	return []string{
		e.CustomerID, e.CustomerName, e.CustomerWebsite, e.CustomerAddress,
		e.Status, e.Reason,
		e.ShellID, e.ShellName, e.ShellZoomInfoID, e.ShellWebsite, e.ShellAddress,
		e.Confidence, e.WebsiteScore, e.NameScore, e.AddressScore,
		e.AIConfidence, e.AIExplanation,
		e.CandidateCount, e.Notes,
	}
}

// Format renders row for display. Zero scores are left blank.
func Format(row model.Row) ExportRow {
	e := ExportRow{
		CustomerID:      row.CustomerID,
		CustomerName:    row.CustomerName,
		CustomerWebsite: row.CustomerWebsite,
		CustomerAddress: row.CustomerAddress,
		Status:          string(row.Status),
		Reason:          row.Reason,
		ShellID:         row.ShellID,
		ShellName:       row.ShellName,
		ShellZoomInfoID: row.ShellZoomInfoID,
		ShellWebsite:    row.ShellWebsite,
		ShellAddress:    row.ShellAddress,
		Confidence:      percent(row.Confidence),
		WebsiteScore:    percent(row.WebsiteScore),
		NameScore:       percent(row.NameScore),
		AIExplanation:   aiExplanation(row),
		Notes:           row.Notes,
	}
	if row.AddressScore > 0 {
		e.AddressScore = fmt.Sprintf("%.1f/100", row.AddressScore)
	}
	if row.Assessment != nil && row.Assessment.Confidence > 0 {
		e.AIConfidence = fmt.Sprintf("%d/100", row.Assessment.Confidence)
	}
	if row.CandidateCount > 0 {
		e.CandidateCount = strconv.Itoa(row.CandidateCount)
	}
	return e
}

// SummaryLine is the one-line run summary under the results title.
func SummaryLine(s model.Summary) string {
	return fmt.Sprintf("Total Customers: %d | Matched: %d | Unmatched: %d | Flagged: %d | Processing Time: %s",
		s.TotalCustomers, s.Matched, s.Unmatched, s.FlaggedCustomers, s.ExecutionTime())
}

// Metric is one line of the summary sheet.
type Metric struct {
	Name  string
	Value string
}

// Metrics lists the summary sheet lines.
func Metrics(s model.Summary) []Metric {
	rate := "0%"
	if s.CleanCustomers > 0 {
		rate = fmt.Sprintf("%.1f%%", s.MatchRate())
	}
	return []Metric{
		{"Total Customer Accounts Processed", strconv.Itoa(s.TotalCustomers)},
		{"Successfully Matched", strconv.Itoa(s.Matched)},
		{"Unable to Match", strconv.Itoa(s.Unmatched)},
		{"Flagged (Bad Domains)", strconv.Itoa(s.FlaggedCustomers)},
		{"Invalid Account IDs", strconv.Itoa(s.InvalidCustomers)},
		{"Total Shell Accounts Available", strconv.Itoa(s.TotalShells)},
		{"Processing Time", s.ExecutionTime()},
		{"Match Success Rate", rate},
	}
}

// Filename names an export generated at t.
func Filename(t time.Time, ext string) string {
	return fmt.Sprintf("customer_shell_matching_results_%s.%s", t.Format("20060102_150405"), strings.TrimPrefix(ext, "."))
}

// FromRun rebuilds the report of a stored run.
func FromRun(run model.Run) Report {
	return Report{Rows: run.Rows, Summary: run.Summary, GeneratedAt: run.CreatedAt}
}

func percent(v float64) string {
	if v <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f%%", v)
}

func aiExplanation(row model.Row) string {
	if row.Assessment != nil && len(row.Assessment.Bullets) > 0 {
		return strings.Join(row.Assessment.Bullets, "\n")
	}
	if row.Status != model.StatusMatched {
		return "No AI analysis (not matched)"
	}
	return "No AI explanation available"
}
