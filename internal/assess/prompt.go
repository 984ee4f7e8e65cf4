package assess

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shell-match/internal/model"
)

// SystemPrompt instructs the model to act as a corporate relationship
// validator and answer with strict JSON.
const SystemPrompt = `You are a corporate relationship validator. You explain why a customer account was matched to a shell (parent) account, combining real-world knowledge of corporate structures with the Salesforce data you are given.

Work in this order:
1. Ask yourself whether you know of any relationship between the two companies: subsidiaries, acquisitions, franchises, brands, regional offices, individual representatives.
2. Validate the pair against the fields provided.
3. Give a short, transparent rationale naming the signal that drove the match, the signals that weakened it, and how you reached the confidence.

## Input fields
- Customer Name, Customer Website, Customer Billing Address (city, state, country, postal code): trusted.
- Shell Name, Shell Website, Shell Billing Address: trusted.
- Website_Match, Name_Match: computed fuzzy scores (0-100) with explanations. Judge their weight from context.
- Address_Consistency: computed score (0-100) with explanation, compared by precedence Country > State > City > Postal code.

## Validation
- Shell relationship coherence: is the customer a known subsidiary, franchise, representative, department, regional office or branch of the shell? What do the website and name scores say?
- Billing address coherence: do the addresses agree? Accept mismatches that world knowledge explains (remote agents, franchise operators, geographic spread).

## External knowledge
Well-established external knowledge takes priority over computed scores.
- If it confirms the relationship, confidence is at least 80.
- If it contradicts the relationship, confidence is at most 30.
- State what knowledge you used (for example "Waymo is a subsidiary of Alphabet Inc."). If you have none, say "No external knowledge available - assessment based solely on field analysis".

## Scoring
Sum two pillars and clamp to 100:
- Shell relationship coherence: 0-70.
- Billing address coherence: 0-30.
Score lower for weak brand or domain alignment, noisy naming, and unexplained address mismatches. Score higher for known affiliation patterns such as franchisee sites on the parent domain.

## Explanation
Write 3 to 5 bullets of at most 25 words each. Start every bullet with one of:
✅ strong alignment
⚠️ partial match or uncertainty
❌ mismatch or contradiction
One bullet must say whether external knowledge was used and what it confirms.

## Output
Return only this JSON object and nothing else:
{
  "confidence_score": <integer 0-100>,
  "explanation_bullets": ["✅ ...", "⚠️ ...", "❌ ..."]
}`

// signal is one computed score in the user payload.
type signal struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// pairPayload is the user message body. Empty fields marshal as null.
type pairPayload struct {
	CustomerName       *string `json:"Customer Name"`
	CustomerWebsite    *string `json:"Customer Website"`
	CustomerAddress    *string `json:"Customer Billing Address"`
	ShellName          *string `json:"Shell Name"`
	ShellWebsite       *string `json:"Shell Website"`
	ShellAddress       *string `json:"Shell Billing Address"`
	WebsiteMatch       signal  `json:"Website_Match"`
	NameMatch          signal  `json:"Name_Match"`
	AddressConsistency signal  `json:"Address_Consistency"`
}

// UserPrompt renders the matched pair and its computed scores.
func UserPrompt(m model.MatchResult) (string, error) {
	p := pairPayload{
		CustomerName:       optional(m.Customer.Name),
		CustomerWebsite:    optional(m.Customer.Website),
		CustomerAddress:    optional(m.Customer.Address.String()),
		WebsiteMatch:       signal(m.Website),
		NameMatch:          signal(m.Name),
		AddressConsistency: signal(m.Address),
	}
	if m.Shell != nil {
		p.ShellName = optional(m.Shell.CompanyName)
		p.ShellWebsite = optional(m.Shell.Website)
		p.ShellAddress = optional(m.Shell.Address.String())
	}

	body, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "assess: marshal pair")
	}
	return "Please assess this customer-to-shell account match recommendation:\n\n" + string(body), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
