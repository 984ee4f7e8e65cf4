package assess

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shell-match/internal/model"
)

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// ParseResponse extracts the confidence and bullets from a model reply. The
// reply may wrap the JSON object in other text. Confidence is rounded and
// clamped to 0-100; blank bullets are dropped.
func ParseResponse(text string) (int, []string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil, eris.New("Empty response from model")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		obj := jsonObject.FindString(text)
		if obj == "" {
			return 0, nil, eris.New("No valid JSON found in response")
		}
		if err := json.Unmarshal([]byte(obj), &fields); err != nil {
			return 0, nil, eris.Wrap(err, "Invalid JSON in extracted response")
		}
	}

	rawScore, ok := fields["confidence_score"]
	if !ok {
		return 0, nil, eris.New("Missing required field: confidence_score")
	}
	rawBullets, ok := fields["explanation_bullets"]
	if !ok {
		return 0, nil, eris.New("Missing required field: explanation_bullets")
	}

	var score float64
	if err := json.Unmarshal(rawScore, &score); err != nil {
		return 0, nil, eris.New("confidence_score must be a number")
	}
	var bullets []string
	if err := json.Unmarshal(rawBullets, &bullets); err != nil || bullets == nil {
		return 0, nil, eris.New("explanation_bullets must be a list")
	}

	out := make([]string, 0, len(bullets))
	for _, b := range bullets {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return int(math.Round(math.Max(0, math.Min(100, score)))), out, nil
}

// Failed returns the advisory payload used when no assessment could be
// obtained: zero confidence and bullets naming the error.
func Failed(provider string, err error) model.Assessment {
	msg := err.Error()
	return model.Assessment{
		Confidence: 0,
		Bullets: []string{
			"❌ Error: " + msg,
			"⚠️ Using computed scores only due to AI service error",
			"✅ Basic relationship checks still performed",
		},
		Success:  false,
		Provider: provider,
		Error:    msg,
	}
}
