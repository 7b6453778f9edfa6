package classify

import "strings"

type Intent string

const (
	IntentInvest    Intent = "invest"
	IntentDocuments Intent = "documents"
	IntentConsult   Intent = "consult"
	IntentSupport   Intent = "support"
)

type Service struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Result struct {
	Intent   Intent
	Services []Service
}

// Detect runs keyword matching over the intent and service tables.
// Matching is case-insensitive substring containment: a keyword anywhere
// inside the message counts. The function is total, an empty or junk
// message yields an empty result.
func Detect(text string) Result {
	if text == "" {
		return Result{}
	}

	lower := strings.ToLower(text)

	return Result{
		Intent:   detectIntent(lower),
		Services: detectServices(lower),
	}
}

// detectIntent scores every intent by the number of distinct trigger
// phrases found in the message. The strictly highest score wins; ties go
// to the intent declared earlier in the table, which makes the former
// map-iteration tie-break deterministic.
func detectIntent(lower string) Intent {
	var (
		best      Intent
		bestScore int
	)

	for _, entry := range intentTable {
		score := 0
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				score++
			}
		}

		if score > bestScore {
			best = entry.intent
			bestScore = score
		}
	}

	return best
}

// detectServices is multi-label: a message may mention several offerings
// at once, independently of the winning intent.
func detectServices(lower string) []Service {
	var result []Service

	for _, entry := range serviceTable {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				result = append(result, entry.service)
				break
			}
		}
	}

	return result
}
