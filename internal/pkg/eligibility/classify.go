package eligibility

import "strings"

// Classifier maps free-text catalog statuses onto MatchStatus.
// Exact lists are compared against the whole lower-cased status, keyword lists by substring.
type Classifier struct {
	ApprovedExact       []string
	ApprovedKeywords    []string
	NotApprovedExact    []string
	NotApprovedKeywords []string
	ConditionalExact    []string
	ConditionalKeywords []string
}

// DefaultClassifier holds the keyword lists used for spreadsheet-sourced statuses
var DefaultClassifier = Classifier{
	ApprovedExact:       []string{"approved", "yes", "pre-approved"},
	ApprovedKeywords:    []string{"approved", "pre-approved", "confirmed"},
	NotApprovedExact:    []string{"notapproved", "no"},
	NotApprovedKeywords: []string{"not approved", "rejected", "denied"},
	ConditionalExact:    []string{"conditional"},
	ConditionalKeywords: []string{"conditional", "provisional", "pending syllabus"},
}

// NormalizeCode trims a course code and upper-cases it
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Classify classifies a status with DefaultClassifier
func Classify(status string) MatchStatus {
	return DefaultClassifier.Classify(status)
}

// Classify resolves a free-text status. A status matching both approved and
// not-approved vocabulary is not approved; unrecognized text is pending.
func (c Classifier) Classify(status string) MatchStatus {
	value := strings.ToLower(strings.TrimSpace(status))
	if value == "" {
		return MatchPending
	}

	isApproved := matches(value, c.ApprovedExact, c.ApprovedKeywords)
	isNotApproved := matches(value, c.NotApprovedExact, c.NotApprovedKeywords)
	isConditional := matches(value, c.ConditionalExact, c.ConditionalKeywords)

	switch {
	case isApproved && !isNotApproved:
		return MatchApproved
	case isNotApproved:
		return MatchNotApproved
	case isConditional:
		return MatchConditional
	default:
		return MatchPending
	}
}

func matches(value string, exact, keywords []string) bool {
	for _, e := range exact {
		if value == e {
			return true
		}
	}
	for _, k := range keywords {
		if strings.Contains(value, k) {
			return true
		}
	}
	return false
}
