package eligibility

import (
	"fmt"
	"strings"
)

// Fallback messages used when the matched row carries no notes
const (
	MessageApproved    = "Approved match found."
	MessageNotApproved = "This course is not approved for credit transfer."
	MessageConditional = "Conditional approval. Please attach supporting documents."
	MessagePending     = "Awaiting final approval from department."
)

// Filter selects the destination for a single-university evaluation
type Filter struct {
	Country    string `json:"country"`
	University string `json:"university"`
}

// Evaluate produces one EvaluatedCourse per non-empty input code, in input order.
// Duplicate codes are evaluated again rather than collapsed.
func Evaluate(codes []string, catalog []CourseMappingRow, filter Filter) []EvaluatedCourse {
	return DefaultClassifier.Evaluate(codes, catalog, filter)
}

// Evaluate is Evaluate with a custom classifier
func (c Classifier) Evaluate(codes []string, catalog []CourseMappingRow, filter Filter) []EvaluatedCourse {
	university := universityKey(filter.University)
	results := make([]EvaluatedCourse, 0, len(codes))

	for _, raw := range codes {
		code := NormalizeCode(raw)
		if code == "" {
			continue
		}

		mapping := firstMatch(catalog, university, code)
		if mapping == nil {
			results = append(results, missingCourse(code, filter.University, offeredAnywhere(catalog, code)))
			continue
		}

		results = append(results, c.evaluateMapping(code, mapping))
	}

	return results
}

// firstMatch returns the first row in catalog order for the university and code.
// Later duplicates of the same (university, code) pair are ignored.
func firstMatch(catalog []CourseMappingRow, university, code string) *CourseMappingRow {
	for i := range catalog {
		row := &catalog[i]
		if universityKey(row.University) == university && NormalizeCode(row.HomeCourseCode) == code {
			mapping := *row
			return &mapping
		}
	}
	return nil
}

func offeredAnywhere(catalog []CourseMappingRow, code string) bool {
	for i := range catalog {
		if NormalizeCode(catalog[i].HomeCourseCode) == code {
			return true
		}
	}
	return false
}

func missingCourse(code, university string, elsewhere bool) EvaluatedCourse {
	message := fmt.Sprintf("%s is not found in our course database. Please verify the course code or contact your advisor.", code)
	if elsewhere {
		message = fmt.Sprintf("%s is not offered at %s. This course may be available at other partner universities.", code, university)
	}
	return EvaluatedCourse{
		InputCode:      code,
		NormalizedCode: code,
		Status:         CourseMissing,
		Message:        message,
	}
}

func (c Classifier) evaluateMapping(code string, mapping *CourseMappingRow) EvaluatedCourse {
	result := EvaluatedCourse{
		InputCode:      code,
		NormalizedCode: code,
		Mapping:        mapping,
	}

	switch c.Classify(mapping.Status) {
	case MatchApproved:
		result.Status = CourseApproved
		result.Message = MessageApproved
	case MatchNotApproved:
		// Rejected rows stay visible as pending so an advisor can follow up.
		result.Status = CoursePending
		result.Message = notesOr(mapping.Notes, MessageNotApproved)
	case MatchConditional:
		result.Status = CourseConditional
		result.Message = notesOr(mapping.Notes, MessageConditional)
	default:
		result.Status = CoursePending
		result.Message = notesOr(mapping.Notes, MessagePending)
	}

	return result
}

func notesOr(notes *string, fallback string) string {
	if notes != nil {
		return *notes
	}
	return fallback
}

func universityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
