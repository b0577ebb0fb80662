package eligibility

import (
	"sort"
	"strings"
)

// Summarise tallies evaluations by status. AllApproved is true when nothing is
// conditional, pending or missing, which includes the empty input.
func Summarise(evaluations []EvaluatedCourse) Summary {
	var s Summary
	for _, e := range evaluations {
		switch e.Status {
		case CourseApproved:
			s.ApprovedCount++
		case CourseConditional:
			s.ConditionalCount++
		case CoursePending:
			s.PendingCount++
		case CourseMissing:
			s.MissingCount++
		}
	}
	s.AllApproved = s.ConditionalCount == 0 && s.PendingCount == 0 && s.MissingCount == 0
	return s
}

// Countries lists the distinct countries in the catalog, sorted
func Countries(catalog []CourseMappingRow) []string {
	set := make(map[string]struct{})
	for _, row := range catalog {
		set[row.Country] = struct{}{}
	}
	return sortedKeys(set)
}

// Universities lists the distinct universities of a country, trimmed and sorted
func Universities(catalog []CourseMappingRow, country string) []string {
	set := make(map[string]struct{})
	for _, row := range catalog {
		if row.Country != country {
			continue
		}
		set[strings.TrimSpace(row.University)] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
