package eligibility

import (
	"sort"
	"strings"
)

// Score weights per match status
const (
	weightApproved    = 4
	weightConditional = 2
	weightPending     = 1
	weightNotApproved = -2
)

// Options tunes Recommend. A Limit of zero or less returns every recommendation.
type Options struct {
	Limit int `json:"limit"`
}

type universityAggregate struct {
	displayName string
	country     string
	perCourse   map[string]UniversityCourseMatch
}

// Recommend ranks every university with at least one row for the requested codes.
// Ranking prefers coverage over match quality: matched count, then approved count,
// then score, then university name.
func Recommend(codes []string, catalog []CourseMappingRow, opts Options) []UniversityRecommendation {
	return DefaultClassifier.Recommend(codes, catalog, opts)
}

// Recommend is Recommend with a custom classifier
func (c Classifier) Recommend(codes []string, catalog []CourseMappingRow, opts Options) []UniversityRecommendation {
	requested := uniqueCodes(codes)
	if len(requested) == 0 {
		return []UniversityRecommendation{}
	}

	wanted := make(map[string]struct{}, len(requested))
	for _, code := range requested {
		wanted[code] = struct{}{}
	}

	aggregates := make(map[string]*universityAggregate)
	order := make([]string, 0)

	for _, row := range catalog {
		code := NormalizeCode(row.HomeCourseCode)
		if _, ok := wanted[code]; !ok {
			continue
		}

		name := strings.TrimSpace(row.University)
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		agg, ok := aggregates[key]
		if !ok {
			// The first row seen fixes the display name and the country.
			agg = &universityAggregate{
				displayName: name,
				country:     row.Country,
				perCourse:   make(map[string]UniversityCourseMatch),
			}
			aggregates[key] = agg
			order = append(order, key)
		}

		candidate := UniversityCourseMatch{
			CourseCode:      code,
			Status:          c.Classify(row.Status),
			HostCourseTitle: row.HostCourseTitle,
			Notes:           row.Notes,
		}
		current, seen := agg.perCourse[code]
		if !seen || candidate.Status.Priority() > current.Status.Priority() {
			agg.perCourse[code] = candidate
		}
	}

	recommendations := make([]UniversityRecommendation, 0, len(aggregates))
	for _, key := range order {
		agg := aggregates[key]
		if len(agg.perCourse) == 0 {
			continue
		}
		recommendations = append(recommendations, buildRecommendation(agg, requested))
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return ranksBefore(recommendations[i], recommendations[j])
	})

	if opts.Limit > 0 && opts.Limit < len(recommendations) {
		recommendations = recommendations[:opts.Limit]
	}
	return recommendations
}

func buildRecommendation(agg *universityAggregate, requested []string) UniversityRecommendation {
	rec := UniversityRecommendation{
		University:     agg.displayName,
		Country:        agg.country,
		MatchedCourses: make([]UniversityCourseMatch, 0, len(agg.perCourse)),
		MissingCourses: make([]string, 0),
		TotalRequested: len(requested),
	}

	// Walk in request order so output does not depend on map iteration.
	for _, code := range requested {
		match, ok := agg.perCourse[code]
		if !ok {
			rec.MissingCourses = append(rec.MissingCourses, code)
			continue
		}
		rec.MatchedCourses = append(rec.MatchedCourses, match)

		switch match.Status {
		case MatchApproved:
			rec.ApprovedCount++
		case MatchConditional:
			rec.ConditionalCount++
		case MatchPending:
			rec.PendingCount++
		case MatchNotApproved:
			rec.NotApprovedCount++
		}
	}

	// Stable, so courses of equal priority keep request order.
	sort.SliceStable(rec.MatchedCourses, func(i, j int) bool {
		return rec.MatchedCourses[i].Status.Priority() > rec.MatchedCourses[j].Status.Priority()
	})

	rec.Coverage = float64(len(rec.MatchedCourses)) / float64(len(requested))
	rec.Score = rec.ApprovedCount*weightApproved +
		rec.ConditionalCount*weightConditional +
		rec.PendingCount*weightPending +
		rec.NotApprovedCount*weightNotApproved

	return rec
}

func ranksBefore(a, b UniversityRecommendation) bool {
	if len(a.MatchedCourses) != len(b.MatchedCourses) {
		return len(a.MatchedCourses) > len(b.MatchedCourses)
	}
	if a.ApprovedCount != b.ApprovedCount {
		return a.ApprovedCount > b.ApprovedCount
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.University < b.University
}

// uniqueCodes normalizes codes, drops empties and keeps the first occurrence of each
func uniqueCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, raw := range codes {
		code := NormalizeCode(raw)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
