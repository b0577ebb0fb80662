// Package eligibility evaluates home course codes against the partner course catalog
// and ranks partner universities for a requested course list.
//
// Every function in this package is pure: it reads the catalog slice it is given and
// returns freshly built values, so concurrent calls over the same snapshot are safe
// as long as the caller does not mutate the snapshot.
package eligibility

// CourseMappingRow is one catalog record mapping a home course to a partner course
type CourseMappingRow struct {
	Country         string  `json:"country"`
	University      string  `json:"university"`
	HomeCourseCode  string  `json:"homeCourseCode"`
	HostCourseTitle string  `json:"hostCourseTitle"`
	Status          string  `json:"status"`
	Notes           *string `json:"notes,omitempty"`
}

// CourseStatus is the verdict for a single requested course at the chosen university
type CourseStatus string

// Course statuses shared with the PDF export and email templates
const (
	CourseApproved    CourseStatus = "approved"
	CourseConditional CourseStatus = "conditional"
	CoursePending     CourseStatus = "pending"
	CourseMissing     CourseStatus = "missing"
)

// Valid reports whether s is one of the four course statuses
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseApproved, CourseConditional, CoursePending, CourseMissing:
		return true
	}
	return false
}

// MatchStatus is the classification of a catalog row's free-text status
type MatchStatus string

// Match statuses
const (
	MatchApproved    MatchStatus = "approved"
	MatchConditional MatchStatus = "conditional"
	MatchPending     MatchStatus = "pending"
	MatchNotApproved MatchStatus = "notApproved"
)

// Priority ranks match statuses; higher is better
func (s MatchStatus) Priority() int {
	switch s {
	case MatchApproved:
		return 4
	case MatchConditional:
		return 3
	case MatchPending:
		return 2
	case MatchNotApproved:
		return 1
	}
	return 0
}

// EvaluatedCourse is the evaluation result for one requested course code
type EvaluatedCourse struct {
	InputCode      string            `json:"inputCode"`
	NormalizedCode string            `json:"normalizedCode"`
	Status         CourseStatus      `json:"status"`
	Mapping        *CourseMappingRow `json:"mapping,omitempty"`
	Message        string            `json:"message"`
}

// UniversityCourseMatch is one requested course matched at a university
type UniversityCourseMatch struct {
	CourseCode      string      `json:"courseCode"`
	Status          MatchStatus `json:"status"`
	HostCourseTitle string      `json:"hostCourseTitle,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
}

// UniversityRecommendation summarizes how well one university covers a requested course list
type UniversityRecommendation struct {
	University       string                  `json:"university"`
	Country          string                  `json:"country"`
	ApprovedCount    int                     `json:"approvedCount"`
	ConditionalCount int                     `json:"conditionalCount"`
	PendingCount     int                     `json:"pendingCount"`
	NotApprovedCount int                     `json:"notApprovedCount"`
	Score            int                     `json:"score"`
	Coverage         float64                 `json:"coverage"`
	MatchedCourses   []UniversityCourseMatch `json:"matchedCourses"`
	MissingCourses   []string                `json:"missingCourses"`
	TotalRequested   int                     `json:"totalRequested"`
}

// Summary tallies evaluated courses by status
type Summary struct {
	AllApproved      bool `json:"allApproved"`
	ApprovedCount    int  `json:"approvedCount"`
	ConditionalCount int  `json:"conditionalCount"`
	PendingCount     int  `json:"pendingCount"`
	MissingCount     int  `json:"missingCount"`
}
