package dto

import (
	"time"

	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
)

// CatalogResponse is the current course mapping snapshot
type CatalogResponse struct {
	Rows      []eligibility.CourseMappingRow `json:"rows"`
	Count     int                            `json:"count" example:"16"`
	Source    string                         `json:"source" example:"spreadsheet"`
	FetchedAt time.Time                      `json:"fetchedAt"`
	Fallback  bool                           `json:"fallback"`
}

// CountriesResponse lists the destination countries in the catalog
type CountriesResponse struct {
	Countries []string `json:"countries"`
}

// UniversitiesResponse lists the partner universities of a country
type UniversitiesResponse struct {
	Country      string   `json:"country" example:"USA"`
	Universities []string `json:"universities"`
}

// EvaluateRequest asks for a course-by-course verdict at one university
type EvaluateRequest struct {
	Codes      []string `json:"codes" binding:"required,min=1,max=50,dive,max=50" example:"CS101,MATH201"`
	Country    string   `json:"country" binding:"max=100" example:"USA"`
	University string   `json:"university" binding:"required,max=200" example:"Georgia State University"`
}

// EvaluateResponse carries the verdicts and their tally
type EvaluateResponse struct {
	Evaluations []eligibility.EvaluatedCourse `json:"evaluations"`
	Summary     eligibility.Summary           `json:"summary"`
}

// RecommendRequest asks which universities best cover a course list
type RecommendRequest struct {
	Codes []string `json:"codes" binding:"required,min=1,max=50,dive,max=50" example:"CS101,MATH201"`
	Limit int      `json:"limit" binding:"min=0,max=100" example:"5"`
}

// RecommendResponse carries ranked universities
type RecommendResponse struct {
	Recommendations []eligibility.UniversityRecommendation `json:"recommendations"`
}
