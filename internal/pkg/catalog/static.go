package catalog

import (
	"context"

	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
)

// StaticSource serves a fixed row list
type StaticSource struct {
	rows []eligibility.CourseMappingRow
}

// NewStaticSource creates a source over rows. A nil slice selects the sample catalog.
func NewStaticSource(rows []eligibility.CourseMappingRow) *StaticSource {
	if rows == nil {
		rows = SampleRows()
	}
	return &StaticSource{rows: cloneRows(rows)}
}

// Name identifies the source in logs
func (s *StaticSource) Name() string { return "static" }

// Fetch returns a copy of the rows
func (s *StaticSource) Fetch(ctx context.Context) ([]eligibility.CourseMappingRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneRows(s.rows), nil
}

func note(s string) *string { return &s }

// SampleRows is the built-in demonstration catalog
func SampleRows() []eligibility.CourseMappingRow {
	return []eligibility.CourseMappingRow{
		{Country: "Canada", University: "University of Toronto", HomeCourseCode: "MGT101", HostCourseTitle: "Introduction to Management", Status: "Approved", Notes: note("Counts as core management credit.")},
		{Country: "Canada", University: "University of Toronto", HomeCourseCode: "FIN201", HostCourseTitle: "Corporate Finance", Status: "Approved"},
		{Country: "Canada", University: "University of Toronto", HomeCourseCode: "MKT205", HostCourseTitle: "Consumer Behaviour", Status: "Conditionally Approved", Notes: note("Attach syllabus for final confirmation.")},
		{Country: "Canada", University: "McGill University", HomeCourseCode: "MGT101", HostCourseTitle: "Foundations of Management", Status: "Approved"},
		{Country: "Canada", University: "McGill University", HomeCourseCode: "ACC210", HostCourseTitle: "Intermediate Accounting I", Status: "Approved"},
		{Country: "Canada", University: "McGill University", HomeCourseCode: "ECO110", HostCourseTitle: "Microeconomic Analysis", Status: "Pending"},
		{Country: "Spain", University: "IE University", HomeCourseCode: "MGT101", HostCourseTitle: "Principles of Management", Status: "Approved"},
		{Country: "Spain", University: "IE University", HomeCourseCode: "FIN201", HostCourseTitle: "Financial Decision Making", Status: "Approved"},
		{Country: "Spain", University: "IE University", HomeCourseCode: "STM120", HostCourseTitle: "Statistics for Business", Status: "Approved"},
		{Country: "Spain", University: "ESADE Business School", HomeCourseCode: "MGT101", HostCourseTitle: "Business Foundations", Status: "Approved"},
		{Country: "Spain", University: "ESADE Business School", HomeCourseCode: "MKT205", HostCourseTitle: "International Marketing", Status: "Approved"},
		{Country: "Spain", University: "ESADE Business School", HomeCourseCode: "FIN201", HostCourseTitle: "Financial Markets", Status: "Approved"},
		{Country: "Japan", University: "Keio University", HomeCourseCode: "MGT101", HostCourseTitle: "Global Management", Status: "Approved"},
		{Country: "Japan", University: "Keio University", HomeCourseCode: "FIN201", HostCourseTitle: "Investment Theory", Status: "Pending", Notes: note("Awaiting updated syllabus.")},
		{Country: "Japan", University: "Waseda University", HomeCourseCode: "MGT101", HostCourseTitle: "Strategic Management", Status: "Approved"},
		{Country: "Japan", University: "Waseda University", HomeCourseCode: "MKT205", HostCourseTitle: "Brand Strategy", Status: "Pending"},
	}
}

// FallbackRows is served when no source has ever produced rows
func FallbackRows() []eligibility.CourseMappingRow {
	return []eligibility.CourseMappingRow{
		{Country: "Canada", University: "University of Toronto", HomeCourseCode: "MGT101", HostCourseTitle: "Introduction to Management", Status: "Approved", Notes: note("Pre-approved course")},
		{Country: "Canada", University: "McGill University", HomeCourseCode: "MGT101", HostCourseTitle: "Foundations of Management", Status: "Approved", Notes: note("Pre-approved course")},
	}
}
