package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Template names
const (
	TemplateStudentSubmission  = "student_submission.html"
	TemplateAdminNotification  = "admin_notification.html"
	TemplateNominationApproved = "nomination_approved.html"
)

// ApplicationView is the data every application email renders from
type ApplicationView struct {
	Title         string
	Office        string
	OfficeEmail   string
	ApplicationID string
	StudentName   string
	StudentID     string
	StudentEmail  string
	StudentCGPA   string
	University    string
	Country       string
	CourseCount   int
	Approved      int
	Conditional   int
	Pending       int
	Missing       int
	PortalURL     string
	DashboardURL  string
}

// Render executes the named template with view
func Render(name string, view ApplicationView) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, view); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
