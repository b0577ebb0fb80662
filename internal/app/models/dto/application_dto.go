package dto

import (
	"time"

	"github.com/yigit/exchangeintake/internal/app/models"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
)

// CourseRequest is one course line of a submitted application
type CourseRequest struct {
	Code            string  `json:"code" binding:"required,coursecode" example:"CS101"`
	Status          string  `json:"status" binding:"required,oneof=approved conditional pending missing" example:"approved"`
	HostCourseTitle *string `json:"hostCourseTitle,omitempty" binding:"omitempty,max=200"`
	Message         string  `json:"message" binding:"max=500"`
	Notes           *string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// SubmitApplicationRequest is the final wizard payload
type SubmitApplicationRequest struct {
	StudentName        string          `json:"studentName" binding:"required,max=100" example:"Layla Hassan"`
	StudentID          string          `json:"studentId" binding:"required,max=50" example:"202012345"`
	StudentEmail       string          `json:"studentEmail" binding:"required,email,max=100" example:"layla@students.example.edu"`
	StudentNationality string          `json:"studentNationality" binding:"required,max=100" example:"Jordan"`
	StudentCollege     string          `json:"studentCollege" binding:"required,max=200" example:"College of Engineering"`
	StudentMajor       string          `json:"studentMajor" binding:"required,max=200" example:"Computer Science"`
	StudentCGPA        string          `json:"studentCGPA" binding:"required,cgpa" example:"3.45"`
	PersonalStatement  *string         `json:"personalStatement,omitempty" binding:"omitempty,max=2000"`
	Country            string          `json:"country" binding:"required,max=100" example:"USA"`
	University         string          `json:"university" binding:"required,max=200" example:"Georgia State University"`
	Courses            []CourseRequest `json:"courses" binding:"required,min=1,max=30,dive"`
	AllApproved        bool            `json:"allApproved"`
	NextStepAction     *string         `json:"nextStepAction,omitempty" binding:"omitempty,oneof=book_advising nomination_request"`
	StudentNotes       *string         `json:"studentNotes,omitempty" binding:"omitempty,max=2000"`
}

// DraftCourseRequest is a course line of a draft; the code may still be blank
type DraftCourseRequest struct {
	Code            string  `json:"code" binding:"omitempty,coursecode"`
	Status          string  `json:"status" binding:"required,oneof=approved conditional pending missing"`
	HostCourseTitle *string `json:"hostCourseTitle,omitempty" binding:"omitempty,max=200"`
	Message         string  `json:"message" binding:"max=500"`
	Notes           *string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// SaveDraftRequest carries a partial wizard state. Omitted fields keep their stored value.
type SaveDraftRequest struct {
	ID                 string                `json:"id,omitempty" binding:"omitempty,max=64"`
	StudentName        *string               `json:"studentName,omitempty" binding:"omitempty,max=100"`
	StudentID          *string               `json:"studentId,omitempty" binding:"omitempty,max=50"`
	StudentEmail       *string               `json:"studentEmail,omitempty" binding:"omitempty,email,max=100"`
	StudentNationality *string               `json:"studentNationality,omitempty" binding:"omitempty,max=100"`
	StudentCollege     *string               `json:"studentCollege,omitempty" binding:"omitempty,max=200"`
	StudentMajor       *string               `json:"studentMajor,omitempty" binding:"omitempty,max=200"`
	StudentCGPA        *string               `json:"studentCGPA,omitempty" binding:"omitempty,cgpa"`
	PersonalStatement  *string               `json:"personalStatement,omitempty" binding:"omitempty,max=2000"`
	Country            *string               `json:"country,omitempty" binding:"omitempty,max=100"`
	University         *string               `json:"university,omitempty" binding:"omitempty,max=200"`
	Courses            *[]DraftCourseRequest `json:"courses,omitempty" binding:"omitempty,max=30,dive"`
	CurrentStep        *int                  `json:"currentStep,omitempty" binding:"omitempty,min=0,max=4"`
}

// SubmitApplicationResponse is returned after a successful submission
type SubmitApplicationResponse struct {
	ApplicationID string              `json:"applicationId" example:"9f2c4e1a7b3d5f60"`
	AllApproved   bool                `json:"allApproved"`
	Summary       eligibility.Summary `json:"summary"`
}

// DraftResponse is returned when a draft is saved or loaded
type DraftResponse struct {
	DraftID string              `json:"draftId" example:"draft-4e1a7b3d5f60"`
	Draft   *models.Application `json:"draft"`
}

// ApplicationStatusResponse is the lightweight status poll answer
type ApplicationStatusResponse struct {
	Status    models.ApplicationStatus `json:"status" example:"submitted"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// ApplicationListResponse is a page of applications for the admin dashboard
type ApplicationListResponse struct {
	Applications []*models.Application `json:"applications"`
	Pagination   PaginationInfo        `json:"pagination"`
}

// UpdateApplicationRequest is an admin status and/or notes change
type UpdateApplicationRequest struct {
	Status     *string `json:"status,omitempty" binding:"omitempty,oneof=draft submitted awaiting_nomination nominated session_booked session_completed approved rejected" example:"nominated"`
	AdminNotes *string `json:"adminNotes,omitempty" binding:"omitempty,max=5000"`
}

// AddCommentRequest is a comment left on an application for the student
type AddCommentRequest struct {
	Type    string `json:"type" binding:"required,oneof=note document_request process_update" example:"document_request"`
	Message string `json:"message" binding:"required,max=2000" example:"Please upload the syllabus for CS201."`
	Page    string `json:"page" binding:"required,oneof=step_0 step_1 step_2 step_3 success_page" example:"step_2"`
}

// ToCourseEvaluations converts request course lines to the stored shape
func ToCourseEvaluations(courses []CourseRequest) []models.CourseEvaluation {
	out := make([]models.CourseEvaluation, 0, len(courses))
	for _, c := range courses {
		out = append(out, models.CourseEvaluation{
			Code:            c.Code,
			Status:          eligibility.CourseStatus(c.Status),
			HostCourseTitle: deref(c.HostCourseTitle),
			Message:         c.Message,
			Notes:           deref(c.Notes),
		})
	}
	return out
}

// DraftCourseEvaluations converts draft course lines to the stored shape
func DraftCourseEvaluations(courses []DraftCourseRequest) []models.CourseEvaluation {
	out := make([]models.CourseEvaluation, 0, len(courses))
	for _, c := range courses {
		out = append(out, models.CourseEvaluation{
			Code:            c.Code,
			Status:          eligibility.CourseStatus(c.Status),
			HostCourseTitle: deref(c.HostCourseTitle),
			Message:         c.Message,
			Notes:           deref(c.Notes),
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
