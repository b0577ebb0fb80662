package models

import (
	"time"

	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
)

// ApplicationStatus is the lifecycle state of an exchange application
type ApplicationStatus string

// Application statuses
const (
	StatusDraft              ApplicationStatus = "draft"
	StatusSubmitted          ApplicationStatus = "submitted"
	StatusAwaitingNomination ApplicationStatus = "awaiting_nomination"
	StatusNominated          ApplicationStatus = "nominated"
	StatusSessionBooked      ApplicationStatus = "session_booked"
	StatusSessionCompleted   ApplicationStatus = "session_completed"
	StatusApproved           ApplicationStatus = "approved"
	StatusRejected           ApplicationStatus = "rejected"
)

// Valid reports whether s is a known status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusAwaitingNomination, StatusNominated,
		StatusSessionBooked, StatusSessionCompleted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// TriggersNominationEmail reports whether moving into s notifies the student
func (s ApplicationStatus) TriggersNominationEmail() bool {
	return s == StatusNominated || s == StatusApproved
}

// NextStepAction is what the student chose to do after the course check
type NextStepAction string

// Next step actions
const (
	NextStepBookAdvising      NextStepAction = "book_advising"
	NextStepNominationRequest NextStepAction = "nomination_request"
)

// CourseEvaluation is the stored verdict for one requested course
type CourseEvaluation struct {
	Code            string                   `json:"code"`
	Status          eligibility.CourseStatus `json:"status"`
	HostCourseTitle string                   `json:"hostCourseTitle,omitempty"`
	Message         string                   `json:"message"`
	Notes           string                   `json:"notes,omitempty"`
}

// CommentType classifies an admin comment
type CommentType string

// Comment types
const (
	CommentNote            CommentType = "note"
	CommentDocumentRequest CommentType = "document_request"
	CommentProcessUpdate   CommentType = "process_update"
)

// CommentPage is the wizard page a comment is shown on
type CommentPage string

// Wizard pages
const (
	PageProfile     CommentPage = "step_0"
	PageDestination CommentPage = "step_1"
	PageCourses     CommentPage = "step_2"
	PageReview      CommentPage = "step_3"
	PageSuccess     CommentPage = "success_page"
)

// AdminComment is a note left on an application by the exchange office
type AdminComment struct {
	ID        string      `json:"id"`
	Type      CommentType `json:"type"`
	Message   string      `json:"message"`
	Page      CommentPage `json:"page"`
	CreatedAt time.Time   `json:"createdAt"`
	CreatedBy string      `json:"createdBy"`
}

// Application is a student's exchange application, draft or submitted
type Application struct {
	ID                 string             `json:"id"`
	Status             ApplicationStatus  `json:"status"`
	StudentName        string             `json:"studentName"`
	StudentID          string             `json:"studentId"`
	StudentEmail       string             `json:"studentEmail"`
	StudentNationality string             `json:"studentNationality"`
	StudentCollege     string             `json:"studentCollege"`
	StudentMajor       string             `json:"studentMajor"`
	StudentCGPA        string             `json:"studentCGPA"`
	PersonalStatement  *string            `json:"personalStatement,omitempty"`
	Country            string             `json:"country"`
	University         string             `json:"university"`
	Courses            []CourseEvaluation `json:"courses"`
	AllApproved        bool               `json:"allApproved"`
	SubmittedAt        time.Time          `json:"submittedAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	NextStepAction     *NextStepAction    `json:"nextStepAction,omitempty"`
	StudentNotes       *string            `json:"studentNotes,omitempty"`
	AdminNotes         *string            `json:"adminNotes,omitempty"`
	AdminComments      []AdminComment     `json:"adminComments"`
	// CurrentStep is the wizard step a draft was saved on
	CurrentStep        *int               `json:"currentStep,omitempty"`
}

// IsDraft reports whether the application has not been submitted yet
func (a *Application) IsDraft() bool {
	return a.Status == StatusDraft
}

// CourseCodes returns the requested course codes in order
func (a *Application) CourseCodes() []string {
	codes := make([]string, 0, len(a.Courses))
	for _, c := range a.Courses {
		codes = append(codes, c.Code)
	}
	return codes
}

// ApplicationFilter narrows an admin listing; an empty Status lists everything
type ApplicationFilter struct {
	Status ApplicationStatus
	Page   int
	Size   int
}
