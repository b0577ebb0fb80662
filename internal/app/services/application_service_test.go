package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/app/models"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/pkg/apperrors"
	"github.com/yigit/exchangeintake/internal/pkg/catalog"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
	"github.com/yigit/exchangeintake/internal/pkg/pdfexport"
)

func strPtr(s string) *string { return &s }

func newTestApplicationService(t *testing.T) (*applicationServiceImpl, *memoryStore, *recordingNotifier) {
	t.Helper()
	store := newMemoryStore()
	notifier := &recordingNotifier{}
	provider := catalog.NewCachedProvider(catalog.NewStaticSource(nil), catalog.Options{Logger: zerolog.Nop()})
	svc := NewApplicationService(store, NewEligibilityService(provider, zerolog.Nop()), notifier, pdfexport.NewRenderer(pdfexport.Options{}), zerolog.Nop()).(*applicationServiceImpl)
	svc.async = func(fn func()) { fn() }
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store, notifier
}

func submitRequest() dto.SubmitApplicationRequest {
	return dto.SubmitApplicationRequest{
		StudentName:        " Layla Hassan ",
		StudentID:          "202012345",
		StudentEmail:       "layla@students.example.edu",
		StudentNationality: "Jordan",
		StudentCollege:     "Business",
		StudentMajor:       "Finance",
		StudentCGPA:        "3.4",
		Country:            "Canada",
		University:         "University of Toronto",
		Courses: []dto.CourseRequest{
			{Code: "mgt101", Status: "approved"},
			{Code: "MKT205", Status: "approved"},
			{Code: "XYZ999", Status: "approved"},
		},
		AllApproved: true,
	}
}

func TestSubmitReevaluatesCourses(t *testing.T) {
	svc, store, notifier := newTestApplicationService(t)

	resp, err := svc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(resp.ApplicationID) != 16 {
		t.Errorf("Expected 16 character id, got %q", resp.ApplicationID)
	}
	if resp.AllApproved {
		t.Error("Expected AllApproved to be recomputed as false")
	}

	stored, _ := store.GetByID(context.Background(), resp.ApplicationID)
	if stored.Status != models.StatusSubmitted {
		t.Errorf("Expected status submitted, got %s", stored.Status)
	}
	if stored.StudentName != "Layla Hassan" {
		t.Errorf("Expected trimmed name, got %q", stored.StudentName)
	}
	want := []eligibility.CourseStatus{eligibility.CourseApproved, eligibility.CourseApproved, eligibility.CourseMissing}
	for i, c := range stored.Courses {
		if c.Status != want[i] {
			t.Errorf("Course %d: expected %s, got %s", i, want[i], c.Status)
		}
	}
	if stored.Courses[0].Code != "MGT101" || stored.Courses[0].HostCourseTitle != "Introduction to Management" {
		t.Errorf("Expected normalized code and host title, got %+v", stored.Courses[0])
	}
	if len(notifier.submitted) != 1 || notifier.submitted[0] != resp.ApplicationID {
		t.Errorf("Expected submission notification, got %v", notifier.submitted)
	}
}

func TestSubmitSucceedsWhenNotificationFails(t *testing.T) {
	svc, _, notifier := newTestApplicationService(t)
	notifier.failSubmit = errors.New("mail down")

	if _, err := svc.Submit(context.Background(), submitRequest()); err != nil {
		t.Errorf("Expected submission to succeed, got %v", err)
	}
}

func TestSaveDraftCreatesAndUpdates(t *testing.T) {
	svc, store, _ := newTestApplicationService(t)
	ctx := context.Background()

	created, err := svc.SaveDraft(ctx, dto.SaveDraftRequest{StudentName: strPtr("Layla")})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.HasPrefix(created.DraftID, "draft-") || len(created.DraftID) != 18 {
		t.Errorf("Unexpected draft id %q", created.DraftID)
	}
	if created.Draft.AllApproved {
		t.Error("Expected new draft to not be all approved")
	}

	step := 2
	updated, err := svc.SaveDraft(ctx, dto.SaveDraftRequest{ID: created.DraftID, University: strPtr("IE University"), CurrentStep: &step})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.DraftID != created.DraftID {
		t.Errorf("Expected same draft id, got %s", updated.DraftID)
	}
	if updated.Draft.StudentName != "Layla" || updated.Draft.University != "IE University" {
		t.Errorf("Expected merged fields, got %+v", updated.Draft)
	}
	if len(store.apps) != 1 {
		t.Errorf("Expected a single stored draft, got %d", len(store.apps))
	}
}

func TestSaveDraftOnSubmittedCreatesNewDraft(t *testing.T) {
	svc, store, _ := newTestApplicationService(t)
	ctx := context.Background()

	resp, _ := svc.Submit(ctx, submitRequest())
	draft, err := svc.SaveDraft(ctx, dto.SaveDraftRequest{ID: resp.ApplicationID, StudentName: strPtr("Other")})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if draft.DraftID == resp.ApplicationID {
		t.Error("Expected a new draft id")
	}
	submitted, _ := store.GetByID(ctx, resp.ApplicationID)
	if submitted.Status != models.StatusSubmitted || submitted.StudentName != "Layla Hassan" {
		t.Errorf("Expected submitted application untouched, got %+v", submitted)
	}
}

func TestGetDraft(t *testing.T) {
	svc, _, _ := newTestApplicationService(t)
	ctx := context.Background()

	if _, err := svc.GetDraft(ctx, ""); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("Expected bad request for empty id, got %v", err)
	}
	if _, err := svc.GetDraft(ctx, "draft-missing"); !errors.Is(err, apperrors.ErrDraftNotFound) {
		t.Errorf("Expected draft not found, got %v", err)
	}
	resp, _ := svc.Submit(ctx, submitRequest())
	if _, err := svc.GetDraft(ctx, resp.ApplicationID); !errors.Is(err, apperrors.ErrDraftNotFound) {
		t.Errorf("Expected submitted application to not load as draft, got %v", err)
	}
}

func TestUpdateApplicationSendsNominationOnce(t *testing.T) {
	svc, _, notifier := newTestApplicationService(t)
	ctx := context.Background()
	resp, _ := svc.Submit(ctx, submitRequest())

	app, err := svc.UpdateApplication(ctx, resp.ApplicationID, dto.UpdateApplicationRequest{Status: strPtr("nominated"), AdminNotes: strPtr("ok")})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if app.Status != models.StatusNominated || app.AdminNotes == nil || *app.AdminNotes != "ok" {
		t.Errorf("Expected merged update, got %+v", app)
	}

	if _, err := svc.UpdateApplication(ctx, resp.ApplicationID, dto.UpdateApplicationRequest{Status: strPtr("nominated")}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(notifier.nominated) != 1 {
		t.Errorf("Expected exactly one nomination email, got %d", len(notifier.nominated))
	}

	if _, err := svc.UpdateApplication(ctx, "missing", dto.UpdateApplicationRequest{}); !errors.Is(err, apperrors.ErrApplicationNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestAddCommentAndDelete(t *testing.T) {
	svc, _, _ := newTestApplicationService(t)
	ctx := context.Background()
	resp, _ := svc.Submit(ctx, submitRequest())

	comment, err := svc.AddComment(ctx, resp.ApplicationID, "office@example.edu", dto.AddCommentRequest{
		Type: "document_request", Message: " Upload syllabus ", Page: "step_2",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(comment.ID) != 12 || comment.CreatedBy != "office@example.edu" || comment.Message != "Upload syllabus" {
		t.Errorf("Unexpected comment %+v", comment)
	}

	app, _ := svc.GetApplication(ctx, resp.ApplicationID)
	if len(app.AdminComments) != 1 {
		t.Errorf("Expected 1 comment, got %d", len(app.AdminComments))
	}

	if err := svc.DeleteApplication(ctx, resp.ApplicationID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := svc.DeleteApplication(ctx, resp.ApplicationID); !errors.Is(err, apperrors.ErrApplicationNotFound) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestListApplicationsPagination(t *testing.T) {
	svc, _, _ := newTestApplicationService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		svc.Submit(ctx, submitRequest())
	}

	list, err := svc.ListApplications(ctx, models.ApplicationFilter{Page: 0, Size: 2})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if list.Pagination.TotalItems != 3 || list.Pagination.TotalPages != 2 || list.Pagination.PageSize != 2 {
		t.Errorf("Unexpected pagination %+v", list.Pagination)
	}

	if _, err := svc.ListApplications(ctx, models.ApplicationFilter{Status: "bogus"}); !errors.Is(err, apperrors.ErrInvalidStatus) {
		t.Errorf("Expected invalid status error, got %v", err)
	}
}

func TestExportPDF(t *testing.T) {
	svc, _, _ := newTestApplicationService(t)
	ctx := context.Background()
	resp, _ := svc.Submit(ctx, submitRequest())

	pdf, app, err := svc.ExportPDF(ctx, resp.ApplicationID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if app.ID != resp.ApplicationID || !strings.HasPrefix(string(pdf), "%PDF") {
		t.Error("Expected rendered PDF for the application")
	}
}
