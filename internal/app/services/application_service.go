package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/app/models"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/pkg/apperrors"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
	"github.com/yigit/exchangeintake/internal/pkg/helpers"
	"github.com/yigit/exchangeintake/internal/pkg/pdfexport"
)

const notifyTimeout = 60 * time.Second

// ApplicationStore persists applications and their comments
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, app *models.Application) error
	UpdateDraft(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error)
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, applicationID string, comment models.AdminComment) error
}

// ApplicationService handles the student wizard and the admin review of applications
type ApplicationService interface {
	Submit(ctx context.Context, req dto.SubmitApplicationRequest) (*dto.SubmitApplicationResponse, error)
	SaveDraft(ctx context.Context, req dto.SaveDraftRequest) (*dto.DraftResponse, error)
	GetDraft(ctx context.Context, id string) (*models.Application, error)
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	GetStatus(ctx context.Context, id string) (*dto.ApplicationStatusResponse, error)
	ListApplications(ctx context.Context, filter models.ApplicationFilter) (*dto.ApplicationListResponse, error)
	UpdateApplication(ctx context.Context, id string, req dto.UpdateApplicationRequest) (*models.Application, error)
	DeleteApplication(ctx context.Context, id string) error
	AddComment(ctx context.Context, id, author string, req dto.AddCommentRequest) (*models.AdminComment, error)
	ExportPDF(ctx context.Context, id string) ([]byte, *models.Application, error)
}

type applicationServiceImpl struct {
	store       ApplicationStore
	eligibility EligibilityService
	notifier    NotificationService
	renderer    *pdfexport.Renderer
	logger      zerolog.Logger
	now         func() time.Time
	async       func(func())
}

// NewApplicationService creates a new application service
func NewApplicationService(
	store ApplicationStore,
	eligibilityService EligibilityService,
	notifier NotificationService,
	renderer *pdfexport.Renderer,
	logger zerolog.Logger,
) ApplicationService {
	return &applicationServiceImpl{
		store:       store,
		eligibility: eligibilityService,
		notifier:    notifier,
		renderer:    renderer,
		logger:      logger,
		now:         time.Now,
		async:       func(fn func()) { go fn() },
	}
}

func hexID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func newApplicationID() string { return hexID(16) }

func newDraftID() string { return "draft-" + hexID(12) }

func newCommentID() string { return hexID(12) }

// Submit stores a completed application and notifies the student and office in the background
func (s *applicationServiceImpl) Submit(ctx context.Context, req dto.SubmitApplicationRequest) (*dto.SubmitApplicationResponse, error) {
	now := s.now().UTC()
	app := &models.Application{
		ID:                 newApplicationID(),
		Status:             models.StatusSubmitted,
		StudentName:        strings.TrimSpace(req.StudentName),
		StudentID:          strings.TrimSpace(req.StudentID),
		StudentEmail:       strings.TrimSpace(req.StudentEmail),
		StudentNationality: strings.TrimSpace(req.StudentNationality),
		StudentCollege:     strings.TrimSpace(req.StudentCollege),
		StudentMajor:       strings.TrimSpace(req.StudentMajor),
		StudentCGPA:        strings.TrimSpace(req.StudentCGPA),
		PersonalStatement:  req.PersonalStatement,
		Country:            strings.TrimSpace(req.Country),
		University:         strings.TrimSpace(req.University),
		StudentNotes:       req.StudentNotes,
		AdminComments:      []models.AdminComment{},
		SubmittedAt:        now,
		UpdatedAt:          now,
	}
	if req.NextStepAction != nil {
		action := models.NextStepAction(*req.NextStepAction)
		app.NextStepAction = &action
	}

	summary, err := s.evaluateCourses(ctx, app, req.Courses)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("error creating application: %w", err)
	}

	s.logger.Info().
		Str("application_id", app.ID).
		Str("university", app.University).
		Int("courses", len(app.Courses)).
		Bool("all_approved", app.AllApproved).
		Msg("Application submitted")

	s.notifyAsync(ctx, app, "submission", s.notifier.ApplicationSubmitted)

	return &dto.SubmitApplicationResponse{
		ApplicationID: app.ID,
		AllApproved:   app.AllApproved,
		Summary:       summary,
	}, nil
}

// evaluateCourses re-checks the requested codes against the current catalog so the stored
// verdicts and AllApproved reflect the catalog rather than the client's copy of it
func (s *applicationServiceImpl) evaluateCourses(ctx context.Context, app *models.Application, courses []dto.CourseRequest) (eligibility.Summary, error) {
	submitted := dto.ToCourseEvaluations(courses)
	codes := make([]string, 0, len(submitted))
	for _, c := range submitted {
		codes = append(codes, c.Code)
	}

	evaluations, err := s.eligibility.EvaluateCourses(ctx, codes, app.Country, app.University)
	if err != nil {
		return eligibility.Summary{}, err
	}

	app.Courses = make([]models.CourseEvaluation, 0, len(evaluations))
	for i, ev := range evaluations {
		course := models.CourseEvaluation{
			Code:    ev.NormalizedCode,
			Status:  ev.Status,
			Message: ev.Message,
		}
		if ev.Mapping != nil {
			course.HostCourseTitle = ev.Mapping.HostCourseTitle
			if ev.Mapping.Notes != nil {
				course.Notes = *ev.Mapping.Notes
			}
		} else if i < len(submitted) {
			course.Notes = submitted[i].Notes
		}
		app.Courses = append(app.Courses, course)
	}

	summary := eligibility.Summarise(evaluations)
	app.AllApproved = summary.AllApproved
	return summary, nil
}

// SaveDraft updates the given draft while it is still a draft, and creates a new one otherwise
func (s *applicationServiceImpl) SaveDraft(ctx context.Context, req dto.SaveDraftRequest) (*dto.DraftResponse, error) {
	now := s.now().UTC()
	id := strings.TrimSpace(req.ID)

	if id != "" {
		existing, err := s.store.GetByID(ctx, id)
		switch {
		case err == nil && existing.IsDraft():
			applyDraft(existing, req)
			existing.UpdatedAt = now
			err = s.store.UpdateDraft(ctx, existing)
			if err == nil {
				return &dto.DraftResponse{DraftID: existing.ID, Draft: existing}, nil
			}
			if !errors.Is(err, apperrors.ErrDraftNotFound) {
				return nil, fmt.Errorf("error updating draft: %w", err)
			}
			s.logger.Info().Str("draft_id", id).Msg("Draft was submitted concurrently, creating a new draft")
		case err == nil:
			s.logger.Info().Str("draft_id", id).Str("status", string(existing.Status)).Msg("Application is no longer a draft, creating a new draft")
		case errors.Is(err, apperrors.ErrApplicationNotFound):
		default:
			return nil, fmt.Errorf("error loading draft: %w", err)
		}
	}

	draft := &models.Application{
		ID:            newDraftID(),
		Status:        models.StatusDraft,
		Courses:       []models.CourseEvaluation{},
		AdminComments: []models.AdminComment{},
		AllApproved:   false,
		SubmittedAt:   now,
		UpdatedAt:     now,
	}
	applyDraft(draft, req)

	if err := s.store.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("error creating draft: %w", err)
	}
	s.logger.Debug().Str("draft_id", draft.ID).Msg("Draft created")
	return &dto.DraftResponse{DraftID: draft.ID, Draft: draft}, nil
}

// applyDraft copies the fields present in req onto app
func applyDraft(app *models.Application, req dto.SaveDraftRequest) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&app.StudentName, req.StudentName)
	set(&app.StudentID, req.StudentID)
	set(&app.StudentEmail, req.StudentEmail)
	set(&app.StudentNationality, req.StudentNationality)
	set(&app.StudentCollege, req.StudentCollege)
	set(&app.StudentMajor, req.StudentMajor)
	set(&app.StudentCGPA, req.StudentCGPA)
	set(&app.Country, req.Country)
	set(&app.University, req.University)
	if req.PersonalStatement != nil {
		statement := *req.PersonalStatement
		app.PersonalStatement = &statement
	}
	if req.Courses != nil {
		app.Courses = dto.DraftCourseEvaluations(*req.Courses)
	}
	if req.CurrentStep != nil {
		step := *req.CurrentStep
		app.CurrentStep = &step
	}
	app.Status = models.StatusDraft
}

// GetDraft loads a draft; submitted applications are not returned
func (s *applicationServiceImpl) GetDraft(ctx context.Context, id string) (*models.Application, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewBadRequestError("Draft ID required")
	}
	app, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrApplicationNotFound) {
			return nil, apperrors.ErrDraftNotFound
		}
		return nil, fmt.Errorf("error retrieving draft: %w", err)
	}
	if !app.IsDraft() {
		return nil, apperrors.ErrDraftNotFound
	}
	return app, nil
}

// GetApplication retrieves an application by ID
func (s *applicationServiceImpl) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewBadRequestError("Application ID required")
	}
	app, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrApplicationNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error retrieving application: %w", err)
	}
	return app, nil
}

// GetStatus returns just the status and last update time of an application
func (s *applicationServiceImpl) GetStatus(ctx context.Context, id string) (*dto.ApplicationStatusResponse, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ApplicationStatusResponse{Status: app.Status, UpdatedAt: app.UpdatedAt}, nil
}

// ListApplications returns a page of applications, most recent submission first
func (s *applicationServiceImpl) ListApplications(ctx context.Context, filter models.ApplicationFilter) (*dto.ApplicationListResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidStatus, filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = helpers.DefaultPage
	}
	if filter.Size <= 0 || filter.Size > helpers.MaxPageSize {
		filter.Size = helpers.DefaultPageSize
	}

	apps, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	if apps == nil {
		apps = []*models.Application{}
	}
	return &dto.ApplicationListResponse{
		Applications: apps,
		Pagination:   helpers.NewPaginationInfo(total, filter.Page, filter.Size),
	}, nil
}

// UpdateApplication changes status and/or admin notes. Moving into nominated or approved
// emails the student.
func (s *applicationServiceImpl) UpdateApplication(ctx context.Context, id string, req dto.UpdateApplicationRequest) (*models.Application, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := app.Status
	if req.Status != nil {
		status := models.ApplicationStatus(*req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidStatus, status)
		}
		app.Status = status
	}
	if req.AdminNotes != nil {
		notes := *req.AdminNotes
		app.AdminNotes = &notes
	}
	app.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, app); err != nil {
		if errors.Is(err, apperrors.ErrApplicationNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error updating application: %w", err)
	}

	s.logger.Info().
		Str("application_id", app.ID).
		Str("old_status", string(oldStatus)).
		Str("new_status", string(app.Status)).
		Msg("Application updated")

	if app.Status != oldStatus && app.Status.TriggersNominationEmail() {
		s.notifyAsync(ctx, app, "nomination", s.notifier.NominationApproved)
	}
	return app, nil
}

// DeleteApplication removes an application and its comments
func (s *applicationServiceImpl) DeleteApplication(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrApplicationNotFound) {
			return apperrors.ErrApplicationNotFound
		}
		return fmt.Errorf("error deleting application: %w", err)
	}
	s.logger.Info().Str("application_id", id).Msg("Application deleted")
	return nil
}

// AddComment attaches an admin comment to an application
func (s *applicationServiceImpl) AddComment(ctx context.Context, id, author string, req dto.AddCommentRequest) (*models.AdminComment, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", apperrors.ErrValidationFailed)
	}

	comment := models.AdminComment{
		ID:        newCommentID(),
		Type:      models.CommentType(req.Type),
		Message:   message,
		Page:      models.CommentPage(req.Page),
		CreatedAt: s.now().UTC(),
		CreatedBy: author,
	}
	if err := s.store.AddComment(ctx, id, comment); err != nil {
		if errors.Is(err, apperrors.ErrApplicationNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error adding comment: %w", err)
	}
	return &comment, nil
}

// ExportPDF renders the application as a PDF
func (s *applicationServiceImpl) ExportPDF(ctx context.Context, id string) ([]byte, *models.Application, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.renderer.Render(app)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating pdf: %w", err)
	}
	return pdf, app, nil
}

// notifyAsync runs send detached from the request so a slow or failing mail API never fails it
func (s *applicationServiceImpl) notifyAsync(ctx context.Context, app *models.Application, kind string, send func(context.Context, *models.Application) error) {
	snapshot := *app
	bg := context.WithoutCancel(ctx)
	s.async(func() {
		ctx, cancel := context.WithTimeout(bg, notifyTimeout)
		defer cancel()
		if err := send(ctx, &snapshot); err != nil {
			s.logger.Error().Err(err).Str("application_id", snapshot.ID).Str("kind", kind).Msg("Notification failed")
			return
		}
		s.logger.Info().Str("application_id", snapshot.ID).Str("kind", kind).Msg("Notification sent")
	})
}
