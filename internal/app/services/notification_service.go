package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/app/models"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
	"github.com/yigit/exchangeintake/internal/pkg/email"
	"github.com/yigit/exchangeintake/internal/pkg/pdfexport"
	"golang.org/x/sync/errgroup"
)

// Email subjects
const (
	SubjectStudentSubmission  = "Exchange Application Received"
	SubjectNominationApproved = "Nomination Approved - Exchange Program"
)

// NotificationService emails students and the exchange office about applications
type NotificationService interface {
	ApplicationSubmitted(ctx context.Context, app *models.Application) error
	NominationApproved(ctx context.Context, app *models.Application) error
}

// NotificationConfig holds the addresses and links used in emails
type NotificationConfig struct {
	Office       string
	OfficeEmail  string
	AdminInbox   string
	PortalURL    string
	DashboardURL string
}

type notificationServiceImpl struct {
	client   email.Client
	renderer *pdfexport.Renderer
	cfg      NotificationConfig
	logger   zerolog.Logger
}

// NewNotificationService creates a notification service
func NewNotificationService(client email.Client, renderer *pdfexport.Renderer, cfg NotificationConfig, logger zerolog.Logger) NotificationService {
	return &notificationServiceImpl{
		client:   client,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
	}
}

// ApplicationSubmitted sends the student confirmation and the office notification in parallel,
// both with the application PDF attached. A failure of one does not stop the other.
func (s *notificationServiceImpl) ApplicationSubmitted(ctx context.Context, app *models.Application) error {
	pdf, err := s.renderer.Render(app)
	if err != nil {
		return fmt.Errorf("error rendering application pdf: %w", err)
	}
	attachments := []email.Attachment{{Filename: pdfexport.Filename(app), Content: pdf}}

	var g errgroup.Group

	g.Go(func() error {
		view := s.view(app, "Application Received")
		return s.send(ctx, email.TemplateStudentSubmission, view, email.Message{
			To:          []string{app.StudentEmail},
			Subject:     SubjectStudentSubmission,
			Attachments: attachments,
		})
	})

	if strings.TrimSpace(s.cfg.AdminInbox) != "" {
		g.Go(func() error {
			view := s.view(app, "New Exchange Application")
			return s.send(ctx, email.TemplateAdminNotification, view, email.Message{
				To:          []string{s.cfg.AdminInbox},
				ReplyTo:     app.StudentEmail,
				Subject:     fmt.Sprintf("New Application: %s - %s", app.StudentName, app.University),
				Attachments: attachments,
			})
		})
	} else {
		s.logger.Warn().Str("application_id", app.ID).Msg("No admin inbox configured, skipping office notification")
	}

	return g.Wait()
}

// NominationApproved tells the student their nomination went through
func (s *notificationServiceImpl) NominationApproved(ctx context.Context, app *models.Application) error {
	return s.send(ctx, email.TemplateNominationApproved, s.view(app, "Nomination Approved"), email.Message{
		To:      []string{app.StudentEmail},
		Subject: SubjectNominationApproved,
	})
}

func (s *notificationServiceImpl) send(ctx context.Context, template string, view email.ApplicationView, msg email.Message) error {
	html, err := email.Render(template, view)
	if err != nil {
		return err
	}
	msg.HTML = html

	if _, err := s.client.Send(ctx, msg); err != nil {
		s.logger.Error().Err(err).
			Str("application_id", view.ApplicationID).
			Str("subject", msg.Subject).
			Msg("Failed to send email")
		return err
	}
	return nil
}

func (s *notificationServiceImpl) view(app *models.Application, title string) email.ApplicationView {
	view := email.ApplicationView{
		Title:         title,
		Office:        s.cfg.Office,
		OfficeEmail:   s.cfg.OfficeEmail,
		ApplicationID: app.ID,
		StudentName:   app.StudentName,
		StudentID:     app.StudentID,
		StudentEmail:  app.StudentEmail,
		StudentCGPA:   app.StudentCGPA,
		University:    app.University,
		Country:       app.Country,
		CourseCount:   len(app.Courses),
		PortalURL:     s.cfg.PortalURL,
		DashboardURL:  s.cfg.DashboardURL,
	}
	for _, c := range app.Courses {
		switch c.Status {
		case eligibility.CourseApproved:
			view.Approved++
		case eligibility.CourseConditional:
			view.Conditional++
		case eligibility.CoursePending:
			view.Pending++
		default:
			view.Missing++
		}
	}
	return view
}
