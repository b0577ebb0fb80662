package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/exchangeintake/internal/app/models"
	"github.com/yigit/exchangeintake/internal/db"
	"github.com/yigit/exchangeintake/internal/pkg/apperrors"
	"github.com/yigit/exchangeintake/internal/pkg/dberrors"
	"github.com/yigit/exchangeintake/internal/pkg/helpers"
	"github.com/yigit/exchangeintake/internal/pkg/logger"
)

var applicationColumns = []string{
	"id", "status", "student_name", "student_id", "student_email", "student_nationality",
	"student_college", "student_major", "student_cgpa", "personal_statement", "country",
	"university", "courses", "all_approved", "next_step_action", "student_notes",
	"admin_notes", "current_step", "submitted_at", "updated_at",
}

// ApplicationRepository handles application database operations
type ApplicationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func nextStepValue(a *models.Application) *string {
	if a.NextStepAction == nil {
		return nil
	}
	s := string(*a.NextStepAction)
	return &s
}

// columnValues returns the row values in applicationColumns order
func columnValues(a *models.Application) ([]interface{}, error) {
	courses := a.Courses
	if courses == nil {
		courses = []models.CourseEvaluation{}
	}
	coursesJSON, err := json.Marshal(courses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode courses: %w", err)
	}

	return []interface{}{
		a.ID, string(a.Status), a.StudentName, a.StudentID, a.StudentEmail, a.StudentNationality,
		a.StudentCollege, a.StudentMajor, a.StudentCGPA, helpers.GetNullString(a.PersonalStatement), a.Country,
		a.University, coursesJSON, a.AllApproved, helpers.GetNullString(nextStepValue(a)), helpers.GetNullString(a.StudentNotes),
		helpers.GetNullString(a.AdminNotes), a.CurrentStep, a.SubmittedAt, a.UpdatedAt,
	}, nil
}

// Create inserts a new application
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	values, err := columnValues(app)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("applications").
		Columns(applicationColumns...).
		Values(values...).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create application SQL")
		return fmt.Errorf("failed to build create application query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return fmt.Errorf("%w: application %s", apperrors.ErrResourceAlreadyExists, app.ID)
		}
		logger.Error().Err(err).Str("applicationID", app.ID).Msg("Error executing create application query")
		return fmt.Errorf("error creating application: %w", err)
	}

	return nil
}

func (r *ApplicationRepository) update(ctx context.Context, app *models.Application, where squirrel.Sqlizer, notFound error) error {
	values, err := columnValues(app)
	if err != nil {
		return err
	}

	set := make(map[string]interface{}, len(applicationColumns)-1)
	for i, col := range applicationColumns {
		if col == "id" {
			continue
		}
		set[col] = values[i]
	}

	sql, args, err := r.sb.Update("applications").
		SetMap(set).
		Where(where).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update application SQL")
		return fmt.Errorf("failed to build update application query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("applicationID", app.ID).Msg("Error executing update application query")
		return fmt.Errorf("error updating application: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// Update overwrites every stored field of an application
func (r *ApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	return r.update(ctx, app, squirrel.Eq{"id": app.ID}, apperrors.ErrApplicationNotFound)
}

// UpdateDraft overwrites an application only while it is still a draft.
// It returns ErrDraftNotFound when the id is unknown or was submitted meanwhile.
func (r *ApplicationRepository) UpdateDraft(ctx context.Context, app *models.Application) error {
	where := squirrel.Eq{"id": app.ID, "status": string(models.StatusDraft)}
	return r.update(ctx, app, where, apperrors.ErrDraftNotFound)
}

// GetByID retrieves an application with its admin comments
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	sql, args, err := r.sb.Select(applicationColumns...).
		From("applications").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get application by ID SQL")
		return nil, fmt.Errorf("failed to build get application query: %w", err)
	}

	app, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		logger.Error().Err(err).Str("applicationID", id).Msg("Error scanning application row")
		return nil, fmt.Errorf("error getting application by ID: %w", err)
	}

	comments, err := r.commentsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	app.AdminComments = comments[id]
	if app.AdminComments == nil {
		app.AdminComments = []models.AdminComment{}
	}

	return app, nil
}

// List returns a page of applications, most recent submission first, and the total count
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	countQuery := r.sb.Select("COUNT(*)").From("applications")
	listQuery := r.sb.Select(applicationColumns...).From("applications")
	if filter.Status != "" {
		countQuery = countQuery.Where(squirrel.Eq{"status": string(filter.Status)})
		listQuery = listQuery.Where(squirrel.Eq{"status": string(filter.Status)})
	}

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count applications SQL")
		return nil, 0, fmt.Errorf("failed to build count applications query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting applications")
		return nil, 0, fmt.Errorf("error counting applications: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := listQuery.
		OrderBy("submitted_at DESC", "id ASC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list applications SQL")
		return nil, 0, fmt.Errorf("failed to build list applications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list applications query")
		return nil, 0, fmt.Errorf("error querying applications: %w", err)
	}
	defer rows.Close()

	apps := []*models.Application{}
	ids := []string{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning application row during list")
			return nil, 0, fmt.Errorf("error scanning application row: %w", err)
		}
		apps = append(apps, app)
		ids = append(ids, app.ID)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating application rows")
		return nil, 0, fmt.Errorf("error iterating application rows: %w", err)
	}

	if len(ids) > 0 {
		comments, err := r.commentsFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, app := range apps {
			app.AdminComments = comments[app.ID]
			if app.AdminComments == nil {
				app.AdminComments = []models.AdminComment{}
			}
		}
	}

	return apps, total, nil
}

// Delete removes an application; its comments go with it
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := r.sb.Delete("applications").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete application SQL")
		return fmt.Errorf("failed to build delete application query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("applicationID", id).Msg("Error executing delete application query")
		return fmt.Errorf("error deleting application: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

// AddComment stores a comment and bumps the application's updated_at in one transaction
func (r *ApplicationRepository) AddComment(ctx context.Context, applicationID string, comment models.AdminComment) error {
	insertSQL, insertArgs, err := r.sb.Insert("application_comments").
		Columns("id", "application_id", "type", "message", "page", "created_at", "created_by").
		Values(comment.ID, applicationID, string(comment.Type), comment.Message, string(comment.Page), comment.CreatedAt, comment.CreatedBy).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building add comment SQL")
		return fmt.Errorf("failed to build add comment query: %w", err)
	}

	touchSQL, touchArgs, err := r.sb.Update("applications").
		Set("updated_at", comment.CreatedAt).
		Where(squirrel.Eq{"id": applicationID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building touch application SQL")
		return fmt.Errorf("failed to build touch application query: %w", err)
	}

	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertSQL, insertArgs...); err != nil {
			if dberrors.IsForeignKeyViolation(err) {
				return apperrors.ErrApplicationNotFound
			}
			logger.Error().Err(err).Str("applicationID", applicationID).Msg("Error executing add comment query")
			return fmt.Errorf("error adding comment: %w", err)
		}
		if _, err := tx.Exec(ctx, touchSQL, touchArgs...); err != nil {
			logger.Error().Err(err).Str("applicationID", applicationID).Msg("Error touching application")
			return fmt.Errorf("error updating application timestamp: %w", err)
		}
		return nil
	})
}

func (r *ApplicationRepository) commentsFor(ctx context.Context, ids []string) (map[string][]models.AdminComment, error) {
	sql, args, err := r.sb.Select("id", "application_id", "type", "message", "page", "created_at", "created_by").
		From("application_comments").
		Where(squirrel.Eq{"application_id": ids}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list comments SQL")
		return nil, fmt.Errorf("failed to build list comments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list comments query")
		return nil, fmt.Errorf("error querying comments: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.AdminComment, len(ids))
	for rows.Next() {
		var (
			c             models.AdminComment
			applicationID string
			commentType   string
			page          string
		)
		if err := rows.Scan(&c.ID, &applicationID, &commentType, &c.Message, &page, &c.CreatedAt, &c.CreatedBy); err != nil {
			logger.Error().Err(err).Msg("Error scanning comment row")
			return nil, fmt.Errorf("error scanning comment row: %w", err)
		}
		c.Type = models.CommentType(commentType)
		c.Page = models.CommentPage(page)
		out[applicationID] = append(out[applicationID], c)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating comment rows")
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}

	return out, nil
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var (
		app         models.Application
		status      string
		coursesJSON []byte
		nextStep    *string
		currentStep *int32
		submittedAt time.Time
		updatedAt   time.Time
	)

	err := row.Scan(
		&app.ID, &status, &app.StudentName, &app.StudentID, &app.StudentEmail, &app.StudentNationality,
		&app.StudentCollege, &app.StudentMajor, &app.StudentCGPA, &app.PersonalStatement, &app.Country,
		&app.University, &coursesJSON, &app.AllApproved, &nextStep, &app.StudentNotes,
		&app.AdminNotes, &currentStep, &submittedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.Status = models.ApplicationStatus(status)
	app.SubmittedAt = submittedAt.UTC()
	app.UpdatedAt = updatedAt.UTC()
	if nextStep != nil {
		action := models.NextStepAction(*nextStep)
		app.NextStepAction = &action
	}
	if currentStep != nil {
		step := int(*currentStep)
		app.CurrentStep = &step
	}

	app.Courses = []models.CourseEvaluation{}
	if len(coursesJSON) > 0 {
		if err := json.Unmarshal(coursesJSON, &app.Courses); err != nil {
			return nil, fmt.Errorf("failed to decode courses: %w", err)
		}
	}
	app.AdminComments = []models.AdminComment{}

	return &app, nil
}
