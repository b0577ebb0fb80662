package services

import (
	"context"
	"sort"
	"sync"

	"github.com/yigit/exchangeintake/internal/app/models"
	"github.com/yigit/exchangeintake/internal/pkg/apperrors"
	"github.com/yigit/exchangeintake/internal/pkg/email"
)

type memoryStore struct {
	mu   sync.Mutex
	apps map[string]*models.Application
}

func newMemoryStore() *memoryStore {
	return &memoryStore{apps: map[string]*models.Application{}}
}

func clone(app *models.Application) *models.Application {
	c := *app
	c.Courses = append([]models.CourseEvaluation(nil), app.Courses...)
	c.AdminComments = append([]models.AdminComment(nil), app.AdminComments...)
	return &c
}

func (m *memoryStore) Create(ctx context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[app.ID]; ok {
		return apperrors.ErrResourceAlreadyExists
	}
	m.apps[app.ID] = clone(app)
	return nil
}

func (m *memoryStore) Update(ctx context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[app.ID]; !ok {
		return apperrors.ErrApplicationNotFound
	}
	m.apps[app.ID] = clone(app)
	return nil
}

func (m *memoryStore) UpdateDraft(ctx context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.apps[app.ID]
	if !ok || !existing.IsDraft() {
		return apperrors.ErrDraftNotFound
	}
	m.apps[app.ID] = clone(app)
	return nil
}

func (m *memoryStore) GetByID(ctx context.Context, id string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, apperrors.ErrApplicationNotFound
	}
	return clone(app), nil
}

func (m *memoryStore) List(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Application
	for _, app := range m.apps {
		if filter.Status == "" || app.Status == filter.Status {
			out = append(out, clone(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, int64(len(out)), nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[id]; !ok {
		return apperrors.ErrApplicationNotFound
	}
	delete(m.apps, id)
	return nil
}

func (m *memoryStore) AddComment(ctx context.Context, applicationID string, comment models.AdminComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[applicationID]
	if !ok {
		return apperrors.ErrApplicationNotFound
	}
	app.AdminComments = append(app.AdminComments, comment)
	return nil
}

type recordingNotifier struct {
	mu         sync.Mutex
	submitted  []string
	nominated  []string
	failSubmit error
}

func (n *recordingNotifier) ApplicationSubmitted(ctx context.Context, app *models.Application) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitted = append(n.submitted, app.ID)
	return n.failSubmit
}

func (n *recordingNotifier) NominationApproved(ctx context.Context, app *models.Application) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nominated = append(n.nominated, app.ID)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []email.Message
	fail map[string]error
}

func (m *recordingMailer) Enabled() bool { return true }

func (m *recordingMailer) Send(ctx context.Context, msg email.Message) (*email.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[msg.To[0]]; err != nil {
		return nil, err
	}
	m.sent = append(m.sent, msg)
	return &email.SendResult{ID: "msg"}, nil
}
