package usecase

import (
	"context"
	"sync"
	"time"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/internal/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) user(args mock.Arguments) (*entity.User, error) {
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *mockUserRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	args := m.Called(ctx, limit, offset)
	users, _ := args.Get(0).([]*entity.User)
	return users, args.Error(1)
}

func (m *mockUserRepo) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *mockUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockUserRepo) SetRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) SetVerificationToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	return m.Called(ctx, id, digest, expiresAt).Error(0)
}

func (m *mockUserRepo) ConsumeVerificationToken(ctx context.Context, digest string) (*entity.User, error) {
	return m.user(m.Called(ctx, digest))
}

func (m *mockUserRepo) FindByConsumedVerificationToken(ctx context.Context, digest string) (*entity.User, error) {
	return m.user(m.Called(ctx, digest))
}

func (m *mockUserRepo) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	return m.Called(ctx, id, digest, expiresAt).Error(0)
}

func (m *mockUserRepo) ConsumeResetToken(ctx context.Context, digest, passwordHash string) (*entity.User, error) {
	return m.user(m.Called(ctx, digest, passwordHash))
}

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) FindValidSession(ctx context.Context, token uuid.UUID) (*entity.Session, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*entity.Session)
	return s, args.Error(1)
}

func (m *mockSessionRepo) Revoke(ctx context.Context, token uuid.UUID) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockSessionRepo) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSessionRepo) CleanExpiredSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockCategoryRepo struct{ mock.Mock }

func (m *mockCategoryRepo) FindAll(ctx context.Context) ([]*entity.Category, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]*entity.Category)
	return c, args.Error(1)
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id int) (*entity.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*entity.Category)
	return c, args.Error(1)
}

type mockFeedbackRepo struct{ mock.Mock }

func (m *mockFeedbackRepo) feedback(args mock.Arguments) (*entity.Feedback, error) {
	f, _ := args.Get(0).(*entity.Feedback)
	return f, args.Error(1)
}

func (m *mockFeedbackRepo) Create(ctx context.Context, feedback *entity.Feedback) error {
	return m.Called(ctx, feedback).Error(0)
}

func (m *mockFeedbackRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Feedback, error) {
	return m.feedback(m.Called(ctx, id))
}

func (m *mockFeedbackRepo) FindAll(ctx context.Context, filter repository.FeedbackFilter, limit, offset int) ([]*entity.Feedback, error) {
	args := m.Called(ctx, filter, limit, offset)
	items, _ := args.Get(0).([]*entity.Feedback)
	return items, args.Error(1)
}

func (m *mockFeedbackRepo) Count(ctx context.Context, filter repository.FeedbackFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockFeedbackRepo) Assign(ctx context.Context, id, assigneeID uuid.UUID) error {
	return m.Called(ctx, id, assigneeID).Error(0)
}

func (m *mockFeedbackRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.FeedbackStatus) (*entity.FeedbackStatus, error) {
	args := m.Called(ctx, id, status)
	s, _ := args.Get(0).(*entity.FeedbackStatus)
	return s, args.Error(1)
}

type sentEmail struct {
	Kind    notify.Kind
	To      notify.Recipient
	Payload notify.Payload
}

// recordingNotifier captures queued emails instead of sending them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (n *recordingNotifier) Notify(kind notify.Kind, to notify.Recipient, payload notify.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{Kind: kind, To: to, Payload: payload})
}

func (n *recordingNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Kind, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}

type mocks struct {
	users      *mockUserRepo
	sessions   *mockSessionRepo
	categories *mockCategoryRepo
	feedback   *mockFeedbackRepo
	notifier   *recordingNotifier
	repo       *repository.Repository
}

func newMocks() *mocks {
	m := &mocks{
		users:      &mockUserRepo{},
		sessions:   &mockSessionRepo{},
		categories: &mockCategoryRepo{},
		feedback:   &mockFeedbackRepo{},
		notifier:   &recordingNotifier{},
	}
	m.repo = &repository.Repository{
		User:     m.users,
		Session:  m.sessions,
		Category: m.categories,
		Feedback: m.feedback,
	}
	return m
}
