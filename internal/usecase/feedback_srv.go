package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/internal/dto/request"
	"feedback-portal/internal/dto/response"
	"feedback-portal/internal/notify"
	"feedback-portal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const feedbackNumberAttempts = 5

type FeedbackService interface {
	Create(ctx context.Context, actor Actor, req *request.CreateFeedbackRequest) (*response.FeedbackResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*response.FeedbackResponse, error)
	List(ctx context.Context, actor Actor, req *request.FeedbackListRequest) (*response.PaginatedResponse[response.FeedbackResponse], error)
	Assign(ctx context.Context, actor Actor, id, assigneeID uuid.UUID) (*response.FeedbackResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status entity.FeedbackStatus) (*response.FeedbackResponse, error)
	Categories(ctx context.Context) ([]response.CategoryResponse, error)
}

type feedbackService struct {
	repo     *repository.Repository
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewFeedbackService(repo *repository.Repository, notifier Notifier, log *zap.Logger) FeedbackService {
	return &feedbackService{
		repo:     repo,
		notifier: notifier,
		log:      log.With(zap.String("service", "feedback")),
		now:      time.Now,
	}
}

func (s *feedbackService) Create(ctx context.Context, actor Actor, req *request.CreateFeedbackRequest) (*response.FeedbackResponse, error) {
	// 1. Category must exist when given
	if req.CategoryID != nil {
		category, err := s.repo.Category.FindByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, utils.ErrBadRequest("Category not found")
		}
	}

	priority := entity.FeedbackPriority(req.Priority)
	if priority == "" {
		priority = entity.PriorityNormal
	}

	// 2. Insert, retrying on number collisions
	now := s.now()
	feedback := &entity.Feedback{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		CategoryID:   req.CategoryID,
		Priority:     priority,
		Status:       entity.StatusOpen,
		SubmittedBy:  actor.ID,
	}

	var err error
	for attempt := 0; attempt < feedbackNumberAttempts; attempt++ {
		feedback.Number = utils.GenerateFeedbackNumber(now)
		err = s.repo.Feedback.Create(ctx, feedback)
		if !errors.Is(err, repository.ErrDuplicateFeedbackNumber) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	// 3. Reload with joined names
	created, err := s.repo.Feedback.FindByID(ctx, feedback.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("feedback %s vanished after create", feedback.ID)
	}

	s.notifier.Notify(notify.KindFeedbackSubmitted, submitterOf(created), notify.Payload{Feedback: feedbackInfo(created)})
	s.log.Info("Feedback created",
		zap.String("id", created.ID.String()),
		zap.String("number", created.Number),
		zap.String("submitted_by", actor.ID.String()))

	resp := response.FeedbackToResponse(created)
	return &resp, nil
}

// visible returns the feedback when actor may read it. Other users' feedback
// is reported as missing.
func (s *feedbackService) visible(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Feedback, error) {
	feedback, err := s.repo.Feedback.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if feedback == nil || (!actor.Role.IsStaff() && feedback.SubmittedBy != actor.ID) {
		return nil, utils.ErrNotFound("Feedback not found")
	}
	return feedback, nil
}

func (s *feedbackService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*response.FeedbackResponse, error) {
	feedback, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	resp := response.FeedbackToResponse(feedback)
	return &resp, nil
}

func (s *feedbackService) List(ctx context.Context, actor Actor, req *request.FeedbackListRequest) (*response.PaginatedResponse[response.FeedbackResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	req.PerPage = req.Limit()

	filter := repository.FeedbackFilter{Status: entity.FeedbackStatus(req.Status)}
	if !actor.Role.IsStaff() {
		filter.SubmittedBy = &actor.ID
	}

	items, err := s.repo.Feedback.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Feedback.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return response.NewPaginatedResponse(response.FeedbackListToResponse(items), req.Page, req.PerPage, total), nil
}

func (s *feedbackService) Assign(ctx context.Context, actor Actor, id, assigneeID uuid.UUID) (*response.FeedbackResponse, error) {
	// 1. Assignee must be active staff
	assignee, err := s.repo.User.FindByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if assignee == nil || !assignee.IsActive || !assignee.Role.IsStaff() {
		return nil, utils.ErrBadRequest("Assignee must be an active agent or admin")
	}

	// 2. Feedback must exist
	feedback, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Feedback.Assign(ctx, feedback.ID, assignee.ID); err != nil {
		return nil, err
	}

	feedback.AssignedTo = &assignee.ID
	feedback.AssigneeUsername = &assignee.Username

	s.notifier.Notify(notify.KindFeedbackAssigned, recipientOf(assignee), notify.Payload{Feedback: feedbackInfo(feedback)})
	s.log.Info("Feedback assigned",
		zap.String("id", feedback.ID.String()),
		zap.String("assignee", assignee.ID.String()),
		zap.String("by", actor.ID.String()))

	resp := response.FeedbackToResponse(feedback)
	return &resp, nil
}

func (s *feedbackService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status entity.FeedbackStatus) (*response.FeedbackResponse, error) {
	previous, err := s.repo.Feedback.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return nil, utils.ErrNotFound("Feedback not found")
	}

	feedback, err := s.repo.Feedback.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if feedback == nil {
		return nil, utils.ErrNotFound("Feedback not found")
	}

	if *previous != status {
		info := feedbackInfo(feedback)
		info.PreviousStatus = string(*previous)
		s.notifier.Notify(notify.KindFeedbackStatusChanged, submitterOf(feedback), notify.Payload{Feedback: info})
	}

	s.log.Info("Feedback status updated",
		zap.String("id", id.String()),
		zap.String("from", string(*previous)),
		zap.String("to", string(status)),
		zap.String("by", actor.ID.String()))

	resp := response.FeedbackToResponse(feedback)
	return &resp, nil
}

func (s *feedbackService) Categories(ctx context.Context) ([]response.CategoryResponse, error) {
	categories, err := s.repo.Category.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return response.CategoriesToResponse(categories), nil
}

func submitterOf(f *entity.Feedback) notify.Recipient {
	r := notify.Recipient{Email: f.SubmitterEmail, Username: f.SubmitterUsername}
	if f.SubmitterFirst != nil {
		r.FirstName = *f.SubmitterFirst
	}
	return r
}

func feedbackInfo(f *entity.Feedback) *notify.FeedbackInfo {
	info := &notify.FeedbackInfo{
		ID:        f.ID.String(),
		Number:    f.Number,
		Title:     f.Title,
		Priority:  string(f.Priority),
		Status:    string(f.Status),
		Submitter: f.SubmitterUsername,
	}
	if f.CategoryName != nil {
		info.Category = *f.CategoryName
	}
	if f.AssigneeUsername != nil {
		info.Assignee = *f.AssigneeUsername
	}
	return info
}
