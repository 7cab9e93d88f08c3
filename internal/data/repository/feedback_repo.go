package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"feedback-portal/internal/data/entity"
	"feedback-portal/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var ErrDuplicateFeedbackNumber = errors.New("feedback number already used")

// FeedbackFilter narrows list queries. Zero values mean no filter.
type FeedbackFilter struct {
	SubmittedBy *uuid.UUID
	AssignedTo  *uuid.UUID
	Status      entity.FeedbackStatus
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entity.Feedback) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Feedback, error)
	FindAll(ctx context.Context, filter FeedbackFilter, limit, offset int) ([]*entity.Feedback, error)
	Count(ctx context.Context, filter FeedbackFilter) (int64, error)
	Assign(ctx context.Context, id, assigneeID uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.FeedbackStatus) (*entity.FeedbackStatus, error)
}

type feedbackRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewFeedbackRepository(db database.PgxIface, log *zap.Logger) FeedbackRepository {
	return &feedbackRepository{
		db:  db,
		log: log.With(zap.String("repository", "feedback")),
	}
}

const feedbackSelect = `
		SELECT f.id, f.feedback_number, f.title, f.description, f.category_id, f.priority,
		       f.status, f.submitted_by, f.assigned_to, f.created_at, f.updated_at,
		       c.name, s.username, s.email, s.first_name, a.username
		FROM feedback f
		LEFT JOIN categories c ON c.id = f.category_id
		JOIN users s ON s.id = f.submitted_by
		LEFT JOIN users a ON a.id = f.assigned_to
`

func scanFeedback(row pgx.Row) (*entity.Feedback, error) {
	var f entity.Feedback
	err := row.Scan(
		&f.ID,
		&f.Number,
		&f.Title,
		&f.Description,
		&f.CategoryID,
		&f.Priority,
		&f.Status,
		&f.SubmittedBy,
		&f.AssignedTo,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.CategoryName,
		&f.SubmitterUsername,
		&f.SubmitterEmail,
		&f.SubmitterFirst,
		&f.AssigneeUsername,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *entity.Feedback) error {
	query := `
		INSERT INTO feedback (id, feedback_number, title, description, category_id, priority,
		                      status, submitted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		feedback.ID,
		feedback.Number,
		feedback.Title,
		feedback.Description,
		feedback.CategoryID,
		feedback.Priority,
		feedback.Status,
		feedback.SubmittedBy,
		feedback.CreatedAt,
		feedback.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && strings.Contains(pgErr.ConstraintName, "feedback_number") {
			return ErrDuplicateFeedbackNumber
		}
		r.log.Error("Failed to create feedback",
			zap.Error(err),
			zap.String("number", feedback.Number),
			zap.String("submitted_by", feedback.SubmittedBy.String()),
		)
		return fmt.Errorf("create feedback %s: %w", feedback.Number, err)
	}

	return nil
}

func (r *feedbackRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Feedback, error) {
	query := feedbackSelect + ` WHERE f.id = $1`

	feedback, err := scanFeedback(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find feedback by ID", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("find feedback by ID %s: %w", id.String(), err)
	}
	return feedback, nil
}

// where builds the filter clause starting at placeholder $1.
func (f FeedbackFilter) where() (string, []any) {
	var sb strings.Builder
	sb.WriteString(" WHERE 1=1")
	args := []any{}

	if f.SubmittedBy != nil {
		args = append(args, *f.SubmittedBy)
		sb.WriteString(fmt.Sprintf(" AND f.submitted_by = $%d", len(args)))
	}
	if f.AssignedTo != nil {
		args = append(args, *f.AssignedTo)
		sb.WriteString(fmt.Sprintf(" AND f.assigned_to = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		sb.WriteString(fmt.Sprintf(" AND f.status = $%d", len(args)))
	}
	return sb.String(), args
}

func (r *feedbackRepository) FindAll(ctx context.Context, filter FeedbackFilter, limit, offset int) ([]*entity.Feedback, error) {
	where, args := filter.where()
	query := feedbackSelect + where +
		fmt.Sprintf(" ORDER BY f.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find feedback",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find feedback limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var items []*entity.Feedback
	for rows.Next() {
		feedback, err := scanFeedback(rows)
		if err != nil {
			r.log.Error("Failed to scan feedback row", zap.Error(err))
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		items = append(items, feedback)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}

	return items, nil
}

func (r *feedbackRepository) Count(ctx context.Context, filter FeedbackFilter) (int64, error) {
	where, args := filter.where()
	query := `SELECT COUNT(*) FROM feedback f` + where

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count feedback", zap.Error(err))
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return total, nil
}

func (r *feedbackRepository) Assign(ctx context.Context, id, assigneeID uuid.UUID) error {
	query := `UPDATE feedback SET assigned_to = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, assigneeID)
	if err != nil {
		r.log.Error("Failed to assign feedback",
			zap.Error(err),
			zap.String("id", id.String()),
			zap.String("assignee", assigneeID.String()),
		)
		return fmt.Errorf("assign feedback %s: %w", id.String(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("feedback %s not found", id.String())
	}
	return nil
}

// UpdateStatus sets the new status and returns the previous one, or nil when
// the feedback does not exist.
func (r *feedbackRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.FeedbackStatus) (*entity.FeedbackStatus, error) {
	query := `
		UPDATE feedback f
		SET status = $2, updated_at = NOW()
		FROM (SELECT id, status FROM feedback WHERE id = $1 FOR UPDATE) prev
		WHERE f.id = prev.id
		RETURNING prev.status
	`

	var previous entity.FeedbackStatus
	err := r.db.QueryRow(ctx, query, id, status).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to update feedback status",
			zap.Error(err),
			zap.String("id", id.String()),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("update feedback %s status: %w", id.String(), err)
	}
	return &previous, nil
}
