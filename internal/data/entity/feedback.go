package entity

import "github.com/google/uuid"

type FeedbackStatus string

const (
	StatusOpen       FeedbackStatus = "open"
	StatusInProgress FeedbackStatus = "in_progress"
	StatusResolved   FeedbackStatus = "resolved"
	StatusClosed     FeedbackStatus = "closed"
)

type FeedbackPriority string

const (
	PriorityNormal FeedbackPriority = "normal"
	PriorityHigh   FeedbackPriority = "high"
	PriorityUrgent FeedbackPriority = "urgent"
)

type Feedback struct {
	BaseNoDelete
	Number      string           `db:"feedback_number"`
	Title       string           `db:"title"`
	Description string           `db:"description"`
	CategoryID  *int             `db:"category_id"`
	Priority    FeedbackPriority `db:"priority"`
	Status      FeedbackStatus   `db:"status"`
	SubmittedBy uuid.UUID        `db:"submitted_by"`
	AssignedTo  *uuid.UUID       `db:"assigned_to"`

	// Joined on read
	CategoryName      *string `db:"category_name"`
	SubmitterUsername string  `db:"submitter_username"`
	SubmitterEmail    string  `db:"submitter_email"`
	SubmitterFirst    *string `db:"submitter_first_name"`
	AssigneeUsername  *string `db:"assignee_username"`
}
