package response

import (
	"time"

	"feedback-portal/internal/data/entity"
)

type FeedbackResponse struct {
	ID          string                  `json:"id"`
	Number      string                  `json:"feedbackNumber"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	CategoryID  *int                    `json:"categoryId,omitempty"`
	Category    *string                 `json:"category,omitempty"`
	Priority    entity.FeedbackPriority `json:"priority"`
	Status      entity.FeedbackStatus   `json:"status"`
	SubmittedBy string                  `json:"submittedBy"`
	Submitter   string                  `json:"submitter"`
	AssignedTo  *string                 `json:"assignedTo,omitempty"`
	Assignee    *string                 `json:"assignee,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

type CategoryResponse struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func FeedbackToResponse(f *entity.Feedback) FeedbackResponse {
	resp := FeedbackResponse{
		ID:          f.ID.String(),
		Number:      f.Number,
		Title:       f.Title,
		Description: f.Description,
		CategoryID:  f.CategoryID,
		Category:    f.CategoryName,
		Priority:    f.Priority,
		Status:      f.Status,
		SubmittedBy: f.SubmittedBy.String(),
		Submitter:   f.SubmitterUsername,
		Assignee:    f.AssigneeUsername,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
	if f.AssignedTo != nil {
		id := f.AssignedTo.String()
		resp.AssignedTo = &id
	}
	return resp
}

func FeedbackListToResponse(items []*entity.Feedback) []FeedbackResponse {
	out := make([]FeedbackResponse, 0, len(items))
	for _, f := range items {
		out = append(out, FeedbackToResponse(f))
	}
	return out
}

func CategoriesToResponse(categories []*entity.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	return out
}
