package request

type CreateFeedbackRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,min=10,max=5000"`
	CategoryID  *int   `json:"categoryId" validate:"omitempty,min=1"`
	Priority    string `json:"priority" validate:"omitempty,oneof=normal high urgent"`
}

type AssignFeedbackRequest struct {
	AssigneeID string `json:"assigneeId" validate:"required,uuid"`
}

type UpdateFeedbackStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

// FeedbackListRequest is read from the query string.
type FeedbackListRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
}
