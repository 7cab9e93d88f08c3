package adaptor

import (
	"net/http"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/dto/request"
	"feedback-portal/internal/usecase"
	"feedback-portal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FeedbackHandler struct {
	service usecase.FeedbackService
	log     *zap.Logger
}

func NewFeedbackHandler(service usecase.FeedbackService, log *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		log:     log.With(zap.String("handler", "feedback")),
	}
}

// Create handles POST /api/feedback
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	req, _ := utils.GetBody[request.CreateFeedbackRequest](r.Context())

	feedback, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, r, h.log, err, "create feedback")
		return
	}

	utils.ResponseCreated(w, "Feedback submitted successfully", feedback)
}

// List handles GET /api/feedback?page=1&perPage=10&status=open
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := request.FeedbackListRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("perPage"), 10),
		},
		Status: query.Get("status"),
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		h.log.Debug("Invalid feedback list query", zap.String("errors", utils.FormatValidationErrors(errs)))
		utils.ResponseValidation(w, errs)
		return
	}

	items, err := h.service.List(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, r, h.log, err, "list feedback")
		return
	}

	utils.ResponseSuccess(w, "Feedback retrieved successfully", items)
}

// Get handles GET /api/feedback/{id}
func (h *FeedbackHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}

	feedback, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, h.log, err, "get feedback")
		return
	}

	utils.ResponseSuccess(w, "Feedback retrieved successfully", feedback)
}

// Assign handles PATCH /api/feedback/{id}/assign
func (h *FeedbackHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	req, _ := utils.GetBody[request.AssignFeedbackRequest](r.Context())

	feedback, err := h.service.Assign(r.Context(), actor, id, uuid.MustParse(req.AssigneeID))
	if err != nil {
		handleServiceError(w, r, h.log, err, "assign feedback")
		return
	}

	utils.ResponseSuccess(w, "Feedback assigned successfully", feedback)
}

// UpdateStatus handles PATCH /api/feedback/{id}/status
func (h *FeedbackHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	req, _ := utils.GetBody[request.UpdateFeedbackStatusRequest](r.Context())

	feedback, err := h.service.UpdateStatus(r.Context(), actor, id, entity.FeedbackStatus(req.Status))
	if err != nil {
		handleServiceError(w, r, h.log, err, "update feedback status")
		return
	}

	utils.ResponseSuccess(w, "Feedback status updated", feedback)
}

// Categories handles GET /api/categories
func (h *FeedbackHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		handleServiceError(w, r, h.log, err, "list categories")
		return
	}

	utils.ResponseSuccess(w, "Categories retrieved successfully", categories)
}

func (h *FeedbackHandler) target(w http.ResponseWriter, r *http.Request) (usecase.Actor, uuid.UUID, bool) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return usecase.Actor{}, uuid.Nil, false
	}
	id, ok := pathID(r)
	if !ok {
		utils.ResponseError(w, utils.ErrBadRequest("Invalid feedback ID"))
		return usecase.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}
