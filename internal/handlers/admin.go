package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/keithrincon/picklebookie-sub000/internal/middleware"
	"github.com/keithrincon/picklebookie-sub000/internal/models"
	"github.com/keithrincon/picklebookie-sub000/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FeedbackHandler handles user feedback and its admin triage
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
	userService     *services.UserService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackService *services.FeedbackService, userService *services.UserService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		userService:     userService,
	}
}

// SubmitFeedbackRequest is the body of POST /api/v1/feedback
type SubmitFeedbackRequest struct {
	Message string `json:"message"`
}

// UpdateFeedbackRequest is the body of PATCH /api/v1/admin/feedback/{feedback_id}
type UpdateFeedbackRequest struct {
	Status models.FeedbackStatus `json:"status"`
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitFeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := middleware.GetUserID(r.Context())
	var email string
	if user, err := h.userService.GetUser(r.Context(), userID); err == nil {
		email = user.Email
	}

	entry, err := h.feedbackService.Submit(r.Context(), userID, email, req.Message)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// List handles GET /api/v1/admin/feedback
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.feedbackService.List(r.Context(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"feedback": entries})
}

// UpdateStatus handles PATCH /api/v1/admin/feedback/{feedback_id}
func (h *FeedbackHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateFeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "feedback_id")
	if err := h.feedbackService.UpdateStatus(r.Context(), id, req.Status); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

// Reconciler recomputes follow counters
type Reconciler interface {
	Reconcile(ctx context.Context) (services.ReconcileReport, error)
}

// AdminHandler handles maintenance operations
type AdminHandler struct {
	reconciler Reconciler
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reconciler Reconciler) *AdminHandler {
	return &AdminHandler{reconciler: reconciler}
}

// ReconcileResponse reports a reconciliation run
type ReconcileResponse struct {
	Status string                   `json:"status"`
	Report services.ReconcileReport `json:"report"`
	Error  string                   `json:"error,omitempty"`
}

// ReconcileFollowCounts handles POST /api/v1/admin/follow-counts/reconcile
func (h *AdminHandler) ReconcileFollowCounts(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Follow count reconciliation failed")
		respondJSON(w, http.StatusInternalServerError, ReconcileResponse{Status: "error", Report: report, Error: "reconciliation failed"})
		return
	}
	if !report.OK() {
		respondJSON(w, http.StatusInternalServerError, ReconcileResponse{Status: "partial", Report: report})
		return
	}
	respondJSON(w, http.StatusOK, ReconcileResponse{Status: "ok", Report: report})
}

// Healthz handles GET /healthz
func Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
