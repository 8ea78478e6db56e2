package handlers

import (
	"net/http"

	"github.com/keithrincon/picklebookie-sub000/internal/middleware"
	"github.com/keithrincon/picklebookie-sub000/internal/services"

	"github.com/go-chi/chi/v5"
)

// SocialHandler handles follow edges
type SocialHandler struct {
	socialService *services.SocialService
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(socialService *services.SocialService) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

// IsFollowing handles GET /api/v1/users/{user_id}/follow
func (h *SocialHandler) IsFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := h.socialService.IsFollowing(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"following": following})
}

// Follow handles POST /api/v1/users/{user_id}/follow
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	follow, err := h.socialService.Follow(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, follow)
}

// Unfollow handles DELETE /api/v1/users/{user_id}/follow
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.socialService.Unfollow(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "user_id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Followers handles GET /api/v1/users/{user_id}/followers
func (h *SocialHandler) Followers(w http.ResponseWriter, r *http.Request) {
	follows, err := h.socialService.Followers(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"followers": follows})
}

// Following handles GET /api/v1/users/{user_id}/following
func (h *SocialHandler) Following(w http.ResponseWriter, r *http.Request) {
	follows, err := h.socialService.Following(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"following": follows})
}
