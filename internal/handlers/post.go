package handlers

import (
	"net/http"

	"github.com/keithrincon/picklebookie-sub000/internal/middleware"
	"github.com/keithrincon/picklebookie-sub000/internal/services"

	"github.com/go-chi/chi/v5"
)

// PostHandler handles game posts and the distance feed
type PostHandler struct {
	postService *services.PostService
	feedService *services.FeedService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService, feedService *services.FeedService) *PostHandler {
	return &PostHandler{
		postService: postService,
		feedService: feedService,
	}
}

// CreatePost handles POST /api/v1/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req services.CreatePostInput
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

// GetPost handles GET /api/v1/posts/{post_id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.Get(r.Context(), chi.URLParam(r, "post_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/v1/posts/{post_id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.postService.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "post_id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinPost handles POST /api/v1/posts/{post_id}/join
func (h *PostHandler) JoinPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.Join(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "post_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// LeavePost handles DELETE /api/v1/posts/{post_id}/join
func (h *PostHandler) LeavePost(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.Leave(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "post_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// ListUserPosts handles GET /api/v1/users/{user_id}/posts
func (h *PostHandler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListByUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// Feed handles GET /api/v1/feed?lat=&lng=
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	viewer, err := parseViewer(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	items, err := h.feedService.Feed(r.Context(), viewer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"posts": items})
}
