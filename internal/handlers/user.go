package handlers

import (
	"net/http"

	"github.com/keithrincon/picklebookie-sub000/internal/middleware"
	"github.com/keithrincon/picklebookie-sub000/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles sign-up and login
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// LoginRequest is the body of POST /api/v1/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.userService.Register(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService  *services.UserService
	photoService *services.PhotoService
	prefsService *services.PreferencesService
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userService *services.UserService,
	photoService *services.PhotoService,
	prefsService *services.PreferencesService,
) *UserHandler {
	return &UserHandler{
		userService:  userService,
		photoService: photoService,
		prefsService: prefsService,
	}
}

// PushTokenRequest is the body of PUT /api/v1/users/me/push-token
type PushTokenRequest struct {
	Token string `json:"token"`
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// SetPushToken handles PUT /api/v1/users/me/push-token
func (h *UserHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.SetPushToken(r.Context(), middleware.GetUserID(r.Context()), req.Token); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestPhotoUpload handles POST /api/v1/users/me/photo
func (h *UserHandler) RequestPhotoUpload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.UploadRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	res, err := h.photoService.RequestProfileUpload(r.Context(), userID, req.ContentType)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Profile photo upload URL issued")
	respondJSON(w, http.StatusOK, res)
}

// ConfirmPhotoUpload handles POST /api/v1/users/me/photo/confirm
func (h *UserHandler) ConfirmPhotoUpload(w http.ResponseWriter, r *http.Request) {
	var req services.ConfirmUploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.photoService.ConfirmProfileUpload(r.Context(), middleware.GetUserID(r.Context()), req.Key)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// GetPreferences handles GET /api/v1/users/me/preferences
func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.prefsService.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences handles PUT /api/v1/users/me/preferences
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req services.PreferencesInput
	if !decodeJSON(w, r, &req) {
		return
	}

	prefs, err := h.prefsService.Update(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

// Search handles GET /api/v1/users/search?q=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.userService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": profiles})
}

// GetProfile handles GET /api/v1/users/{user_id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user.Profile())
}
