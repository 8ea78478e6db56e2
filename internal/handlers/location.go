package handlers

import (
	"net/http"

	"github.com/keithrincon/picklebookie-sub000/internal/middleware"
	"github.com/keithrincon/picklebookie-sub000/internal/services"

	"github.com/go-chi/chi/v5"
)

// LocationHandler handles saved venues
type LocationHandler struct {
	locationService *services.LocationService
}

// NewLocationHandler creates a new saved-location handler
func NewLocationHandler(locationService *services.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// List handles GET /api/v1/locations
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locationService.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"locations": locations})
}

// Save handles POST /api/v1/locations
func (h *LocationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req services.SaveLocationInput
	if !decodeJSON(w, r, &req) {
		return
	}

	loc, err := h.locationService.Save(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, loc)
}

// Update handles PATCH /api/v1/locations/{location_id}
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateLocationInput
	if !decodeJSON(w, r, &req) {
		return
	}

	loc, err := h.locationService.Update(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "location_id"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loc)
}

// Delete handles DELETE /api/v1/locations/{location_id}
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.locationService.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "location_id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
