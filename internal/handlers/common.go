package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/keithrincon/picklebookie-sub000/internal/geo"
	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message, code string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// statusForCode maps an AppError code to an HTTP status
func statusForCode(code string) int {
	switch code {
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeUnauthorized:
		return http.StatusUnauthorized
	case models.CodeForbidden:
		return http.StatusForbidden
	case models.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err as a JSON error. Errors without a code become 500s
// and are logged; their details never reach the client.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
		respondError(w, appErr.Message, appErr.Code, statusForCode(appErr.Code))
		return
	}
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, "Not found", models.CodeNotFound, http.StatusNotFound)
		return
	}

	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	respondError(w, "Internal server error", models.CodeInternal, http.StatusInternalServerError)
}

// decodeJSON reads the request body into dst, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, "Invalid request body", models.CodeValidation, http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON but accepts an empty body
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "Invalid request body", models.CodeValidation, http.StatusBadRequest)
		return false
	}
	return true
}

// parseViewer reads optional lat/lng query parameters. Both or neither must
// be present.
func parseViewer(r *http.Request) (*geo.Coordinates, error) {
	q := r.URL.Query()
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, models.NewValidationError("lat and lng must be provided together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, models.NewValidationError("invalid lat")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, models.NewValidationError("invalid lng")
	}
	return &geo.Coordinates{Lat: lat, Lng: lng}, nil
}
