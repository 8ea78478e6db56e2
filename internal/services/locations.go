package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/geo"
	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SaveLocationInput is the payload for bookmarking a venue
type SaveLocationInput struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	PlaceID    *string  `json:"place_id"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Notes      string   `json:"notes"`
	IsFavorite bool     `json:"is_favorite"`
	Visited    bool     `json:"visited"`
}

// UpdateLocationInput carries optional saved-location changes
type UpdateLocationInput struct {
	Name       *string `json:"name"`
	Address    *string `json:"address"`
	Notes      *string `json:"notes"`
	IsFavorite *bool   `json:"is_favorite"`
	Visited    *bool   `json:"visited"`
}

// LocationService manages saved locations
type LocationService struct {
	locations LocationStore
	geocoder  geo.Geocoder
}

// NewLocationService creates a new location service. geocoder may be nil.
func NewLocationService(locations LocationStore, geocoder geo.Geocoder) *LocationService {
	return &LocationService{locations: locations, geocoder: geocoder}
}

// Save bookmarks a location unless the user already saved the same place or address
func (s *LocationService) Save(ctx context.Context, userID string, in SaveLocationInput) (*models.SavedLocation, error) {
	name := strings.TrimSpace(in.Name)
	address := strings.TrimSpace(in.Address)
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}
	if address == "" {
		return nil, models.NewValidationError("address is required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, models.NewValidationError("latitude and longitude must be provided together")
	}
	placeID := in.PlaceID
	if placeID != nil && strings.TrimSpace(*placeID) == "" {
		placeID = nil
	}

	existing, err := s.locations.FindDuplicate(ctx, userID, placeID, address)
	if err != nil {
		return nil, fmt.Errorf("failed to check saved locations: %w", err)
	}
	if existing != nil {
		return nil, models.NewConflictError("location is already saved")
	}

	loc := &models.SavedLocation{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       name,
		Address:    address,
		PlaceID:    placeID,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Notes:      strings.TrimSpace(in.Notes),
		IsFavorite: in.IsFavorite,
		Visited:    in.Visited,
		CreatedAt:  time.Now().UTC(),
	}

	if loc.Latitude == nil && s.geocoder != nil {
		if res, err := s.geocoder.Geocode(ctx, address); err == nil && res != nil && res.Location.Valid() {
			lat, lng := res.Location.Lat, res.Location.Lng
			loc.Latitude, loc.Longitude = &lat, &lng
		} else {
			log.Debug().Err(err).Str("address", address).Msg("Saved location left without coordinates")
		}
	}

	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to save location: %w", err)
	}

	log.Info().Str("user_id", userID).Str("location_id", loc.ID).Msg("Location saved")
	return loc, nil
}

// List returns the user's saved locations
func (s *LocationService) List(ctx context.Context, userID string) ([]*models.SavedLocation, error) {
	locations, err := s.locations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved locations: %w", err)
	}
	return locations, nil
}

func (s *LocationService) owned(ctx context.Context, userID, locationID string) (*models.SavedLocation, error) {
	loc, err := s.locations.GetByID(ctx, locationID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("saved location", locationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved location: %w", err)
	}
	if loc.UserID != userID {
		return nil, models.NewForbiddenError("location belongs to another user")
	}
	return loc, nil
}

// Update applies the non-nil fields of in to a location owned by userID
func (s *LocationService) Update(ctx context.Context, userID, locationID string, in UpdateLocationInput) (*models.SavedLocation, error) {
	loc, err := s.owned(ctx, userID, locationID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, models.NewValidationError("name cannot be empty")
		}
		loc.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		if strings.TrimSpace(*in.Address) == "" {
			return nil, models.NewValidationError("address cannot be empty")
		}
		loc.Address = strings.TrimSpace(*in.Address)
	}
	if in.Notes != nil {
		loc.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.IsFavorite != nil {
		loc.IsFavorite = *in.IsFavorite
	}
	if in.Visited != nil {
		loc.Visited = *in.Visited
	}

	if err := s.locations.Update(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to update saved location: %w", err)
	}
	return loc, nil
}

// Delete removes a location owned by userID
func (s *LocationService) Delete(ctx context.Context, userID, locationID string) error {
	if _, err := s.owned(ctx, userID, locationID); err != nil {
		return err
	}
	if err := s.locations.Delete(ctx, locationID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFoundError("saved location", locationID)
		}
		return fmt.Errorf("failed to delete saved location: %w", err)
	}
	log.Info().Str("user_id", userID).Str("location_id", locationID).Msg("Saved location deleted")
	return nil
}
