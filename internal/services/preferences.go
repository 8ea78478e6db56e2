package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/models"
)

// PreferencesInput carries optional preference changes
type PreferencesInput struct {
	NotifyNewFollowers *bool `json:"notify_new_followers"`
	NotifyGameUpdates  *bool `json:"notify_game_updates"`
	ShareLocation      *bool `json:"share_location"`
}

// PreferencesService reads and writes user preferences
type PreferencesService struct {
	prefs PreferencesStore
}

// NewPreferencesService creates a new preferences service
func NewPreferencesService(prefs PreferencesStore) *PreferencesService {
	return &PreferencesService{prefs: prefs}
}

// Get returns the saved preferences or the defaults
func (s *PreferencesService) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	p, err := s.prefs.Get(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return models.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return p, nil
}

// Update applies the non-nil fields of in
func (s *PreferencesService) Update(ctx context.Context, userID string, in PreferencesInput) (*models.Preferences, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.NotifyNewFollowers != nil {
		p.NotifyNewFollowers = *in.NotifyNewFollowers
	}
	if in.NotifyGameUpdates != nil {
		p.NotifyGameUpdates = *in.NotifyGameUpdates
	}
	if in.ShareLocation != nil {
		p.ShareLocation = *in.ShareLocation
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.prefs.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return p, nil
}
