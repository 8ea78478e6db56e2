package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferencesRepository handles database operations for user preferences
type PreferencesRepository struct {
	db *pgxpool.Pool
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db *pgxpool.Pool) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get retrieves a user's preferences
func (r *PreferencesRepository) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	query := `
		SELECT user_id, notify_new_followers, notify_game_updates, share_location, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`
	var p models.Preferences
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.NotifyNewFollowers, &p.NotifyGameUpdates, &p.ShareLocation, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("preferences not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &p, nil
}

// Upsert stores a user's preferences
func (r *PreferencesRepository) Upsert(ctx context.Context, p *models.Preferences) error {
	query := `
		INSERT INTO user_preferences (user_id, notify_new_followers, notify_game_updates, share_location, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET notify_new_followers = EXCLUDED.notify_new_followers,
			notify_game_updates = EXCLUDED.notify_game_updates,
			share_location = EXCLUDED.share_location,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query, p.UserID, p.NotifyNewFollowers, p.NotifyGameUpdates, p.ShareLocation, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}
