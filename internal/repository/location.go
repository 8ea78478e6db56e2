package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const locationColumns = `id, user_id, name, address, place_id, latitude, longitude,
	notes, is_favorite, visited, created_at`

// LocationRepository handles database operations for saved locations
type LocationRepository struct {
	db *pgxpool.Pool
}

// NewLocationRepository creates a new saved location repository
func NewLocationRepository(db *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{db: db}
}

func scanLocation(row pgx.Row) (*models.SavedLocation, error) {
	var l models.SavedLocation
	err := row.Scan(
		&l.ID, &l.UserID, &l.Name, &l.Address, &l.PlaceID, &l.Latitude, &l.Longitude,
		&l.Notes, &l.IsFavorite, &l.Visited, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create creates a saved location
func (r *LocationRepository) Create(ctx context.Context, l *models.SavedLocation) error {
	query := `
		INSERT INTO saved_locations (id, user_id, name, address, place_id, latitude, longitude,
			notes, is_favorite, visited, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		l.ID, l.UserID, l.Name, l.Address, l.PlaceID, l.Latitude, l.Longitude,
		l.Notes, l.IsFavorite, l.Visited, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create saved location: %w", err)
	}
	return nil
}

// GetByID retrieves a saved location by ID
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*models.SavedLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM saved_locations WHERE id = $1`
	l, err := scanLocation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("saved location not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get saved location: %w", err)
	}
	return l, nil
}

// FindDuplicate looks up an owner's location by place ID when given, else by address
func (r *LocationRepository) FindDuplicate(ctx context.Context, userID string, placeID *string, address string) (*models.SavedLocation, error) {
	var row pgx.Row
	if placeID != nil && *placeID != "" {
		row = r.db.QueryRow(ctx,
			`SELECT `+locationColumns+` FROM saved_locations WHERE user_id = $1 AND place_id = $2 LIMIT 1`,
			userID, *placeID)
	} else {
		row = r.db.QueryRow(ctx,
			`SELECT `+locationColumns+` FROM saved_locations WHERE user_id = $1 AND address = $2 LIMIT 1`,
			userID, address)
	}
	l, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up saved location: %w", err)
	}
	return l, nil
}

// ListByUser returns an owner's locations, favorites first
func (r *LocationRepository) ListByUser(ctx context.Context, userID string) ([]*models.SavedLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM saved_locations WHERE user_id = $1 ORDER BY is_favorite DESC, created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.SavedLocation
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved locations: %w", err)
	}
	return locations, nil
}

// Update overwrites the editable fields of a saved location
func (r *LocationRepository) Update(ctx context.Context, l *models.SavedLocation) error {
	query := `
		UPDATE saved_locations
		SET name = $1, address = $2, notes = $3, is_favorite = $4, visited = $5
		WHERE id = $6
	`
	result, err := r.db.Exec(ctx, query, l.Name, l.Address, l.Notes, l.IsFavorite, l.Visited, l.ID)
	if err != nil {
		return fmt.Errorf("failed to update saved location: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("saved location not found: %w", models.ErrNotFound)
	}
	return nil
}

// Delete deletes a saved location by ID
func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM saved_locations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved location: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("saved location not found: %w", models.ErrNotFound)
	}
	return nil
}
