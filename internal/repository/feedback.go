package repository

import (
	"context"
	"fmt"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FeedbackRepository handles database operations for feedback
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create appends a feedback entry
func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	query := `
		INSERT INTO feedback (id, user_id, email, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, f.ID, f.UserID, f.Email, f.Message, f.Status, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// List returns the newest feedback entries
func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]*models.Feedback, error) {
	query := `
		SELECT id, user_id, email, message, status, created_at
		FROM feedback
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var entries []*models.Feedback
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Email, &f.Message, &f.Status, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entries = append(entries, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}
	return entries, nil
}

// UpdateStatus changes the triage status of a feedback entry
func (r *FeedbackRepository) UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus) error {
	result, err := r.db.Exec(ctx, `UPDATE feedback SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update feedback status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("feedback not found: %w", models.ErrNotFound)
	}
	return nil
}
