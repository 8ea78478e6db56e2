package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const followColumns = `id, follower_id, followed_id, following_id, follower_name, created_at`

// FollowRepository handles database operations for follow relationships.
// Counter updates share the edge transaction.
type FollowRepository struct {
	db *pgxpool.Pool
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *pgxpool.Pool) *FollowRepository {
	return &FollowRepository{db: db}
}

// Upsert writes the relationship at its deterministic key. It reports whether
// the record was newly created; only then are the counters incremented.
func (r *FollowRepository) Upsert(ctx context.Context, follow *models.Follow) (bool, error) {
	var created bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO followers (id, follower_id, followed_id, following_id, follower_name, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET follower_name = EXCLUDED.follower_name, created_at = EXCLUDED.created_at
			RETURNING (xmax = 0)
		`
		err := tx.QueryRow(ctx, query,
			follow.ID, follow.FollowerID, follow.FollowedID, follow.FollowingID,
			follow.FollowerName, follow.CreatedAt,
		).Scan(&created)
		if err != nil {
			return fmt.Errorf("failed to upsert follow: %w", err)
		}
		if !created {
			return nil
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET following_count = following_count + 1 WHERE id = $1`,
			follow.FollowerID,
		); err != nil {
			return fmt.Errorf("failed to increment following count: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET follower_count = follower_count + 1 WHERE id = $1`,
			follow.FollowedID,
		); err != nil {
			return fmt.Errorf("failed to increment follower count: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Delete removes the relationship if present and reports whether a row was removed
func (r *FollowRepository) Delete(ctx context.Context, followerID, followedID string) (bool, error) {
	var deleted bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM followers WHERE id = $1`, models.FollowID(followerID, followedID))
		if err != nil {
			return fmt.Errorf("failed to delete follow: %w", err)
		}
		deleted = result.RowsAffected() > 0
		if !deleted {
			return nil
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET following_count = GREATEST(following_count - 1, 0) WHERE id = $1`,
			followerID,
		); err != nil {
			return fmt.Errorf("failed to decrement following count: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET follower_count = GREATEST(follower_count - 1, 0) WHERE id = $1`,
			followedID,
		); err != nil {
			return fmt.Errorf("failed to decrement follower count: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Exists checks the relationship by its key
func (r *FollowRepository) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM followers WHERE id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, models.FollowID(followerID, followedID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// Get retrieves a relationship by its key
func (r *FollowRepository) Get(ctx context.Context, followerID, followedID string) (*models.Follow, error) {
	query := `SELECT ` + followColumns + ` FROM followers WHERE id = $1`
	var f models.Follow
	err := r.db.QueryRow(ctx, query, models.FollowID(followerID, followedID)).Scan(
		&f.ID, &f.FollowerID, &f.FollowedID, &f.FollowingID, &f.FollowerName, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("follow not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get follow: %w", err)
	}
	return &f, nil
}

// CountFollowers counts relationships targeting userID
func (r *FollowRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM followers WHERE following_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return n, nil
}

// CountFollowing counts relationships originating from userID
func (r *FollowRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM followers WHERE follower_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count following: %w", err)
	}
	return n, nil
}

// ListFollowers returns relationships targeting userID, newest first
func (r *FollowRepository) ListFollowers(ctx context.Context, userID string, limit int) ([]*models.Follow, error) {
	query := `SELECT ` + followColumns + ` FROM followers WHERE following_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

// ListFollowing returns relationships originating from userID, newest first
func (r *FollowRepository) ListFollowing(ctx context.Context, userID string, limit int) ([]*models.Follow, error) {
	query := `SELECT ` + followColumns + ` FROM followers WHERE follower_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

func (r *FollowRepository) list(ctx context.Context, query, userID string, limit int) ([]*models.Follow, error) {
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()

	var follows []*models.Follow
	for rows.Next() {
		var f models.Follow
		if err := rows.Scan(&f.ID, &f.FollowerID, &f.FollowedID, &f.FollowingID, &f.FollowerName, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		follows = append(follows, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating follows: %w", err)
	}
	return follows, nil
}
