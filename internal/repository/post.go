package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `id, user_id, display_name, date, start_time, end_time, location,
	latitude, longitude, has_exact_location, event_type, game_type, description,
	joined_players, created_at`

// PostRepository handles database operations for posts
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID, &p.UserID, &p.DisplayName, &p.Date, &p.StartTime, &p.EndTime, &p.Location,
		&p.Latitude, &p.Longitude, &p.HasExactLocation, &p.EventType, &p.GameType, &p.Description,
		&p.JoinedPlayers, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.JoinedPlayers == nil {
		p.JoinedPlayers = []string{}
	}
	return &p, nil
}

func collectPosts(rows pgx.Rows) ([]*models.Post, error) {
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, display_name, date, start_time, end_time, location,
			latitude, longitude, has_exact_location, event_type, game_type, description,
			joined_players, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	players := post.JoinedPlayers
	if players == nil {
		players = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		post.ID, post.UserID, post.DisplayName, post.Date, post.StartTime, post.EndTime, post.Location,
		post.Latitude, post.Longitude, post.HasExactLocation, post.EventType, post.GameType, post.Description,
		players, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// ListByDate returns every post ordered by date ascending
func (r *PostRepository) ListByDate(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY date ASC, created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return collectPosts(rows)
}

// ListByUser returns posts owned by userID ordered by date ascending
func (r *PostRepository) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY date ASC, created_at ASC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by user: %w", err)
	}
	return collectPosts(rows)
}

// Delete deletes a post by ID
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("post not found: %w", models.ErrNotFound)
	}
	return nil
}

// AddPlayer appends userID to joined_players unless already present.
// The single-statement update is the add-to-set primitive.
func (r *PostRepository) AddPlayer(ctx context.Context, postID, userID string) (bool, error) {
	query := `
		UPDATE posts SET joined_players = array_append(joined_players, $2)
		WHERE id = $1 AND NOT ($2 = ANY(joined_players))
	`
	result, err := r.db.Exec(ctx, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to join post: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// RemovePlayer removes userID from joined_players if present
func (r *PostRepository) RemovePlayer(ctx context.Context, postID, userID string) (bool, error) {
	query := `
		UPDATE posts SET joined_players = array_remove(joined_players, $2)
		WHERE id = $1 AND $2 = ANY(joined_players)
	`
	result, err := r.db.Exec(ctx, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to leave post: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListExpiredIDs returns IDs of posts whose date is strictly before today (YYYY-MM-DD)
func (r *PostRepository) ListExpiredIDs(ctx context.Context, today string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM posts WHERE date < $1`, today)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired posts: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect expired post ids: %w", err)
	}
	return ids, nil
}

// DeleteByIDs deletes the given posts in one statement
func (r *PostRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete posts: %w", err)
	}
	return result.RowsAffected(), nil
}
