package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/geo"
	"github.com/keithrincon/picklebookie-sub000/internal/metrics"
	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FeedNotifier is told whenever the set of posts changes
type FeedNotifier interface {
	PostsChanged()
}

// PostService handles game post business logic
type PostService struct {
	posts    PostStore
	users    UserStore
	geocoder geo.Geocoder
	feed     FeedNotifier
	loc      *time.Location
	now      func() time.Time
}

// NewPostService creates a new post service. geocoder and feed may be nil.
func NewPostService(posts PostStore, users UserStore, geocoder geo.Geocoder, feed FeedNotifier, loc *time.Location) *PostService {
	if loc == nil {
		loc = time.UTC
	}
	return &PostService{
		posts:    posts,
		users:    users,
		geocoder: geocoder,
		feed:     feed,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *PostService) localNow() time.Time {
	return s.now().In(s.loc)
}

// Today returns the current date in the service timezone as YYYY-MM-DD
func (s *PostService) Today() string {
	return s.localNow().Format(DateLayout)
}

func (s *PostService) notifyFeed() {
	if s.feed != nil {
		s.feed.PostsChanged()
	}
}

// Create validates and stores a post owned by userID
func (s *PostService) Create(ctx context.Context, userID string, in CreatePostInput) (*models.Post, error) {
	if err := ValidatePost(in, s.localNow()); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post owner: %w", err)
	}

	post := &models.Post{
		ID:            uuid.New().String(),
		UserID:        userID,
		DisplayName:   user.DisplayName,
		Date:          strings.TrimSpace(in.Date),
		StartTime:     normalizeClock(in.StartTime),
		EndTime:       normalizeClock(in.EndTime),
		Location:      strings.TrimSpace(in.Location),
		EventType:     in.EventType,
		GameType:      in.GameType,
		Description:   strings.TrimSpace(in.Description),
		JoinedPlayers: []string{},
		CreatedAt:     s.now().UTC(),
	}
	s.resolveLocation(ctx, post)

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("post_id", post.ID).
		Str("date", post.Date).
		Bool("exact_location", post.HasExactLocation).
		Msg("Post created")

	s.notifyFeed()
	return post, nil
}

// resolveLocation geocodes the raw text. Any failure keeps the raw text without coordinates.
func (s *PostService) resolveLocation(ctx context.Context, post *models.Post) {
	post.HasExactLocation = false
	post.Latitude, post.Longitude = nil, nil

	if s.geocoder == nil {
		return
	}

	res, err := s.geocoder.Geocode(ctx, post.Location)
	if err != nil || res == nil || !res.Location.Valid() {
		metrics.GeocodeLookups.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Str("location", post.Location).Msg("Geocoding failed, storing raw location")
		return
	}

	metrics.GeocodeLookups.WithLabelValues("ok").Inc()
	lat, lng := res.Location.Lat, res.Location.Lng
	if res.FormattedAddress != "" {
		post.Location = res.FormattedAddress
	}
	post.Latitude = &lat
	post.Longitude = &lng
	post.HasExactLocation = true
}

// Get returns a post by ID
func (s *PostService) Get(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("post", postID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// ListByUser returns the posts created by userID
func (s *PostService) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	posts, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Delete removes a post. Only its owner may delete it.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("only the creator can delete this post")
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFoundError("post", postID)
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	log.Info().Str("user_id", userID).Str("post_id", postID).Msg("Post deleted")
	s.notifyFeed()
	return nil
}

// Join adds userID to the post's players. Joining twice is a no-op.
func (s *PostService) Join(ctx context.Context, userID, postID string) (*models.Post, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID == userID {
		return nil, models.NewValidationError("you cannot join your own post")
	}

	changed, err := s.posts.AddPlayer(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to join post: %w", err)
	}
	if changed {
		log.Info().Str("user_id", userID).Str("post_id", postID).Msg("Player joined post")
		s.notifyFeed()
	}
	return s.Get(ctx, postID)
}

// Leave removes userID from the post's players. Leaving twice is a no-op.
func (s *PostService) Leave(ctx context.Context, userID, postID string) (*models.Post, error) {
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}

	changed, err := s.posts.RemovePlayer(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to leave post: %w", err)
	}
	if changed {
		log.Info().Str("user_id", userID).Str("post_id", postID).Msg("Player left post")
		s.notifyFeed()
	}
	return s.Get(ctx, postID)
}
