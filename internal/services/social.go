package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/events"
	"github.com/keithrincon/picklebookie-sub000/internal/metrics"
	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	fallbackFollowerName = "Someone"
	followListLimit      = 100
)

// SocialService manages the follow graph
type SocialService struct {
	users     UserStore
	follows   FollowStore
	publisher FollowEventPublisher
	now       func() time.Time
}

// NewSocialService creates a new social graph service. publisher may be nil.
func NewSocialService(users UserStore, follows FollowStore, publisher FollowEventPublisher) *SocialService {
	return &SocialService{
		users:     users,
		follows:   follows,
		publisher: publisher,
		now:       time.Now,
	}
}

func validateEdge(followerID, followedID string) error {
	if strings.TrimSpace(followerID) == "" || strings.TrimSpace(followedID) == "" {
		return models.NewValidationError("follower and followed user IDs are required")
	}
	if followerID == followedID {
		return models.NewValidationError("users cannot follow themselves")
	}
	return nil
}

// Follow creates or refreshes the relationship followerID -> followedID.
// Counters move and an event is published only when the record is new.
func (s *SocialService) Follow(ctx context.Context, followerID, followedID string) (*models.Follow, error) {
	if err := validateEdge(followerID, followedID); err != nil {
		return nil, err
	}

	followerName := fallbackFollowerName
	follower, err := s.users.GetByID(ctx, followerID)
	switch {
	case err == nil:
		if follower.DisplayName != "" {
			followerName = follower.DisplayName
		}
	case errors.Is(err, models.ErrNotFound):
		log.Warn().Str("follower_id", followerID).Msg("Follower record missing, using fallback name")
	default:
		return nil, fmt.Errorf("failed to load follower: %w", err)
	}

	follow := &models.Follow{
		ID:           models.FollowID(followerID, followedID),
		FollowerID:   followerID,
		FollowedID:   followedID,
		FollowingID:  followedID,
		FollowerName: followerName,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.follows.Upsert(ctx, follow)
	if err != nil {
		return nil, fmt.Errorf("failed to follow user: %w", err)
	}

	log.Info().
		Str("follower_id", followerID).
		Str("followed_id", followedID).
		Bool("created", created).
		Msg("Follow recorded")

	if created {
		s.publishFollowCreated(ctx, follow)
	}
	return follow, nil
}

func (s *SocialService) publishFollowCreated(ctx context.Context, follow *models.Follow) {
	if s.publisher == nil {
		return
	}
	_, err := s.publisher.PublishFollowCreated(ctx, events.FollowCreated{
		FollowID:     follow.ID,
		FollowerID:   follow.FollowerID,
		FollowedID:   follow.FollowedID,
		FollowerName: follow.FollowerName,
		CreatedAt:    follow.CreatedAt,
	})
	if err != nil {
		metrics.FollowEvents.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("follow_id", follow.ID).Msg("Failed to publish follow event")
		return
	}
	metrics.FollowEvents.WithLabelValues("published").Inc()
}

// Unfollow removes the relationship if it exists. A missing relationship is not an error.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followedID string) error {
	if err := validateEdge(followerID, followedID); err != nil {
		return err
	}

	deleted, err := s.follows.Delete(ctx, followerID, followedID)
	if err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}

	log.Info().
		Str("follower_id", followerID).
		Str("followed_id", followedID).
		Bool("deleted", deleted).
		Msg("Unfollow processed")
	return nil
}

// IsFollowing reports whether followerID follows followedID
func (s *SocialService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	if strings.TrimSpace(followerID) == "" || strings.TrimSpace(followedID) == "" {
		return false, models.NewValidationError("follower and followed user IDs are required")
	}
	if followerID == followedID {
		return false, nil
	}
	ok, err := s.follows.Exists(ctx, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return ok, nil
}

// Followers lists who follows userID, newest first
func (s *SocialService) Followers(ctx context.Context, userID string) ([]*models.Follow, error) {
	if userID == "" {
		return nil, models.NewValidationError("user ID is required")
	}
	return s.follows.ListFollowers(ctx, userID, followListLimit)
}

// Following lists who userID follows, newest first
func (s *SocialService) Following(ctx context.Context, userID string) ([]*models.Follow, error) {
	if userID == "" {
		return nil, models.NewValidationError("user ID is required")
	}
	return s.follows.ListFollowing(ctx, userID, followListLimit)
}
