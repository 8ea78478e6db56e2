package services

import (
	"context"

	"github.com/keithrincon/picklebookie-sub000/internal/metrics"

	"github.com/rs/zerolog/log"
)

// CleanupExpired deletes every post dated before today in one batch and
// returns the number removed. Failures are logged; the run always completes.
func (s *PostService) CleanupExpired(ctx context.Context) int64 {
	today := s.Today()

	ids, err := s.posts.ListExpiredIDs(ctx, today)
	if err != nil {
		log.Error().Err(err).Str("today", today).Msg("Failed to query expired posts")
		return 0
	}
	if len(ids) == 0 {
		log.Info().Str("today", today).Msg("No expired posts to delete")
		return 0
	}

	deleted, err := s.posts.DeleteByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("Failed to delete expired posts")
		return 0
	}

	metrics.PostsExpired.Add(float64(deleted))
	log.Info().Str("today", today).Int64("deleted", deleted).Msg("Expired posts deleted")
	s.notifyFeed()
	return deleted
}
