package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/events"
	"github.com/keithrincon/picklebookie-sub000/internal/metrics"
	"github.com/keithrincon/picklebookie-sub000/internal/models"
	"github.com/keithrincon/picklebookie-sub000/internal/push"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	newFollowerTitle = "New Follower"
	dedupeKeyPrefix  = "picklebookie:dedupe:notify:"
)

// Deduper remembers processed event IDs
type Deduper interface {
	// MarkSeen records key and reports whether this is its first sighting
	MarkSeen(ctx context.Context, key string) (bool, error)
}

// RedisDeduper implements Deduper with SET NX and a TTL
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDeduper creates a deduper whose keys expire after ttl
func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

// MarkSeen reports true the first time key is seen within the TTL
func (d *RedisDeduper) MarkSeen(ctx context.Context, key string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, dedupeKeyPrefix+key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record event id: %w", err)
	}
	return ok, nil
}

// NewFollowerBody formats the push body for a new follower
func NewFollowerBody(followerName string) string {
	return fmt.Sprintf("%s started following you", followerName)
}

// Notifier turns follow.created events into push notifications
type Notifier struct {
	users  UserStore
	prefs  PreferencesStore
	sender push.Sender
	dedupe Deduper
}

// NewNotifier creates a notifier. prefs and dedupe may be nil.
func NewNotifier(users UserStore, prefs PreferencesStore, sender push.Sender, dedupe Deduper) *Notifier {
	return &Notifier{users: users, prefs: prefs, sender: sender, dedupe: dedupe}
}

// Handle adapts the notifier to an events.Handler
func (n *Notifier) Handle(ctx context.Context, msg events.Message) error {
	if msg.Type != events.TypeFollowCreated {
		log.Debug().Str("type", msg.Type).Str("entry_id", msg.ID).Msg("Ignoring event type")
		return nil
	}
	return n.HandleFollowCreated(ctx, msg.ID, msg.Event)
}

// HandleFollowCreated sends at most one push per event ID. Push failures are logged, never returned.
func (n *Notifier) HandleFollowCreated(ctx context.Context, eventID string, evt events.FollowCreated) error {
	if evt.FollowedID == "" || evt.FollowerName == "" {
		metrics.Notifications.WithLabelValues("dropped").Inc()
		log.Warn().Str("entry_id", eventID).Msg("Dropping follow event with missing fields")
		return nil
	}

	if n.dedupe != nil && eventID != "" {
		first, err := n.dedupe.MarkSeen(ctx, eventID)
		if err != nil {
			log.Warn().Err(err).Str("entry_id", eventID).Msg("Dedupe check failed, delivering anyway")
		} else if !first {
			metrics.Notifications.WithLabelValues("duplicate").Inc()
			log.Info().Str("entry_id", eventID).Msg("Duplicate follow event skipped")
			return nil
		}
	}

	user, err := n.users.GetByID(ctx, evt.FollowedID)
	if errors.Is(err, models.ErrNotFound) {
		metrics.Notifications.WithLabelValues("skipped").Inc()
		log.Info().Str("user_id", evt.FollowedID).Msg("Followed user not found, skipping notification")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load followed user: %w", err)
	}

	if user.PushToken == nil || *user.PushToken == "" {
		metrics.Notifications.WithLabelValues("skipped").Inc()
		log.Info().Str("user_id", user.ID).Msg("User has no push token, skipping notification")
		return nil
	}

	if !n.wantsFollowerNotifications(ctx, user.ID) {
		metrics.Notifications.WithLabelValues("skipped").Inc()
		log.Info().Str("user_id", user.ID).Msg("New follower notifications disabled")
		return nil
	}

	if err := n.sender.Send(ctx, *user.PushToken, newFollowerTitle, NewFollowerBody(evt.FollowerName)); err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send follow notification")
		return nil
	}

	metrics.Notifications.WithLabelValues("sent").Inc()
	log.Info().
		Str("user_id", user.ID).
		Str("follower_id", evt.FollowerID).
		Msg("Follow notification sent")
	return nil
}

func (n *Notifier) wantsFollowerNotifications(ctx context.Context, userID string) bool {
	if n.prefs == nil {
		return true
	}
	p, err := n.prefs.Get(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return true
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load preferences, using defaults")
		return true
	}
	return p.NotifyNewFollowers
}
