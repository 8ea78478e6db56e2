package services

import (
	"context"

	"github.com/keithrincon/picklebookie-sub000/internal/events"
	"github.com/keithrincon/picklebookie-sub000/internal/models"
)

// UserStore is the persistence contract for user accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, displayName, username string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	UpdatePhotoURL(ctx context.Context, userID, photoURL string) error
	SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error)
	ListIDs(ctx context.Context) ([]string, error)
	SetFollowCounts(ctx context.Context, userID string, followers, following int) error
}

// FollowStore is the persistence contract for follow relationships
type FollowStore interface {
	Upsert(ctx context.Context, follow *models.Follow) (bool, error)
	Delete(ctx context.Context, followerID, followedID string) (bool, error)
	Exists(ctx context.Context, followerID, followedID string) (bool, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
	ListFollowers(ctx context.Context, userID string, limit int) ([]*models.Follow, error)
	ListFollowing(ctx context.Context, userID string, limit int) ([]*models.Follow, error)
}

// PostStore is the persistence contract for game posts
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListByDate(ctx context.Context) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Post, error)
	Delete(ctx context.Context, id string) error
	AddPlayer(ctx context.Context, postID, userID string) (bool, error)
	RemovePlayer(ctx context.Context, postID, userID string) (bool, error)
	ListExpiredIDs(ctx context.Context, today string) ([]string, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// LocationStore is the persistence contract for saved locations
type LocationStore interface {
	Create(ctx context.Context, l *models.SavedLocation) error
	GetByID(ctx context.Context, id string) (*models.SavedLocation, error)
	FindDuplicate(ctx context.Context, userID string, placeID *string, address string) (*models.SavedLocation, error)
	ListByUser(ctx context.Context, userID string) ([]*models.SavedLocation, error)
	Update(ctx context.Context, l *models.SavedLocation) error
	Delete(ctx context.Context, id string) error
}

// FeedbackStore is the persistence contract for feedback entries
type FeedbackStore interface {
	Create(ctx context.Context, f *models.Feedback) error
	List(ctx context.Context, limit int) ([]*models.Feedback, error)
	UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus) error
}

// PreferencesStore is the persistence contract for user preferences
type PreferencesStore interface {
	Get(ctx context.Context, userID string) (*models.Preferences, error)
	Upsert(ctx context.Context, p *models.Preferences) error
}

// FollowEventPublisher publishes follow.created events
type FollowEventPublisher interface {
	PublishFollowCreated(ctx context.Context, evt events.FollowCreated) (string, error)
}
