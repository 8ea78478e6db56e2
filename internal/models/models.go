package models

import (
	"fmt"
	"time"
)

// User represents a player account
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	DisplayName    string    `json:"display_name"`
	Username       string    `json:"username"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	PushToken      *string   `json:"-"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// PublicProfile is the subset of a user visible to other users
type PublicProfile struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	Username       string `json:"username"`
	PhotoURL       string `json:"photo_url,omitempty"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
}

// Profile returns the public view of the user
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		Username:       u.Username,
		PhotoURL:       u.PhotoURL,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
	}
}

// Follow is a directed follow edge. ID is always FollowID(FollowerID, FollowedID).
type Follow struct {
	ID           string    `json:"id"`
	FollowerID   string    `json:"follower_id"`
	FollowedID   string    `json:"followed_id"`
	FollowingID  string    `json:"following_id"`
	FollowerName string    `json:"follower_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// FollowID builds the deterministic key of the edge follower -> followed
func FollowID(followerID, followedID string) string {
	return fmt.Sprintf("%s_%s", followerID, followedID)
}

// EventType is the kind of session a post advertises
type EventType string

const (
	EventOpenPlay   EventType = "open_play"
	EventDrills     EventType = "drills"
	EventLeague     EventType = "league"
	EventTournament EventType = "tournament"
	EventLesson     EventType = "lesson"
	EventSocial     EventType = "social"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventOpenPlay, EventDrills, EventLeague, EventTournament, EventLesson, EventSocial:
		return true
	}
	return false
}

// GameType is the format played at a session
type GameType string

const (
	GameSingles      GameType = "singles"
	GameDoubles      GameType = "doubles"
	GameMixedDoubles GameType = "mixed_doubles"
	GameAny          GameType = "any"
)

// Valid reports whether t is a known game type
func (t GameType) Valid() bool {
	switch t {
	case GameSingles, GameDoubles, GameMixedDoubles, GameAny:
		return true
	}
	return false
}

// Post represents a scheduled game session
type Post struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	DisplayName      string    `json:"display_name"`
	Date             string    `json:"date"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	Location         string    `json:"location"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	HasExactLocation bool      `json:"has_exact_location"`
	EventType        EventType `json:"event_type"`
	GameType         GameType  `json:"game_type"`
	Description      string    `json:"description"`
	JoinedPlayers    []string  `json:"joined_players"`
	CreatedAt        time.Time `json:"created_at"`
}

// HasCoordinates reports whether the post carries a geocoded position
func (p *Post) HasCoordinates() bool {
	return p.HasExactLocation && p.Latitude != nil && p.Longitude != nil
}

// SavedLocation is a court or venue bookmarked by a user
type SavedLocation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	PlaceID    *string   `json:"place_id,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Notes      string    `json:"notes"`
	IsFavorite bool      `json:"is_favorite"`
	Visited    bool      `json:"visited"`
	CreatedAt  time.Time `json:"created_at"`
}

// FeedbackStatus tracks admin triage of a feedback entry
type FeedbackStatus string

const (
	FeedbackNew      FeedbackStatus = "new"
	FeedbackReviewed FeedbackStatus = "reviewed"
	FeedbackResolved FeedbackStatus = "resolved"
)

// Valid reports whether s is a known status
func (s FeedbackStatus) Valid() bool {
	return s == FeedbackNew || s == FeedbackReviewed || s == FeedbackResolved
}

// Feedback is a user-submitted report
type Feedback struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	Message   string         `json:"message"`
	Status    FeedbackStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// Preferences holds per-user notification and privacy switches
type Preferences struct {
	UserID             string    `json:"user_id"`
	NotifyNewFollowers bool      `json:"notify_new_followers"`
	NotifyGameUpdates  bool      `json:"notify_game_updates"`
	ShareLocation      bool      `json:"share_location"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultPreferences returns the preferences of a user who never saved any
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:             userID,
		NotifyNewFollowers: true,
		NotifyGameUpdates:  true,
		ShareLocation:      true,
	}
}
