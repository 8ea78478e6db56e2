package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxFeedbackLength    = 2000
	defaultFeedbackLimit = 100
)

// FeedbackService stores user feedback and lets admins triage it
type FeedbackService struct {
	feedback FeedbackStore
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(feedback FeedbackStore) *FeedbackService {
	return &FeedbackService{feedback: feedback}
}

// Submit appends a feedback entry
func (s *FeedbackService) Submit(ctx context.Context, userID, email, message string) (*models.Feedback, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, models.NewValidationError("message is required")
	}
	if utf8.RuneCountInString(message) > maxFeedbackLength {
		return nil, models.NewValidationError(fmt.Sprintf("message must be at most %d characters", maxFeedbackLength))
	}

	entry := &models.Feedback{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     strings.TrimSpace(email),
		Message:   message,
		Status:    models.FeedbackNew,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.feedback.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to submit feedback: %w", err)
	}

	log.Info().Str("user_id", userID).Str("feedback_id", entry.ID).Msg("Feedback submitted")
	return entry, nil
}

// List returns the newest feedback entries
func (s *FeedbackService) List(ctx context.Context, limit int) ([]*models.Feedback, error) {
	if limit <= 0 || limit > defaultFeedbackLimit {
		limit = defaultFeedbackLimit
	}
	entries, err := s.feedback.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return entries, nil
}

// UpdateStatus changes the triage status of an entry
func (s *FeedbackService) UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus) error {
	if !status.Valid() {
		return models.NewValidationError("status must be new, reviewed or resolved")
	}
	if err := s.feedback.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFoundError("feedback", id)
		}
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	log.Info().Str("feedback_id", id).Str("status", string(status)).Msg("Feedback status updated")
	return nil
}
