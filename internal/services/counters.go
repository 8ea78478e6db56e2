package services

import (
	"context"
	"fmt"

	"github.com/keithrincon/picklebookie-sub000/internal/metrics"

	"github.com/rs/zerolog/log"
)

// ReconcileReport summarizes a reconciliation run
type ReconcileReport struct {
	Users   int `json:"users"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// OK reports whether every user was reconciled
func (r ReconcileReport) OK() bool {
	return r.Failed == 0
}

// CounterService recomputes denormalized follow counters from the edge records
type CounterService struct {
	users   UserStore
	follows FollowStore
}

// NewCounterService creates a new counter maintenance service
func NewCounterService(users UserStore, follows FollowStore) *CounterService {
	return &CounterService{users: users, follows: follows}
}

// Reconcile overwrites every user's counts with the true edge counts.
// A failure on one user is logged and the run continues.
func (s *CounterService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		return report, fmt.Errorf("failed to list users: %w", err)
	}
	report.Users = len(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			metrics.ReconcileRuns.WithLabelValues("cancelled").Inc()
			return report, err
		}
		if err := s.reconcileUser(ctx, id); err != nil {
			report.Failed++
			metrics.ReconcileUserFailures.Inc()
			log.Error().Err(err).Str("user_id", id).Msg("Failed to reconcile follow counts")
			continue
		}
		report.Updated++
	}

	status := "ok"
	if !report.OK() {
		status = "partial"
	}
	metrics.ReconcileRuns.WithLabelValues(status).Inc()

	log.Info().
		Int("users", report.Users).
		Int("updated", report.Updated).
		Int("failed", report.Failed).
		Msg("Follow count reconciliation finished")
	return report, nil
}

func (s *CounterService) reconcileUser(ctx context.Context, userID string) error {
	followers, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		return err
	}
	following, err := s.follows.CountFollowing(ctx, userID)
	if err != nil {
		return err
	}
	return s.users.SetFollowCounts(ctx, userID, followers, following)
}
