// Package push delivers device notifications.
package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// ErrInvalidToken is returned when the provider rejects the device token
var ErrInvalidToken = errors.New("device token rejected")

// Sender sends a single alert to a device
type Sender interface {
	Send(ctx context.Context, deviceToken, title, body string) error
}

// APNsConfig holds token-based (.p8) credentials
type APNsConfig struct {
	KeyPath    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

// APNsSender sends alerts through Apple Push Notification service
type APNsSender struct {
	client *apns2.Client
	topic  string
}

// NewAPNsSender loads the signing key and builds a token client
func NewAPNsSender(cfg APNsConfig) (*APNsSender, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsSender{client: client, topic: cfg.Topic}, nil
}

// Send pushes an alert with title and body
func (s *APNsSender) Send(ctx context.Context, deviceToken, title, body string) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default"),
	}

	res, err := s.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		if res.Reason == apns2.ReasonBadDeviceToken || res.Reason == apns2.ReasonUnregistered {
			return fmt.Errorf("%w: %s", ErrInvalidToken, res.Reason)
		}
		return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
	}

	log.Debug().Str("apns_id", res.ApnsID).Msg("Push notification sent")
	return nil
}

// LogSender logs alerts instead of sending them
type LogSender struct{}

// Send logs the alert
func (LogSender) Send(ctx context.Context, deviceToken, title, body string) error {
	log.Info().
		Str("title", title).
		Str("body", body).
		Msg("Push delivery disabled, notification logged")
	return nil
}

// New returns an APNs sender when credentials are configured and a LogSender otherwise
func New(cfg APNsConfig) (Sender, error) {
	if cfg.KeyPath == "" {
		log.Warn().Msg("APNs key not configured, push notifications will only be logged")
		return LogSender{}, nil
	}
	return NewAPNsSender(cfg)
}
