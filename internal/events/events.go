// Package events carries domain events over Redis Streams with consumer
// groups. Delivery is at-least-once: consumers must be idempotent.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// FollowStream is the stream that receives follow.created events
	FollowStream = "picklebookie:events:follows"

	// TypeFollowCreated identifies a new follow relationship
	TypeFollowCreated = "follow.created"

	fieldType    = "type"
	fieldPayload = "payload"
)

// FollowCreated is published once per newly created follow relationship
type FollowCreated struct {
	FollowID     string    `json:"follow_id"`
	FollowerID   string    `json:"follower_id"`
	FollowedID   string    `json:"followed_id"`
	FollowerName string    `json:"follower_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Publisher appends events to a stream
type Publisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

// NewPublisher creates a publisher for stream. maxLen > 0 caps the stream approximately.
func NewPublisher(rdb *redis.Client, stream string, maxLen int64) *Publisher {
	return &Publisher{rdb: rdb, stream: stream, maxLen: maxLen}
}

// PublishFollowCreated appends evt and returns the stream entry ID
func (p *Publisher) PublishFollowCreated(ctx context.Context, evt FollowCreated) (string, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("failed to marshal follow event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			fieldType:    TypeFollowCreated,
			fieldPayload: string(data),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.rdb.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish follow event: %w", err)
	}
	return id, nil
}

// Message is a decoded stream entry
type Message struct {
	ID    string
	Type  string
	Event FollowCreated
}

// decodeMessage turns a raw entry into a Message. Malformed payloads yield an error.
func decodeMessage(raw redis.XMessage) (Message, error) {
	msg := Message{ID: raw.ID}

	if t, ok := raw.Values[fieldType].(string); ok {
		msg.Type = t
	}
	payload, ok := raw.Values[fieldPayload].(string)
	if !ok {
		return msg, fmt.Errorf("entry %s has no payload", raw.ID)
	}
	if err := json.Unmarshal([]byte(payload), &msg.Event); err != nil {
		return msg, fmt.Errorf("entry %s has malformed payload: %w", raw.ID, err)
	}
	return msg, nil
}
