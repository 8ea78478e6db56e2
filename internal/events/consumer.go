package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handler processes one message. Returned errors are logged; the message is acknowledged either way.
type Handler func(ctx context.Context, msg Message) error

// ConsumerConfig identifies the group membership of a consumer
type ConsumerConfig struct {
	Stream string
	Group  string
	Name   string
	// Block is how long a read waits for new entries. Negative means do not block.
	Block time.Duration
	Count int64
}

// Consumer reads a stream through a consumer group
type Consumer struct {
	rdb     *redis.Client
	cfg     ConsumerConfig
	handler Handler
}

// NewConsumer creates a consumer. Zero Block and Count fall back to 5s and 16.
func NewConsumer(rdb *redis.Client, cfg ConsumerConfig, handler Handler) *Consumer {
	if cfg.Block == 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.Count <= 0 {
		cfg.Count = 16
	}
	return &Consumer{rdb: rdb, cfg: cfg, handler: handler}
}

// EnsureGroup creates the stream and group when they do not exist
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Run processes pending entries first, then new entries until ctx is cancelled
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	log.Info().
		Str("stream", c.cfg.Stream).
		Str("group", c.cfg.Group).
		Str("consumer", c.cfg.Name).
		Msg("Event consumer started")

	if _, err := c.DrainPending(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Failed to drain pending events")
	}

	for {
		if ctx.Err() != nil {
			log.Info().Str("consumer", c.cfg.Name).Msg("Event consumer stopped")
			return nil
		}
		if _, err := c.Poll(ctx, ">"); err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("Failed to read events")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// DrainPending reprocesses entries delivered to this consumer but never acknowledged
func (c *Consumer) DrainPending(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := c.Poll(ctx, "0")
		total += n
		if err != nil || n == 0 {
			return total, err
		}
	}
}

// Poll reads one batch starting at id (">" for new entries, "0" for pending ones),
// handles it and acknowledges every entry. It returns the number of entries handled.
func (c *Consumer) Poll(ctx context.Context, id string) (int, error) {
	block := c.cfg.Block
	if id != ">" {
		block = -1
	}

	streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Name,
		Streams:  []string{c.cfg.Stream, id},
		Count:    c.cfg.Count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stream: %w", err)
	}

	handled := 0
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			c.handle(ctx, raw)
			if err := c.rdb.XAck(ctx, c.cfg.Stream, c.cfg.Group, raw.ID).Err(); err != nil {
				log.Error().Err(err).Str("entry_id", raw.ID).Msg("Failed to acknowledge event")
			}
			handled++
		}
	}
	return handled, nil
}

func (c *Consumer) handle(ctx context.Context, raw redis.XMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("entry_id", raw.ID).Msg("Event handler panicked")
		}
	}()

	msg, err := decodeMessage(raw)
	if err != nil {
		log.Warn().Err(err).Msg("Dropping undecodable event")
		return
	}
	if err := c.handler(ctx, msg); err != nil {
		log.Error().Err(err).Str("entry_id", msg.ID).Str("type", msg.Type).Msg("Event handler failed")
	}
}
