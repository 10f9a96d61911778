package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const cooldownKeyPrefix = "submission_cooldown:"

// Limiter decides whether an author may submit right now.
type Limiter interface {
	Allow(ctx context.Context, author string) (bool, error)
	Release(ctx context.Context, author string) error
}

// Cooldown limits each author to one submission per window using Redis keys
// that expire on their own.
type Cooldown struct {
	client rueidis.Client
	window time.Duration
	logger *zap.Logger
}

// NewCooldown creates a cooldown limiter. A window below one second disables it.
func NewCooldown(client rueidis.Client, window time.Duration, logger *zap.Logger) *Cooldown {
	return &Cooldown{
		client: client,
		window: window,
		logger: logger.Named("cooldown"),
	}
}

// Allow claims the author's slot for the window. It returns false while an
// earlier claim is still live.
func (c *Cooldown) Allow(ctx context.Context, author string) (bool, error) {
	seconds := int64(c.window / time.Second)
	if seconds <= 0 {
		return true, nil
	}

	err := c.client.Do(ctx, c.client.B().Set().
		Key(cooldownKeyPrefix+author).
		Value("1").
		Nx().
		ExSeconds(seconds).
		Build()).Error()
	if rueidis.IsRedisNil(err) {
		c.logger.Debug("Submission blocked by cooldown", zap.String("author", author))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim cooldown: %w", err)
	}

	return true, nil
}

// Release drops the author's claim so they can submit again right away.
func (c *Cooldown) Release(ctx context.Context, author string) error {
	if c.window < time.Second {
		return nil
	}

	err := c.client.Do(ctx, c.client.B().Del().Key(cooldownKeyPrefix+author).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to release cooldown: %w", err)
	}

	return nil
}
