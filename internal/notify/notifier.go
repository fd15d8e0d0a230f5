// Package notify delivers security events (e.g. "new login detected") to an
// external notification backend.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is one user-facing notification.
type Event struct {
	UserID    string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	Enabled() bool
}

// New returns a Redis-backed notifier, or a noop one when no address is
// configured.
func New(redisAddr string, logger *log.Logger) Notifier {
	if redisAddr == "" {
		logger.Printf("notifier disabled; redis address missing")
		return &noopNotifier{}
	}
	cli := redis.NewClient(&redis.Options{Addr: redisAddr})
	logger.Printf("notifier enabled redis=%s", redisAddr)
	return &redisNotifier{cli: cli, logger: logger}
}

type noopNotifier struct{}

func (n *noopNotifier) Publish(context.Context, Event) error { return nil }
func (n *noopNotifier) Enabled() bool                        { return false }

type redisNotifier struct {
	cli    *redis.Client
	logger *log.Logger
}

func (r *redisNotifier) Enabled() bool { return true }

func (r *redisNotifier) Publish(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("notifications:%s", ev.UserID)
	if err := r.cli.LPush(ctx, key, string(b)).Err(); err != nil {
		return fmt.Errorf("notify publish: %w", err)
	}
	return nil
}
