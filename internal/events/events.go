// Package events publishes account lifecycle notifications.
package events

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Routing keys for account lifecycle events.
const (
	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	AccountDeleted = "account.deleted"
)

// AccountEvent is the payload published after a successful account mutation.
type AccountEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	AccountID  int64     `json:"account_id"`
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewAccountEvent stamps a fresh event id and time.
func NewAccountEvent(kind string, accountID, userID int64) AccountEvent {
	return AccountEvent{ID: uuid.New(), Type: kind, AccountID: accountID, UserID: userID, OccurredAt: time.Now().UTC()}
}

// Publisher is implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
	Close()
}

// LogPublisher is the fallback used when no broker is configured: it only logs.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher returns a publisher that writes events to l at DEBUG.
func NewLogPublisher(l *slog.Logger) *LogPublisher {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogPublisher{log: l}
}

func (p *LogPublisher) Publish(ctx context.Context, routingKey string, body any) error {
	p.log.DebugContext(ctx, "event (no broker)", "routing_key", routingKey, "body", body)
	return nil
}

func (p *LogPublisher) Close() {}
