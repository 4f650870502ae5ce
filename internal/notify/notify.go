// Package notify emits fire-and-forget events for downstream consumers
// (minting, notifications). Failures are logged and never propagate into
// the transaction that produced the event.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type ActivatedEvent struct {
	TicketID   uuid.UUID `json:"ticket_id"`
	BuyerID    uuid.UUID `json:"buyer_id"`
	EventID    uuid.UUID `json:"event_id"`
	EventTitle string    `json:"event_title"`
	ClassType  string    `json:"class_type"`
}

type Publisher interface {
	TicketActivated(ctx context.Context, event ActivatedEvent)
}

type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) TicketActivated(ctx context.Context, event ActivatedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode activated event", "ticketID", event.TicketID, "error", err)
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		slog.Warn("failed to publish activated event", "ticketID", event.TicketID, "error", err)
	}
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) TicketActivated(ctx context.Context, event ActivatedEvent) {}
