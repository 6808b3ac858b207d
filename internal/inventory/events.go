package inventory

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"procodus.dev/fleet-inventory/pkg/mq"
)

// publishTimeout bounds how long a single event publish may block the
// request path after commit.
const publishTimeout = 5 * time.Second

// GatewayEvent is the wire shape of a gateway lifecycle event. One event is
// emitted per audit log entry, after the owning transaction commits.
type GatewayEvent struct {
	GatewayID  uuid.UUID       `json:"gateway_id"`
	Action     LogAction       `json:"action"`
	Details    json.RawMessage `json:"details"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EventPublisher mirrors committed audit log entries onto a message queue.
// A nil *EventPublisher is valid and publishes nothing, so callers never
// have to guard the call site.
type EventPublisher struct {
	pub       mq.Publisher
	logger    *slog.Logger
	published *prometheus.CounterVec
}

// NewEventPublisher creates an EventPublisher on top of pub. The published
// counter is optional; it records one sample per publish attempt, labeled
// with the log action and the outcome.
func NewEventPublisher(pub mq.Publisher, logger *slog.Logger, published *prometheus.CounterVec) *EventPublisher {
	return &EventPublisher{pub: pub, logger: logger, published: published}
}

func (p *EventPublisher) countPublish(action LogAction, status string) {
	if p.published == nil {
		return
	}
	p.published.WithLabelValues(string(action), status).Inc()
}

// PublishLog emits the event for one audit entry. Publishing is best-effort:
// the entry is already committed, so failures are logged and swallowed rather
// than surfaced to the caller.
func (p *EventPublisher) PublishLog(ctx context.Context, entry *GatewayLog) {
	if p == nil || p.pub == nil || entry == nil {
		return
	}

	event := GatewayEvent{
		GatewayID:  entry.GatewayID,
		Action:     entry.Action,
		Details:    json.RawMessage(entry.Details),
		OccurredAt: entry.CreatedAt,
	}
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal gateway event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.pub.Push(ctx, body); err != nil {
		p.countPublish(entry.Action, "error")
		p.logger.Error("failed to publish gateway event",
			"gateway_id", entry.GatewayID,
			"action", entry.Action,
			"error", err,
		)
		return
	}
	p.countPublish(entry.Action, "success")
	p.logger.Debug("gateway event published",
		"gateway_id", entry.GatewayID,
		"action", entry.Action,
	)
}

// Close shuts the underlying publisher down.
func (p *EventPublisher) Close() error {
	if p == nil || p.pub == nil {
		return nil
	}
	return p.pub.Close()
}
