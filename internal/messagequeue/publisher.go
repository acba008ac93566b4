package messagequeue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"sellervault-backend-go/internal/models"
)

// DefaultQueue carries seller approval events.
const DefaultQueue = "seller.approved"

// EventPublisher publishes seller approval events to a queue.
type EventPublisher struct {
	mq     MessageQueue
	queue  string
	logger *zap.Logger
}

// NewEventPublisher creates an EventPublisher. An empty queue selects DefaultQueue.
func NewEventPublisher(mq MessageQueue, queue string, logger *zap.Logger) *EventPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &EventPublisher{mq: mq, queue: queue, logger: logger}
}

func (p *EventPublisher) PublishSellerApproved(ctx context.Context, event models.SellerApprovedEvent) error {
	if event.Type == "" {
		event.Type = models.SellerApprovedEventType
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode seller approved event: %w", err)
	}
	if err := p.mq.Publish(ctx, p.queue, body); err != nil {
		return err
	}
	p.logger.Info("Seller approved event published", zap.String("memberId", event.MemberID), zap.String("queue", p.queue))
	return nil
}

// NoopPublisher drops events. It is used when no broker is configured.
type NoopPublisher struct {
	logger *zap.Logger
}

// NewNoopPublisher creates a NoopPublisher.
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) PublishSellerApproved(ctx context.Context, event models.SellerApprovedEvent) error {
	p.logger.Debug("No broker configured, dropping seller approved event", zap.String("memberId", event.MemberID))
	return nil
}

// DecodeSellerApproved parses a queued event and checks it is addressable.
func DecodeSellerApproved(body []byte) (models.SellerApprovedEvent, error) {
	var event models.SellerApprovedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("decode seller approved event: %w", err)
	}
	if event.Type != models.SellerApprovedEventType {
		return event, fmt.Errorf("unexpected event type %q", event.Type)
	}
	if event.MemberID == "" || event.Email == "" {
		return event, fmt.Errorf("seller approved event is missing member id or email")
	}
	return event, nil
}
