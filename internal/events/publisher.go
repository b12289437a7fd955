// Package events publishes order lifecycle notifications to a message
// broker so downstream consumers (bot notifications, analytics) can react
// without being in the request path.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Jame-iro/agrolink-backend/internal/model"
)

const ExchangeName = "agrolink.orders"

type Publisher interface {
	OrderCreated(ctx context.Context, o *model.Order) error
	OrderStatusChanged(ctx context.Context, o *model.Order, prev model.OrderStatus) error
}

type orderEvent struct {
	OrderID        string            `json:"orderId"`
	ConsumerID     string            `json:"consumerId"`
	FarmerID       string            `json:"farmerId"`
	Status         model.OrderStatus `json:"status"`
	PreviousStatus model.OrderStatus `json:"previousStatus,omitempty"`
	TotalAmount    float64           `json:"totalAmount"`
	OccurredAt     time.Time         `json:"occurredAt"`
}

type rabbitPublisher struct {
	ch *amqp.Channel
}

// NewRabbit declares the topic exchange and returns a publisher bound to it.
func NewRabbit(ch *amqp.Channel) (Publisher, error) {
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &rabbitPublisher{ch: ch}, nil
}

func (p *rabbitPublisher) OrderCreated(ctx context.Context, o *model.Order) error {
	return p.publish(ctx, "order.created", o, "")
}

func (p *rabbitPublisher) OrderStatusChanged(ctx context.Context, o *model.Order, prev model.OrderStatus) error {
	return p.publish(ctx, "order.status."+string(o.Status), o, prev)
}

func (p *rabbitPublisher) publish(ctx context.Context, routingKey string, o *model.Order, prev model.OrderStatus) error {
	body, err := json.Marshal(orderEvent{
		OrderID:        o.ID.Hex(),
		ConsumerID:     o.ConsumerID.Hex(),
		FarmerID:       o.FarmerID.Hex(),
		Status:         o.Status,
		PreviousStatus: prev,
		TotalAmount:    o.TotalAmount,
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   uuid.NewString(),
			Timestamp:   time.Now().UTC(),
			Body:        body,
		},
	)
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) OrderCreated(context.Context, *model.Order) error { return nil }

func (Noop) OrderStatusChanged(context.Context, *model.Order, model.OrderStatus) error {
	return nil
}
