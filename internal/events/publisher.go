package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"kickshop/internal/domain"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CheckoutEvent is the wire payload published after a checkout commits.
type CheckoutEvent struct {
	TransactionID string              `json:"transaction_id"`
	CustomerName  string              `json:"customer_name"`
	TotalAmount   float64             `json:"total_amount"`
	Items         []CheckoutEventItem `json:"items"`
	CommittedAt   time.Time           `json:"committed_at"`
}

type CheckoutEventItem struct {
	ProductID string  `json:"product_id"`
	Qty       int     `json:"qty"`
	Subtotal  float64 `json:"subtotal"`
}

// Publisher emits checkout events to Kafka. Publishing is best effort: the
// checkout has already committed when PublishCheckout runs, so failures are
// logged and swallowed. A Publisher built with no brokers is disabled and
// drops every event.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Publisher from a comma-separated broker list. An
// empty list yields a disabled publisher.
func NewPublisher(brokersCSV, topic string, logger *zap.Logger) *Publisher {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	p := &Publisher{logger: logger}
	if len(brokers) == 0 {
		return p
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return p
}

// Enabled reports whether events will actually be written.
func (p *Publisher) Enabled() bool {
	return p != nil && p.writer != nil
}

// PublishCheckout emits one event for a committed transaction, keyed by
// transaction id.
func (p *Publisher) PublishCheckout(ctx context.Context, transaction *domain.Transaction) {
	if !p.Enabled() {
		return
	}

	event := CheckoutEvent{
		TransactionID: transaction.ID.String(),
		CustomerName:  transaction.CustomerName,
		TotalAmount:   transaction.TotalAmount,
		CommittedAt:   transaction.CreatedAt,
	}
	for _, item := range transaction.Items {
		event.Items = append(event.Items, CheckoutEventItem{
			ProductID: item.ProductID.String(),
			Qty:       item.Qty,
			Subtotal:  item.Subtotal,
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode checkout event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.TransactionID),
		Value: payload,
		Time:  time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish checkout event",
			zap.Error(err),
			zap.String("transaction_id", event.TransactionID),
		)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}
