package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/mmdatafocus/stock_ledger/utils"
	"github.com/sirupsen/logrus"
)

type EventKind string

const (
	EventStockMoved         EventKind = "stock.moved"
	EventTransactionEdited  EventKind = "stock.recomputed"
	EventTransactionRemoved EventKind = "stock.reversed"
	EventOrderCreated       EventKind = "order.created"
	EventOrderCompleted     EventKind = "order.completed"
	EventOrderCancelled     EventKind = "order.cancelled"
)

// StockEvent is published after a committed mutation.
type StockEvent struct {
	Kind          EventKind `json:"kind"`
	ReferenceId   string    `json:"reference_id"`
	ProductIds    []string  `json:"product_ids"`
	CorrelationId string    `json:"correlation_id,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event StockEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, event StockEvent) error { return nil }

// PubSubPublisher sends events as JSON to a Google Pub/Sub topic.
type PubSubPublisher struct {
	Topic string
}

func (p PubSubPublisher) Publish(ctx context.Context, event StockEvent) error {
	data, err := utils.MarshalToJSON(event)
	if err != nil {
		return err
	}
	_, err = config.PublishWithResult(ctx, p.Topic, data, map[string]string{
		"kind":         string(event.Kind),
		"reference_id": event.ReferenceId,
	})
	return err
}

var (
	publisherMu sync.RWMutex
	publisher   Publisher = noopPublisher{}
)

// SetPublisher replaces the event sink; nil restores the no-op publisher.
func SetPublisher(p Publisher) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	publisher = p
}

func getPublisher() Publisher {
	publisherMu.RLock()
	defer publisherMu.RUnlock()
	return publisher
}

// publishEvent never fails the caller: the mutation is already committed.
func publishEvent(ctx context.Context, kind EventKind, referenceId string, productIds []string) {
	event := StockEvent{
		Kind:        kind,
		ReferenceId: referenceId,
		ProductIds:  utils.UniqueSlice(productIds),
		OccurredAt:  time.Now().UTC(),
	}
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		event.CorrelationId = correlationId
	}
	if actor, ok := utils.GetActorNameFromContext(ctx); ok {
		event.Actor = actor
	}
	if err := getPublisher().Publish(ctx, event); err != nil {
		config.LogError(config.GetLogger(), "events.go", "publishEvent", string(kind), event, err)
		return
	}
	config.GetLogger().WithFields(logrus.Fields{
		"kind":           kind,
		"reference_id":   referenceId,
		"correlation_id": event.CorrelationId,
	}).Debug("stock event published")
}

