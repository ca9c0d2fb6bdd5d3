package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/cart"
)

const (
	CartCheckedOutEventName           = "CartCheckedOut"
	CartCheckedOutEventVersion        = 1
	CartCheckedOutEnvelopedSchemaPath = "contracts/events/cart/CartCheckedOut.v1.enveloped.schema.json"
	CartStateProducer                 = "cart-state"
)

type EventEnvelope struct {
	EventName    string                `json:"eventName"`
	EventVersion int                   `json:"eventVersion"`
	EventID      string                `json:"eventId"`
	Producer     string                `json:"producer"`
	PartitionKey string                `json:"partitionKey"`
	Sequence     int64                 `json:"sequence"`
	OccurredAt   time.Time             `json:"occurredAt"`
	Schema       string                `json:"schema"`
	Payload      CartCheckedOutPayload `json:"payload"`
}

type CartCheckedOutPayload struct {
	OrderID   int64                `json:"orderId"`
	SessionID string               `json:"sessionId"`
	Items     []CartCheckedOutItem `json:"items"`
	Details   map[string]any       `json:"details"`
}

type CartCheckedOutItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type EnvelopeOptions struct {
	SessionID  string
	Sequence   int64
	Producer   string
	EventID    string
	OccurredAt time.Time
}

func BuildCartCheckedOutEvent(o cart.Order, opts EnvelopeOptions) EventEnvelope {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	producer := opts.Producer
	if producer == "" {
		producer = CartStateProducer
	}

	payload := CartCheckedOutPayload{
		OrderID:   o.ID,
		SessionID: opts.SessionID,
		Items:     make([]CartCheckedOutItem, 0, len(o.Items)),
		Details:   map[string]any(o.Details),
	}
	for _, it := range o.Items {
		payload.Items = append(payload.Items, CartCheckedOutItem{ID: it.ID, Quantity: it.Quantity})
	}

	return EventEnvelope{
		EventName:    CartCheckedOutEventName,
		EventVersion: CartCheckedOutEventVersion,
		EventID:      eventID,
		Producer:     producer,
		PartitionKey: opts.SessionID,
		Sequence:     opts.Sequence,
		OccurredAt:   occurredAt,
		Schema:       CartCheckedOutEnvelopedSchemaPath,
		Payload:      payload,
	}
}
