package mykafka

import (
	"encoding/json"
	"time"
)

const (
	TopicOrderEvents   = "order_events"
	TopicProductEvents = "product_events"
	TopicUserEvents    = "user_events"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderCancelled     = "order_cancelled"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderShipped       = "order_shipped"

	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"

	EventUserRegistered = "user_registered"
	EventUserLoggedIn   = "user_logged_in"
)

// Envelope wraps every published event so consumers can dispatch on type
// without decoding the payload first.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}
