package stream

import (
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
)

const (
	// EventTypeConnected is the first frame pushed on every new subscription.
	EventTypeConnected = "connected"
	// EventTypeStatusUpdate carries an order status change.
	EventTypeStatusUpdate = "status_update"
)

// ConnectedEvent acknowledges a newly established stream.
type ConnectedEvent struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
}

// NewConnectedEvent builds the handshake frame for the user.
func NewConnectedEvent(userID int64) ConnectedEvent {
	return ConnectedEvent{Type: EventTypeConnected, UserID: userID}
}

// StatusEvent is the wire shape for order status pushes.
type StatusEvent struct {
	Type      string            `json:"type"`
	OrderID   int64             `json:"order_id"`
	Status    enums.OrderStatus `json:"status"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewStatusEvent builds a status frame stamped with the provided time.
func NewStatusEvent(orderID int64, status enums.OrderStatus, message string, at time.Time) StatusEvent {
	return StatusEvent{
		Type:      EventTypeStatusUpdate,
		OrderID:   orderID,
		Status:    status,
		Message:   message,
		Timestamp: at.UTC(),
	}
}
