package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventAction names what happened to a transaction.
type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

// TransactionEvent is a lightweight notification about a transaction change.
// Consumers fetch the current row from the database when they need more.
type TransactionEvent struct {
	TransactionID int64       `json:"transaction_id"`
	UserID        int64       `json:"user_id"`
	Action        EventAction `json:"action"`
	RequestID     string      `json:"request_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewTransactionEvent stamps an event with the current time.
func NewTransactionEvent(action EventAction, transactionID, userID int64) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: transactionID,
		UserID:        userID,
		Action:        action,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and checks an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	if msg.TransactionID <= 0 {
		return nil, fmt.Errorf("missing transaction id")
	}
	return &msg, nil
}
