package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// EventKind names what happened to a transaction.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionUpdated EventKind = "transaction.updated"
	TransactionDeleted EventKind = "transaction.deleted"
)

// Source tells consumers who produced a transaction.
type Source string

const (
	SourceAPI       Source = "API"
	SourceRecurring Source = "RECURRING"
)

// TransactionEvent is a lightweight notification carrying only ids.
// Consumers fetch the current transaction from the store.
type TransactionEvent struct {
	MessageID     string    `json:"messageId"`
	Kind          EventKind `json:"kind"`
	TransactionID int64     `json:"transactionId"`
	OwnerID       int64     `json:"ownerId"`
	Source        Source    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event with a fresh message id.
func NewTransactionEvent(kind EventKind, t core.Transaction, source Source) *TransactionEvent {
	return &TransactionEvent{
		MessageID:     uuid.NewString(),
		Kind:          kind,
		TransactionID: t.ID,
		OwnerID:       t.OwnerID,
		Source:        source,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Kind {
	case TransactionCreated, TransactionUpdated, TransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if ev.TransactionID <= 0 {
		return nil, fmt.Errorf("event %s has no transaction id", ev.MessageID)
	}
	return &ev, nil
}
