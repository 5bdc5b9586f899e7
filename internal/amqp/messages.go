package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// TransactionEventMessage announces that one owner's transaction set
// changed. It carries only identifiers; consumers re-query the store
// for the fresh snapshot instead of trusting a serialized record.
type TransactionEventMessage struct {
	OwnerID       int64     `json:"owner_id"`
	TransactionID string    `json:"transaction_id"`
	Op            string    `json:"op"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEventMessage creates an event for one mutation.
func NewTransactionEventMessage(ownerID int64, transactionID, op string) *TransactionEventMessage {
	return &TransactionEventMessage{
		OwnerID:       ownerID,
		TransactionID: transactionID,
		Op:            op,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
