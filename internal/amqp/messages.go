package amqp

import (
	"encoding/json"
	"time"
)

// TransactionCreatedMessage notifies downstream consumers that a single
// transaction was persisted. Consumers fetch the full record from storage.
type TransactionCreatedMessage struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionCreatedMessage(id, kind string, amountCents int64) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		ID:          id,
		Kind:        kind,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportCompletedMessage notifies downstream consumers that a bulk import
// finished and how many transactions it produced.
type ImportCompletedMessage struct {
	File      string    `json:"file"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewImportCompletedMessage(file string, count int) *ImportCompletedMessage {
	return &ImportCompletedMessage{
		File:      file,
		Count:     count,
		Timestamp: time.Now(),
	}
}

func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
