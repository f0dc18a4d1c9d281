package amqp

import (
	"encoding/json"
	"time"
)

const (
	MessageTypeSync   = "record.sync"
	MessageTypeDelete = "record.delete"
)

// Envelope wraps every queue message with its type so a single queue can
// carry both sync and delete traffic.
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// RecordSyncMessage asks the worker to mirror one ledger record. Only the
// id travels; the worker fetches the current row from the database.
type RecordSyncMessage struct {
	ID int64 `json:"id"`
}

// RecordDeleteMessage carries the full row content because the record is
// already gone from the database by the time the worker sees it. The
// worker matches the spreadsheet row on these fields.
type RecordDeleteMessage struct {
	ID         int64     `json:"id"`
	Date       time.Time `json:"date"`
	AmountCent int64     `json:"amount_cents"`
	Note       string    `json:"note"`
	Category   string    `json:"category"`
}

func wrap(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   raw,
	})
}

// EnvelopeFromJSON decodes the outer envelope, leaving the payload raw.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
