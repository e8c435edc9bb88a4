package amqp

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"contas/internal/core"
)

// SnapshotMessage announces that a household's monthly snapshot was stored.
// It carries only the key; the consumer reads the snapshot from storage.
type SnapshotMessage struct {
	HouseholdID string    `json:"householdId"`
	YearMonth   string    `json:"yearMonth"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewSnapshotMessage creates a message for householdID and ym.
func NewSnapshotMessage(householdID string, ym core.YearMonth) *SnapshotMessage {
	return &SnapshotMessage{
		HouseholdID: householdID,
		YearMonth:   ym.String(),
		Timestamp:   time.Now().UTC(),
	}
}

// Period returns the snapshot's calendar month.
func (m *SnapshotMessage) Period() (core.YearMonth, error) {
	return core.ParseYearMonth(m.YearMonth)
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotMessageFromJSON decodes and checks a message body.
func SnapshotMessageFromJSON(data []byte) (*SnapshotMessage, error) {
	var msg SnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.HouseholdID == "" {
		return nil, errors.New("missing householdId")
	}
	if _, err := msg.Period(); err != nil {
		return nil, fmt.Errorf("invalid yearMonth: %w", err)
	}
	return &msg, nil
}
