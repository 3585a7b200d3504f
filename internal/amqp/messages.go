package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventEntryCreated   = "entry.created"
	EventEntriesDeleted = "entries.deleted"
)

// EntryEvent announces a ledger change. It carries only ids; consumers
// reload whatever else they need from the store.
type EntryEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	Type      string    `json:"type"`
	IDs       []int64   `json:"ids"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryCreatedEvent(id int64) *EntryEvent {
	return newEvent(EventEntryCreated, []int64{id})
}

func NewEntriesDeletedEvent(ids []int64) *EntryEvent {
	return newEvent(EventEntriesDeleted, ids)
}

func newEvent(eventType string, ids []int64) *EntryEvent {
	return &EntryEvent{
		EventID:   uuid.New(),
		Type:      eventType,
		IDs:       ids,
		Timestamp: time.Now().UTC(),
	}
}

func (e *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryEventFromJSON decodes and validates an event body.
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var e EntryEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type != EventEntryCreated && e.Type != EventEntriesDeleted {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if len(e.IDs) == 0 {
		return nil, fmt.Errorf("event %s carries no ids", e.EventID)
	}
	return &e, nil
}
