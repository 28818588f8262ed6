// Package events carries pipeline progress as typed events over an
// in-process bus, with optional SQLite persistence.
package events

import "time"

// Event is implemented by every published event.
type Event interface {
	EventType() string
	EntityType() string // EntityBatch or EntityImage
	EntityID() int64
	OccurredAt() time.Time
}

// Batched is an event that belongs to one dispatch batch.
type Batched interface {
	Event
	Batch() string
}

// BaseEvent is the header embedded in every event.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        int64     `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() int64       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent creates a header stamped with the current UTC time.
func NewBaseEvent(eventType, entityType string, entityID int64) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Entity:    entityType,
		ID:        entityID,
		Timestamp: time.Now().UTC(),
	}
}

// NewBatchEvent creates the header for an event about a whole batch.
func NewBatchEvent(eventType string) BaseEvent {
	return NewBaseEvent(eventType, EntityBatch, 0)
}

// NewImageEvent creates the header for an event about the task at index.
func NewImageEvent(eventType string, index int) BaseEvent {
	return NewBaseEvent(eventType, EntityImage, int64(index))
}
