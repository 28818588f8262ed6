package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownType is returned when decoding an event type with no factory.
var ErrUnknownType = errors.New("unknown event type")

// EventFactory creates a new zero-value event of a specific type.
type EventFactory func() Event

// Registry decodes persisted events back into their concrete types.
type Registry struct {
	factories map[string]EventFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]EventFactory),
	}
}

// Register adds an event type to the registry.
func (r *Registry) Register(eventType string, factory EventFactory) {
	r.factories[eventType] = factory
}

// Types returns the registered event types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Unmarshal decodes a raw event into its concrete type.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	factory, ok := r.factories[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, raw.EventType)
	}

	event := factory()
	if err := json.Unmarshal([]byte(raw.Payload), event); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", raw.EventType, err)
	}
	return event, nil
}

// DefaultRegistry knows every event the pipeline publishes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(EventBatchStarted, func() Event { return &BatchStarted{} })
	r.Register(EventImageCompressed, func() Event { return &ImageCompressed{} })
	r.Register(EventImageFailed, func() Event { return &ImageFailed{} })
	return r
}
