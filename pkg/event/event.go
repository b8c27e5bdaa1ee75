// pkg/event/event.go
package event

import (
	"sync"
	"time"

	"github.com/opd-ai/betaframework/pkg/entity"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	CollisionStarted   Type = "collision_started"
	CollisionPersisted Type = "collision_persisted"
	CollisionEnded     Type = "collision_ended"
	MapCollision       Type = "map_collision"
	EntityAdded        Type = "entity_added"
	EntityDestroyed    Type = "entity_destroyed"
	StepClamped        Type = "step_clamped"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// Targeted is implemented by events addressed to one entity. They are also
// delivered to that entity's subscriptions.
type Targeted interface {
	TargetID() uint64
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription is returned by Subscribe; Cancel removes the handler.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type handlerEntry struct {
	id      uint64
	handler Handler
}

type entityKey struct {
	entity    uint64
	eventType Type
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers       map[Type][]handlerEntry
	entityHandlers map[entityKey][]handlerEntry
	nextID         uint64
	mu             sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers:       make(map[Type][]handlerEntry),
		entityHandlers: make(map[entityKey][]handlerEntry),
		nextID:         1,
	}
}

// Subscribe registers a handler for every event of a type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], handlerEntry{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.Unsubscribe(id) },
	}
}

// SubscribeEntity registers a handler for events of a type targeted at one
// entity.
func (b *Bus) SubscribeEntity(entityID uint64, eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	key := entityKey{entity: entityID, eventType: eventType}
	b.entityHandlers[key] = append(b.entityHandlers[key], handlerEntry{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.Unsubscribe(id) },
	}
}

// Unsubscribe removes the subscription with the given id. Unknown ids are
// ignored.
func (b *Bus) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, entries := range b.handlers {
		if filtered, ok := without(entries, id); ok {
			b.handlers[eventType] = filtered
			return
		}
	}
	for key, entries := range b.entityHandlers {
		if filtered, ok := without(entries, id); ok {
			if len(filtered) == 0 {
				delete(b.entityHandlers, key)
			} else {
				b.entityHandlers[key] = filtered
			}
			return
		}
	}
}

// UnsubscribeEntity drops every subscription targeted at an entity.
func (b *Bus) UnsubscribeEntity(entityID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key := range b.entityHandlers {
		if key.entity == entityID {
			delete(b.entityHandlers, key)
		}
	}
}

func without(entries []handlerEntry, id uint64) ([]handlerEntry, bool) {
	for i, entry := range entries {
		if entry.id == id {
			out := make([]handlerEntry, 0, len(entries)-1)
			out = append(out, entries[:i]...)
			return append(out, entries[i+1:]...), true
		}
	}
	return entries, false
}

// Publish sends an event to all subscribed handlers. Targeted events also
// reach the target's subscriptions, after the global ones.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.GetType()]
	var targeted []handlerEntry
	if t, ok := event.(Targeted); ok {
		targeted = b.entityHandlers[entityKey{entity: t.TargetID(), eventType: event.GetType()}]
	}
	b.mu.RUnlock()

	for _, entry := range handlers {
		entry.handler(event)
	}
	for _, entry := range targeted {
		entry.handler(event)
	}
}

// HandlerCount returns the number of global handlers for a type
func (b *Bus) HandlerCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Specific event implementations

// CollisionEvent is delivered once to each entity of a colliding pair.
type CollisionEvent struct {
	BaseEvent
	Target *entity.Entity
	Other  *entity.Entity
}

// NewCollisionEvent creates a collision event addressed to target
func NewCollisionEvent(eventType Type, source interface{}, target, other *entity.Entity) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Target: target,
		Other:  other,
	}
}

// TargetID returns the id of the receiving entity
func (e *CollisionEvent) TargetID() uint64 {
	return e.Target.ID()
}

// MapCollisionEvent reports which sides of target hit solid tiles of a
// tilemap.
type MapCollisionEvent struct {
	BaseEvent
	Target *entity.Entity
	Map    *entity.Entity
	Bottom bool
	Top    bool
	Left   bool
	Right  bool
}

// NewMapCollisionEvent creates a map collision event addressed to target
func NewMapCollisionEvent(source interface{}, target, tilemap *entity.Entity, bottom, top, left, right bool) *MapCollisionEvent {
	return &MapCollisionEvent{
		BaseEvent: BaseEvent{
			EventType: MapCollision,
			Source:    source,
		},
		Target: target,
		Map:    tilemap,
		Bottom: bottom,
		Top:    top,
		Left:   left,
		Right:  right,
	}
}

// TargetID returns the id of the receiving entity
func (e *MapCollisionEvent) TargetID() uint64 {
	return e.Target.ID()
}

// EntityEvent reports an entity lifecycle change
type EntityEvent struct {
	BaseEvent
	Entity *entity.Entity
}

// NewEntityEvent creates an entity lifecycle event
func NewEntityEvent(eventType Type, source interface{}, e *entity.Entity) *EntityEvent {
	return &EntityEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Entity: e,
	}
}

// TargetID returns the id of the entity
func (e *EntityEvent) TargetID() uint64 {
	return e.Entity.ID()
}

// StepClampedEvent reports simulation time dropped by the step limit
type StepClampedEvent struct {
	BaseEvent
	Steps   int
	Dropped time.Duration
}

// NewStepClampedEvent creates a step clamp event
func NewStepClampedEvent(source interface{}, steps int, dropped time.Duration) *StepClampedEvent {
	return &StepClampedEvent{
		BaseEvent: BaseEvent{
			EventType: StepClamped,
			Source:    source,
		},
		Steps:   steps,
		Dropped: dropped,
	}
}
