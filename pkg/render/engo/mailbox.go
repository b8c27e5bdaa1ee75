// pkg/render/engo/mailbox.go
package engo

import (
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/betaframework/pkg/engine"
	"github.com/opd-ai/betaframework/pkg/event"
)

// CollisionMessageType is the engo message type of CollisionMessage
const CollisionMessageType = "CollisionMessage"

// CollisionMessage relays one physics collision event to engo listeners.
type CollisionMessage struct {
	Event    event.Type
	EntityID uint64
	Entity   string
	OtherID  uint64
	Other    string
}

// Type implements engo.Message.
func (CollisionMessage) Type() string {
	return CollisionMessageType
}

// Bridge forwards collision events from the physics bus to an engo mailbox.
type Bridge struct {
	subs []*event.Subscription
}

// NewBridge subscribes to the collision events of m and dispatches them on
// mailbox as CollisionMessage values.
func NewBridge(m *engine.Manager, mailbox *engo.MessageManager) *Bridge {
	b := &Bridge{}
	relay := func(ev event.Event) {
		switch e := ev.(type) {
		case *event.CollisionEvent:
			mailbox.Dispatch(CollisionMessage{
				Event:    e.GetType(),
				EntityID: e.Target.ID(),
				Entity:   e.Target.Name(),
				OtherID:  e.Other.ID(),
				Other:    e.Other.Name(),
			})
		case *event.MapCollisionEvent:
			mailbox.Dispatch(CollisionMessage{
				Event:    e.GetType(),
				EntityID: e.Target.ID(),
				Entity:   e.Target.Name(),
				OtherID:  e.Map.ID(),
				Other:    e.Map.Name(),
			})
		}
	}
	for _, t := range []event.Type{event.CollisionStarted, event.CollisionEnded, event.MapCollision} {
		b.subs = append(b.subs, m.Bus().Subscribe(t, relay))
	}
	return b
}

// Close stops forwarding
func (b *Bridge) Close() {
	for _, s := range b.subs {
		s.Cancel()
	}
	b.subs = nil
}
