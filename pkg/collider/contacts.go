// pkg/collider/contacts.go
package collider

import "sort"

// Transition is the change in contact state produced by a touch.
type Transition int

const (
	// NoTransition means the pair was already recorded this step.
	NoTransition Transition = iota
	Started
	Persisted
)

// String returns the name of the transition
func (t Transition) String() string {
	switch t {
	case Started:
		return "started"
	case Persisted:
		return "persisted"
	default:
		return "none"
	}
}

// Contacts tracks which entities a collider touches this step and touched
// last step, plus the once-per-step processed flag.
type Contacts struct {
	now       map[uint64]struct{}
	prev      map[uint64]struct{}
	processed bool
}

// Touch records contact with id for the current step.
func (c *Contacts) Touch(id uint64) Transition {
	if c.now == nil {
		c.now = make(map[uint64]struct{})
	}
	if _, ok := c.now[id]; ok {
		return NoTransition
	}
	c.now[id] = struct{}{}

	if _, ok := c.prev[id]; ok {
		return Persisted
	}
	return Started
}

// Touching reports whether id was touched this step.
func (c *Contacts) Touching(id uint64) bool {
	_, ok := c.now[id]
	return ok
}

// WasTouching reports whether id was touched last step.
func (c *Contacts) WasTouching(id uint64) bool {
	_, ok := c.prev[id]
	return ok
}

// Count returns the number of entities touched this step.
func (c *Contacts) Count() int {
	return len(c.now)
}

// Ended returns the ids touched last step but not this step, in ascending
// order.
func (c *Contacts) Ended() []uint64 {
	var ended []uint64
	for id := range c.prev {
		if _, ok := c.now[id]; !ok {
			ended = append(ended, id)
		}
	}
	sort.Slice(ended, func(i, j int) bool { return ended[i] < ended[j] })
	return ended
}

// Rotate ends the step: the current set becomes the previous one and the
// processed flag is cleared.
func (c *Contacts) Rotate() {
	c.prev = c.now
	c.now = nil
	c.processed = false
}

// Processed reports whether the collider was handled this step.
func (c *Contacts) Processed() bool {
	return c.processed
}

// MarkProcessed flags the collider as handled for this step.
func (c *Contacts) MarkProcessed() {
	c.processed = true
}

// Reset forgets all contact state.
func (c *Contacts) Reset() {
	c.now = nil
	c.prev = nil
	c.processed = false
}
