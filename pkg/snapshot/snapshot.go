// Package snapshot captures the state of a world after a step and streams
// captures as msgpack for replay and offline inspection.
package snapshot

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/opd-ai/betaframework/pkg/engine"
	"github.com/opd-ai/betaframework/pkg/physics"
)

// Body is the captured state of one entity
type Body struct {
	ID       uint64  `msgpack:"id"`
	Name     string  `msgpack:"n"`
	Shape    string  `msgpack:"k,omitempty"`
	X        float64 `msgpack:"x"`
	Y        float64 `msgpack:"y"`
	VX       float64 `msgpack:"vx,omitempty"`
	VY       float64 `msgpack:"vy,omitempty"`
	Rotation float64 `msgpack:"r,omitempty"`
	Active   bool    `msgpack:"a"`
	Contacts int     `msgpack:"c,omitempty"`
}

// Position returns the captured translation
func (b Body) Position() physics.Vector2D {
	return physics.Vector2D{X: b.X, Y: b.Y}
}

// Velocity returns the captured velocity
func (b Body) Velocity() physics.Vector2D {
	return physics.Vector2D{X: b.VX, Y: b.VY}
}

// Frame is the world state after a number of fixed steps
type Frame struct {
	World  string  `msgpack:"w"`
	Step   uint64  `msgpack:"s"`
	Time   float64 `msgpack:"t"`
	Bodies []Body  `msgpack:"b"`
}

// Body returns the first captured body called name.
func (f *Frame) Body(name string) (Body, bool) {
	for _, b := range f.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return Body{}, false
}

// Capture records every live entity of m in insertion order.
func Capture(m *engine.Manager) Frame {
	stats := m.GetStats()
	entities := m.Entities()

	f := Frame{
		World:  m.Config().Name,
		Step:   stats.Steps,
		Time:   float64(stats.Steps) * m.FixedStep(),
		Bodies: make([]Body, 0, len(entities)),
	}
	for _, e := range entities {
		t := e.Transform()
		b := Body{
			ID:       e.ID(),
			Name:     e.Name(),
			X:        t.Translation().X,
			Y:        t.Translation().Y,
			Rotation: t.Rotation(),
			Active:   e.Active(),
		}
		v := e.Velocity()
		b.VX, b.VY = v.X, v.Y
		if c := e.Collider(); c != nil {
			b.Shape = c.Kind().String()
			b.Contacts = c.Contacts().Count()
		}
		f.Bodies = append(f.Bodies, b)
	}
	return f
}

// Apply moves the entities of m to the state captured in f, matching them
// by name. It returns how many entities were restored.
func Apply(m *engine.Manager, f Frame) int {
	restored := 0
	for _, b := range f.Bodies {
		e := m.FindByName(b.Name)
		if e == nil {
			continue
		}
		e.SetTranslation(b.Position())
		e.Transform().SetRotation(b.Rotation)
		e.SetVelocity(b.Velocity())
		e.SetActive(b.Active)
		restored++
	}
	return restored
}

// Recorder writes frames to a msgpack stream
type Recorder struct {
	enc    *msgpack.Encoder
	frames int
}

// NewRecorder creates a recorder writing to w
func NewRecorder(w io.Writer) *Recorder {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	return &Recorder{enc: enc}
}

// Record appends f to the stream
func (r *Recorder) Record(f Frame) error {
	if err := r.enc.Encode(&f); err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", f.Step, err)
	}
	r.frames++
	return nil
}

// Frames returns the number of frames written
func (r *Recorder) Frames() int {
	return r.frames
}

// Reader reads frames back from a msgpack stream
type Reader struct {
	dec *msgpack.Decoder
}

// NewReader creates a reader over r
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: msgpack.NewDecoder(r)}
}

// Next returns the next frame, or io.EOF once the stream is exhausted.
func (r *Reader) Next() (Frame, error) {
	var f Frame
	if err := r.dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	return f, nil
}

// ReadAll reads every frame of the stream
func ReadAll(r io.Reader) ([]Frame, error) {
	reader := NewReader(r)
	var frames []Frame
	for {
		f, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}
