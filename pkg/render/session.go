// pkg/render/session.go
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/betaframework/pkg/engine"
	"github.com/opd-ai/betaframework/pkg/logging"
	"github.com/opd-ai/betaframework/pkg/physics"
)

// panStep is how many cells an arrow key pans the view
const panStep = 4

// TerminalSession runs a world on a tcell screen: it steps the manager,
// draws the debug view and handles keys.
type TerminalSession struct {
	screen   tcell.Screen
	manager  *engine.Manager
	renderer *TerminalRenderer
	logger   *logging.Logger
	follow   string

	Controls *Controls
}

// NewTerminalSession creates a session on an initialised screen. follow
// names the entity kept in the middle of the view and may be empty.
func NewTerminalSession(screen tcell.Screen, m *engine.Manager, logger *logging.Logger, scale float64, follow string) *TerminalSession {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	w, h := screen.Size()
	return &TerminalSession{
		screen:   screen,
		manager:  m,
		renderer: NewTerminalRenderer(w, h, scale),
		logger:   logger.Component("terminal"),
		follow:   follow,
		Controls: NewControls(m),
	}
}

// Renderer returns the session's character buffer
func (s *TerminalSession) Renderer() *TerminalRenderer {
	return s.renderer
}

// HandleEvent applies one screen event. It returns false when the user
// asked to quit.
func (s *TerminalSession) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return s.handleKey(ev)
	case *tcell.EventResize:
		w, h := ev.Size()
		s.renderer.Resize(w, h)
		s.screen.Sync()
	}
	return true
}

func (s *TerminalSession) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		s.pan(0, panStep)
	case tcell.KeyDown:
		s.pan(0, -panStep)
	case tcell.KeyLeft:
		s.pan(-panStep, 0)
	case tcell.KeyRight:
		s.pan(panStep, 0)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ', 'p':
			s.Controls.Apply(ActionPause)
		case 'n':
			s.Controls.Apply(ActionStep)
		case 'c':
			s.Controls.Apply(ActionToggleColliders)
		case 'g':
			s.Controls.Apply(ActionToggleQuadtree)
		case 'b':
			s.Controls.Apply(ActionToggleBroadPhase)
		case '+', '=':
			s.renderer.SetScale(s.renderer.Scale() / 1.25)
		case '-':
			s.renderer.SetScale(s.renderer.Scale() * 1.25)
		}
	}
	return true
}

func (s *TerminalSession) pan(dx, dy float64) {
	s.follow = ""
	scale := s.renderer.Scale()
	s.renderer.SetCenter(s.renderer.centerPos.Add(physics.Vector2D{X: dx * scale, Y: dy * scale}))
}

// Frame advances the world by dt seconds and redraws the screen.
func (s *TerminalSession) Frame(dt float64) {
	s.Controls.Advance(s.manager, dt)
	if s.follow != "" {
		if e := s.manager.FindByName(s.follow); e != nil {
			s.renderer.SetCenter(e.Translation())
		}
	}

	s.renderer.DrawWorld(s.manager, s.Controls)
	s.renderer.Text(0, 0, s.status())
	s.renderer.Present(s.screen)
}

func (s *TerminalSession) status() string {
	stats := s.manager.GetStats()
	broad := "brute"
	if s.Controls.UseQuadtree {
		broad = "quadtree"
	}
	state := "running"
	if s.Controls.Paused {
		state = "paused"
	}
	return fmt.Sprintf(" %s | %s | entities %d | steps %d | %s ",
		s.manager.Config().Name, state, stats.Entities, stats.Steps, broad)
}

// pollEvents forwards screen events until the screen is finalised or done
// is closed.
func (s *TerminalSession) pollEvents(events chan<- tcell.Event, done <-chan struct{}) {
	defer close(events)
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// Run draws frames at fps until ctx is cancelled or the user quits.
func (s *TerminalSession) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 60
	}
	interval := time.Second / time.Duration(fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go s.pollEvents(events, done)

	s.logger.Info(ctx, "Terminal session started", "fps", fps)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok || !s.HandleEvent(ev) {
				s.logger.Info(ctx, "Terminal session ended", "steps", s.manager.GetStats().Steps)
				return nil
			}
		case now := <-ticker.C:
			s.Frame(now.Sub(last).Seconds())
			last = now
		}
	}
}
