// Package scenario aggregates one fight: its figures in join order, the
// board they stand on, the turn sequencer driving them, and snapshot
// persistence. All turn mutation goes through Do, which holds the turn lock.
package scenario

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/game/action"
	"github.com/cory-johannsen/melee/internal/game/dice"
	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/game/resolve"
	"github.com/cory-johannsen/melee/internal/game/turn"
)

// Clock supplies the current time, so tests can pin timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

// Now returns the current wall time.
func (SystemClock) Now() time.Time { return time.Now() }

// Deps carries the collaborators a scenario's sequencer needs.
type Deps struct {
	Table    *action.Table
	Resolver *resolve.Resolver
	Roller   *dice.Roller
	Config   turn.Config
	Logger   *zap.Logger
}

// Scenario is one tracked fight.
type Scenario struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time

	mu      sync.Mutex
	clock   Clock
	figures []*figure.Figure
	board   *hexmap.Board
	seq     *turn.Sequencer
}

// New creates an empty scenario with a board of the given radius.
//
// Precondition: clock must be non-nil; radius >= 0.
func New(name string, radius int, clock Clock) *Scenario {
	return &Scenario{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: clock.Now(),
		clock:     clock,
		board:     hexmap.NewBoard(radius),
	}
}

// Join adds a figure and places it on the board. Join order is the
// initiative tie-break order.
//
// Precondition: the scenario must not have begun.
// Postcondition: On error neither the roster nor the board changes.
func (s *Scenario) Join(f *figure.Figure, head hexmap.Hex, facing hexmap.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != nil {
		return fmt.Errorf("scenario %s: already begun", s.Name)
	}
	err := s.board.Place(&hexmap.Placement{
		ID:     f.ID.String(),
		Team:   f.Team,
		Size:   int(f.Size),
		Armed:  f.Armed(),
		Prone:  f.Posture == figure.Prone,
		Head:   head,
		Facing: facing,
	})
	if err != nil {
		return fmt.Errorf("scenario %s: placing %s: %w", s.Name, f.Name, err)
	}
	s.figures = append(s.figures, f)
	return nil
}

// Begin builds the turn sequencer. Figures can no longer join.
//
// Precondition: at least one figure must have joined.
func (s *Scenario) Begin(deps Deps) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != nil {
		return fmt.Errorf("scenario %s: already begun", s.Name)
	}
	if len(s.figures) == 0 {
		return fmt.Errorf("scenario %s: no figures", s.Name)
	}
	s.seq = turn.NewSequencer(s.board, s.figures, deps.Table, deps.Resolver, deps.Roller, deps.Config, deps.Logger)
	return nil
}

// Do runs fn under the turn lock. All sequencer access goes through here;
// the sequencer itself is not safe for concurrent use.
//
// Precondition: Begin must have been called.
func (s *Scenario) Do(fn func(*turn.Sequencer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == nil {
		return fmt.Errorf("scenario %s: not begun", s.Name)
	}
	return fn(s.seq)
}

// Figures returns the roster in join order.
func (s *Scenario) Figures() []*figure.Figure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*figure.Figure, len(s.figures))
	copy(out, s.figures)
	return out
}

// Figure returns the figure with the given ID.
func (s *Scenario) Figure(id uuid.UUID) (*figure.Figure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.figures {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// FigureByName returns the first figure with the given name.
func (s *Scenario) FigureByName(name string) (*figure.Figure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.figures {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Board returns the scenario board. Callers mutate it only under Do.
func (s *Scenario) Board() *hexmap.Board { return s.board }

// Over reports whether at most one team still has living figures, and that
// team's name.
func (s *Scenario) Over() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	teams := make(map[string]bool)
	for _, f := range s.figures {
		if f.Alive() {
			teams[f.Team] = true
		}
	}
	if len(teams) > 1 {
		return false, ""
	}
	for team := range teams {
		return true, team
	}
	return true, ""
}
