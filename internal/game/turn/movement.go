package turn

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/game/action"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/game/movement"
)

// Declare records id's declared option for the turn. Declarations happen
// during the movement phase; full legality against the actual distance
// moved is re-checked when the action slot resolves.
//
// Precondition: phase must be movement.
func (s *Sequencer) Declare(id uuid.UUID, decl Declaration) error {
	if s.phase != PhaseMovement {
		return fmt.Errorf("%w: declare during %s", ErrWrongPhase, s.phase)
	}
	f, err := s.alive(id)
	if err != nil {
		return err
	}
	if !action.Known(decl.Kind) {
		return fmt.Errorf("%w: unknown action %q", action.ErrIllegal, decl.Kind)
	}
	if f.Conditions.Restricts(string(decl.Kind)) {
		return fmt.Errorf("%w: a condition prevents %s from %s", action.ErrIllegal, f.Name, decl.Kind)
	}
	if decl.Kind.IsAttack() && decl.Target == uuid.Nil {
		return fmt.Errorf("%w: %s requires a target", action.ErrIllegal, decl.Kind)
	}
	s.decls[id] = &decl
	s.logger.Debug("action declared",
		zap.String("figure", f.Name),
		zap.String("action", string(decl.Kind)),
	)
	return nil
}

// Move walks id along path during the movement phase. The declared option
// caps the distance: a declared move allows half allowance, a run or charge
// the full allowance, and most other options none. The cap is cumulative
// across calls, so every hex already walked this turn counts against it.
// Movement halts the moment engagement flips on, discarding the rest of
// the path.
//
// Precondition: phase must be movement; id must have a declaration.
// Postcondition: On error the board is unchanged.
func (s *Sequencer) Move(id uuid.UUID, path []hexmap.Hex) (movement.Result, error) {
	if s.phase != PhaseMovement {
		return movement.Result{}, fmt.Errorf("%w: move during %s", ErrWrongPhase, s.phase)
	}
	f, err := s.alive(id)
	if err != nil {
		return movement.Result{}, err
	}
	decl, ok := s.decls[id]
	if !ok {
		return movement.Result{}, fmt.Errorf("%w: %s has not declared", action.ErrIllegal, f.Name)
	}
	limit := decl.Kind.MaxMove(f.MA())
	remaining := limit - s.moved[id]
	if remaining < 0 {
		remaining = 0
	}
	if len(path) > remaining {
		return movement.Result{}, fmt.Errorf("%w: %s allows %d hexes this turn, %d already moved and path has %d",
			movement.ErrInvalidMovement, decl.Kind, limit, s.moved[id], len(path))
	}

	res, err := movement.Advance(s.board, id.String(), path, remaining)
	if err != nil {
		return movement.Result{}, err
	}
	s.moved[id] += res.Moved
	if res.Halted {
		s.refreshEngagement()
		s.logger.Debug("movement halted by engagement",
			zap.String("figure", f.Name),
			zap.Int("moved", res.Moved),
			zap.Strings("engaged_by", res.EngagedBy),
		)
	}
	return res, nil
}

// FinishMovement closes the movement phase, recomputes engagement for every
// figure, and opens the action phase.
//
// Precondition: phase must be movement.
func (s *Sequencer) FinishMovement() error {
	if s.phase != PhaseMovement {
		return fmt.Errorf("%w: finish movement during %s", ErrWrongPhase, s.phase)
	}
	s.refreshEngagement()
	s.phase = PhaseActions
	return nil
}

// bracketFor returns the movement bracket id falls into this turn.
func (s *Sequencer) bracketFor(id uuid.UUID) action.MovementBracket {
	f := s.byID[id]
	return action.BracketFor(s.moved[id], f.MA())
}

// Bracket reports the movement bracket id falls into given the hexes it
// has moved this turn. Unknown figures are stationary.
func (s *Sequencer) Bracket(id uuid.UUID) action.MovementBracket {
	if _, ok := s.byID[id]; !ok {
		return action.Stationary
	}
	return s.bracketFor(id)
}
