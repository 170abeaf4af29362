package turn

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/resolve"
)

// SetRetreatAdvance records that id steps into the hex its pushed opponent
// vacates instead of holding ground, the default.
//
// Precondition: phase must be forced-retreat.
func (s *Sequencer) SetRetreatAdvance(id uuid.UUID, advance bool) error {
	if s.phase != PhaseForcedRetreat {
		return fmt.Errorf("%w: retreat advance during %s", ErrWrongPhase, s.phase)
	}
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFigure, id)
	}
	s.advance[id] = advance
	return nil
}

// ResolveRetreats executes the forced retreats earned during the action
// phase. A figure that dealt damage this turn and received none pushes its
// victim one hex away, itself advancing or holding by SetRetreatAdvance;
// a victim with nowhere to go rolls to keep footing.
//
// Precondition: phase must be forced-retreat.
// Postcondition: phase is cleanup.
func (s *Sequencer) ResolveRetreats() ([]resolve.RetreatResult, error) {
	if s.phase != PhaseForcedRetreat {
		return nil, fmt.Errorf("%w: retreats during %s", ErrWrongPhase, s.phase)
	}
	var results []resolve.RetreatResult
	done := make(map[retreatPair]bool)
	for _, pair := range s.retreats {
		if done[pair] {
			continue
		}
		done[pair] = true
		if s.dealt[pair.winner] == 0 || s.received[pair.winner] > 0 {
			continue
		}
		winner := s.byID[pair.winner]
		loser := s.byID[pair.loser]
		if winner == nil || loser == nil || !winner.Alive() || !loser.Alive() {
			continue
		}
		if !s.adjacentOnBoard(winner, loser) {
			continue
		}
		res, err := s.resolver.ForcedRetreat(s.board, winner, loser, s.advance[pair.winner])
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	s.refreshEngagement()
	s.phase = PhaseCleanup
	return results, nil
}

// Cleanup ticks conditions, applies their damage, removes downed figures
// from the board, and advances to the next turn's initiative.
//
// Precondition: phase must be cleanup.
// Postcondition: phase is initiative and Turn() is incremented.
func (s *Sequencer) Cleanup() error {
	if s.phase != PhaseCleanup {
		return fmt.Errorf("%w: cleanup during %s", ErrWrongPhase, s.phase)
	}
	for _, f := range s.figures {
		if !f.Alive() {
			continue
		}
		tick, err := f.Conditions.Tick()
		if err != nil {
			return fmt.Errorf("turn: ticking conditions for %s: %w", f.Name, err)
		}
		if tick.Damage > 0 {
			s.recordTransition(f, f.ApplyDamage(figure.PoolFatigue, tick.Damage))
			s.logger.Debug("condition damage",
				zap.String("figure", f.Name),
				zap.Int("damage", tick.Damage),
			)
		}
	}
	for _, f := range s.figures {
		if !f.Alive() {
			s.board.Remove(f.ID.String())
		}
	}
	s.refreshEngagement()
	s.turn++
	s.phase = PhaseInitiative
	return nil
}
