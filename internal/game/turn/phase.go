// Package turn drives the six-phase turn sequence: initiative, spell
// renewal, movement, actions, forced retreats, and cleanup. The sequencer
// enforces strict phase order and resolves action slots in adjusted
// Dexterity order.
package turn

import "errors"

// Phase is one stage of the turn sequence. Phases advance strictly in
// declaration order and wrap back to initiative after cleanup.
type Phase int

const (
	PhaseInitiative Phase = iota
	PhaseRenewSpells
	PhaseMovement
	PhaseActions
	PhaseForcedRetreat
	PhaseCleanup
)

// String returns the phase label.
func (p Phase) String() string {
	switch p {
	case PhaseInitiative:
		return "initiative"
	case PhaseRenewSpells:
		return "renew-spells"
	case PhaseMovement:
		return "movement"
	case PhaseActions:
		return "actions"
	case PhaseForcedRetreat:
		return "forced-retreat"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// ErrWrongPhase is returned when an operation is invoked outside the phase
// it belongs to.
var ErrWrongPhase = errors.New("turn: operation not valid in current phase")

// ErrUnknownFigure is returned when an operation names a figure the
// sequencer does not track.
var ErrUnknownFigure = errors.New("turn: unknown figure")
