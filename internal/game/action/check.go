package action

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/melee/internal/game/figure"
)

// ErrIllegal is returned when a declared action is not permitted for the
// figure's current situation.
var ErrIllegal = errors.New("action: illegal for current state")

// Check verifies that f may declare k given how far it moved this turn.
// Legality combines the table lookup with the figure's own state: condition
// restrictions, caster status, and weapon readiness.
//
// Postcondition: Returns nil iff k is legal; the figure is never mutated.
func Check(t *Table, f *figure.Figure, bracket MovementBracket, k Kind) error {
	if !Known(k) {
		return fmt.Errorf("%w: unknown action %q", ErrIllegal, k)
	}
	if !f.Alive() {
		return fmt.Errorf("%w: %s cannot act", ErrIllegal, f.Name)
	}
	if !t.Allows(k, f.Engagement, bracket, f.Posture) {
		return fmt.Errorf("%w: %s may not %s while %s/%s/%s",
			ErrIllegal, f.Name, k, f.Engagement, bracket, f.Posture)
	}
	if f.Conditions.Restricts(string(k)) {
		return fmt.Errorf("%w: a condition prevents %s from %s", ErrIllegal, f.Name, k)
	}
	switch k {
	case Attack, ShiftAttack, Charge:
		if !f.Armed() {
			return fmt.Errorf("%w: %s has no ready weapon", ErrIllegal, f.Name)
		}
	case CastSpell:
		if !f.Caster {
			return fmt.Errorf("%w: %s is not a caster", ErrIllegal, f.Name)
		}
	case ReadyWeapon, PickUpWeapon:
		if f.Weapon.Name == "" || f.Weapon.State != figure.Dropped {
			return fmt.Errorf("%w: %s has no dropped weapon to recover", ErrIllegal, f.Name)
		}
	case StandUp:
		if f.Posture == figure.Standing {
			return fmt.Errorf("%w: %s is already standing", ErrIllegal, f.Name)
		}
	}
	return nil
}

// LegalFor lists every action f may declare given how far it moved, in the
// stable Kinds order.
func LegalFor(t *Table, f *figure.Figure, bracket MovementBracket) []Kind {
	var out []Kind
	for _, k := range Kinds {
		if Check(t, f, bracket, k) == nil {
			out = append(out, k)
		}
	}
	return out
}
