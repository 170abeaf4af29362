// Package resolve turns declared attacks, spells, and forced retreats into
// pool damage, condition applications, and board mutations, using the
// outcome tables for every roll.
package resolve

import (
	"github.com/cory-johannsen/melee/internal/game/figure"
)

// Modifier is one named situational adjustment to a roll target. Negative
// values penalise, positive values help.
type Modifier struct {
	Name  string
	Value int
}

// Modifiers is the full set of situational adjustments for one roll.
type Modifiers []Modifier

// Sum totals the adjustment values.
func (m Modifiers) Sum() int {
	total := 0
	for _, mod := range m {
		total += mod.Value
	}
	return total
}

// Clamp optionally bounds an adjusted attribute. Zero values disable the
// respective bound.
type Clamp struct {
	Floor   int
	Ceiling int
}

// Apply bounds v by the clamp.
func (c Clamp) Apply(v int) int {
	if c.Floor != 0 && v < c.Floor {
		v = c.Floor
	}
	if c.Ceiling != 0 && v > c.Ceiling {
		v = c.Ceiling
	}
	return v
}

// ExhaustionPenalty is subtracted from every roll target while the
// figure's fatigue is fully spent.
const ExhaustionPenalty = 2

// AdjustedDX computes the figure's roll target for attacks: base Dexterity
// plus situational modifiers plus condition penalties, minus the
// exhaustion penalty when fatigue is spent, optionally clamped.
func AdjustedDX(f *figure.Figure, mods Modifiers, clamp Clamp) int {
	adj := f.Attr.Dexterity + mods.Sum() + f.Conditions.DXAdjustment()
	if f.Status().Exhausted {
		adj -= ExhaustionPenalty
	}
	return clamp.Apply(adj)
}

// AdjustedIQ computes the figure's roll target for spell casting: base
// Intelligence plus situational modifiers plus condition penalties,
// optionally clamped. Conditions that dull reflexes dull casting equally,
// and so does exhaustion.
func AdjustedIQ(f *figure.Figure, mods Modifiers, clamp Clamp) int {
	adj := f.Attr.Intelligence + mods.Sum() + f.Conditions.DXAdjustment()
	if f.Status().Exhausted {
		adj -= ExhaustionPenalty
	}
	return clamp.Apply(adj)
}
