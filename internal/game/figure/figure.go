// Package figure defines the combatant state model: attributes, depletable
// pools, equipment readiness, and the derived status flags the turn rules
// consult. All pool mutation goes through the controlled mutators in pools.go
// so flags and pools can never disagree.
package figure

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/melee/internal/game/condition"
	"github.com/cory-johannsen/melee/internal/game/movement"
	"github.com/cory-johannsen/melee/internal/scripting"
)

// Attributes holds the six rolled attribute scores for a figure.
//
// Invariant: every score is a positive integer.
type Attributes struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Intelligence int `yaml:"intelligence"`
	Wisdom       int `yaml:"wisdom"`
	Constitution int `yaml:"constitution"`
	Charisma     int `yaml:"charisma"`
}

// Validate checks that every attribute is positive.
func (a Attributes) Validate() error {
	for _, v := range []struct {
		name  string
		value int
	}{
		{"strength", a.Strength},
		{"dexterity", a.Dexterity},
		{"intelligence", a.Intelligence},
		{"wisdom", a.Wisdom},
		{"constitution", a.Constitution},
		{"charisma", a.Charisma},
	} {
		if v.value <= 0 {
			return fmt.Errorf("figure: attribute %s must be positive, got %d", v.name, v.value)
		}
	}
	return nil
}

// Posture is the figure's body position.
type Posture int

const (
	Standing Posture = iota
	Kneeling
	Prone
)

// String returns the posture label.
func (p Posture) String() string {
	switch p {
	case Standing:
		return "standing"
	case Kneeling:
		return "kneeling"
	case Prone:
		return "prone"
	default:
		return "unknown"
	}
}

// EngagementState is the figure's melee contact state, set each turn by the
// sequencer from the board's engagement detection.
type EngagementState int

const (
	Disengaged EngagementState = iota
	Engaged
	HandToHand
)

// String returns the engagement label.
func (e EngagementState) String() string {
	switch e {
	case Disengaged:
		return "disengaged"
	case Engaged:
		return "engaged"
	case HandToHand:
		return "hand-to-hand"
	default:
		return "unknown"
	}
}

// Size is the number of hexes the figure occupies on the board.
type Size int

const (
	SizeOne   Size = 1
	SizeTwo   Size = 2
	SizeThree Size = 3
)

// Status holds the derived condition flags. Callers never set these
// directly; refreshStatus recomputes them after every pool mutation.
type Status struct {
	Exhausted   bool
	Unconscious bool
	Dead        bool
}

// Figure is one combat participant tracked by the engine.
type Figure struct {
	ID   uuid.UUID
	Name string
	// Team groups allied figures for engagement and retreat purposes.
	Team string
	Size Size

	Attr Attributes

	// Fatigue starts at Constitution, Body at Strength. Mana is nonzero for
	// casters only, and is withheld from player-facing views.
	Fatigue Pool
	Body    Pool
	Mana    Pool
	Caster  bool

	// CarriedWeight and Load are maintained together by SetEncumbrance.
	CarriedWeight float64
	Load          movement.EncumbranceLevel

	Posture    Posture
	Engagement EngagementState
	// EngagingTarget is the ID of the figure this one is engaging, when any.
	EngagingTarget uuid.UUID

	Weapon Weapon
	Shield Shield
	// Armor is worn plus natural protection, subtracted from each hit.
	Armor int

	// Conditions tracks active status conditions; their penalties feed MA
	// and adjusted-roll computations.
	Conditions *condition.ActiveSet

	status Status
}

// Option configures optional figure properties at creation.
type Option func(*Figure)

// WithMana makes the figure a caster with the given starting mana pool.
func WithMana(start int) Option {
	return func(f *Figure) {
		f.Caster = true
		f.Mana = newPool(start)
	}
}

// WithSize sets the figure's hex footprint.
func WithSize(s Size) Option {
	return func(f *Figure) { f.Size = s }
}

// WithWeapon equips a ready weapon at creation.
func WithWeapon(w Weapon) Option {
	return func(f *Figure) {
		w.State = Ready
		f.Weapon = w
	}
}

// WithShield equips a ready shield at creation.
func WithShield(s Shield) Option {
	return func(f *Figure) {
		s.State = Ready
		f.Shield = s
	}
}

// WithArmor sets worn plus natural protection.
func WithArmor(points int) Option {
	return func(f *Figure) { f.Armor = points }
}

// WithConditionHooks routes this figure's condition Lua hooks through the
// given sandbox.
func WithConditionHooks(hooks *scripting.Hooks) Option {
	return func(f *Figure) { f.Conditions = condition.NewActiveSet(hooks) }
}

// New creates a figure at scenario start with the given attributes.
// Fatigue starts at Constitution and Body at Strength.
//
// Precondition: attr must pass Validate.
// Postcondition: Returns a standing, disengaged, unencumbered figure with
// full pools, or an error.
func New(name, team string, attr Attributes, opts ...Option) (*Figure, error) {
	if name == "" {
		return nil, fmt.Errorf("figure: name must be non-empty")
	}
	if err := attr.Validate(); err != nil {
		return nil, err
	}
	f := &Figure{
		ID:         uuid.New(),
		Name:       name,
		Team:       team,
		Size:       SizeOne,
		Attr:       attr,
		Fatigue:    newPool(attr.Constitution),
		Body:       newPool(attr.Strength),
		Conditions: condition.NewActiveSet(nil),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.SetEncumbrance(f.Weapon.Weight + f.Shield.Weight)
	f.refreshStatus()
	return f, nil
}

// Status returns a copy of the derived condition flags.
func (f *Figure) Status() Status { return f.status }

// Alive reports whether the figure still acts in the turn sequence.
//
// Postcondition: Returns true iff the figure is neither dead nor unconscious.
func (f *Figure) Alive() bool {
	return !f.status.Dead && !f.status.Unconscious
}

// Armed reports whether the figure has a ready weapon. Only armed figures
// project an engagement front.
func (f *Figure) Armed() bool {
	return f.Weapon.Name != "" && f.Weapon.State == Ready
}

// MA returns the figure's current movement allowance, derived on demand so
// it can never go stale across Dexterity or encumbrance changes.
// Exhaustion halves the allowance.
//
// Postcondition: Returns >= 0.
func (f *Figure) MA() int {
	ma := movement.ComputeMA(f.Attr.Dexterity, f.Load)
	if f.status.Exhausted {
		ma /= 2
	}
	ma += f.Conditions.MAAdjustment()
	if ma < 0 {
		ma = 0
	}
	return ma
}

// Protection returns the points subtracted from each hit against this
// figure: armor plus a ready shield.
func (f *Figure) Protection() int {
	p := f.Armor
	if f.Shield.State == Ready {
		p += f.Shield.Protection
	}
	return p
}

// SetEncumbrance records the carried weight and reclassifies the load band.
// The movement allowance picks the change up immediately because MA derives
// from Load on every call.
//
// Precondition: weight >= 0.
func (f *Figure) SetEncumbrance(weight float64) {
	f.CarriedWeight = weight
	f.Load = movement.ClassifyEncumbrance(weight, f.Attr.Strength)
}
