package resolve

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/game/condition"
	"github.com/cory-johannsen/melee/internal/game/dice"
	"github.com/cory-johannsen/melee/internal/game/figure"
)

// Resolver resolves declared combat actions. One resolver serves a whole
// scenario; it holds the outcome tables, the condition registry for effect
// application, and the audited roller.
type Resolver struct {
	tables     *dice.Tables
	conditions *condition.Registry
	roller     *dice.Roller
	clamp      Clamp
	logger     *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: tables, conditions, roller, and logger must be non-nil.
func NewResolver(tables *dice.Tables, conditions *condition.Registry, roller *dice.Roller, clamp Clamp, logger *zap.Logger) *Resolver {
	return &Resolver{
		tables:     tables,
		conditions: conditions,
		roller:     roller,
		clamp:      clamp,
		logger:     logger,
	}
}

// AttackResult records everything a resolved attack produced, for logs and
// for the GM's audit trail.
type AttackResult struct {
	// Roll is the to-hit roll against the attacker's adjusted Dexterity.
	Roll dice.RollResult
	// Outcome is the classified to-hit result.
	Outcome dice.Outcome
	// Target is the adjusted Dexterity the roll was made against.
	Target int
	// DamageRolled is the raw damage before multiplier and protection.
	DamageRolled int
	// DamageDealt is the net damage applied after multiplier and protection.
	DamageDealt int
	// Transition is the defender's pool transition, if the hit caused one.
	Transition figure.Transition
	// Effects lists the special-entry side effects that were applied.
	Effects []dice.Effect
}

// ResolveAttack resolves attacker's declared attack on defender. When the
// defender declared a dodge or defend, the roll moves to the four-die
// versus table; otherwise the three-die attack table applies.
//
// A plain success deals weapon damage minus protection to the defender's
// fatigue. A critical success multiplies the damage and applies it to body
// as well. Special-entry effects apply regardless of the adjusted target:
// bleeding sticks to the defender, weapon mishaps to the attacker.
//
// Precondition: attacker must be armed; both figures must be alive.
// Postcondition: On error no figure is mutated.
func (r *Resolver) ResolveAttack(attacker, defender *figure.Figure, mods Modifiers, defended bool) (AttackResult, error) {
	if !attacker.Armed() {
		return AttackResult{}, fmt.Errorf("resolve: %s has no ready weapon", attacker.Name)
	}
	return r.ResolveAttackWith(attacker, defender, attacker.Weapon.Damage, mods, defended)
}

// BareHandsDamage is the damage expression for unarmed hand-to-hand attacks.
const BareHandsDamage = "1d6-2"

// ResolveAttackWith resolves an attack dealing the given damage expression
// instead of the attacker's weapon damage. Hand-to-hand attacks use this
// with BareHandsDamage.
func (r *Resolver) ResolveAttackWith(attacker, defender *figure.Figure, damage string, mods Modifiers, defended bool) (AttackResult, error) {
	if !attacker.Alive() || !defender.Alive() {
		return AttackResult{}, fmt.Errorf("resolve: attack requires two conscious figures")
	}

	table := r.tables.Attack
	if defended {
		table = r.tables.Versus
	}
	target := AdjustedDX(attacker, mods, r.clamp)
	roll, outcome := r.roller.Against(table, target)

	res := AttackResult{Roll: roll, Outcome: outcome, Target: target}
	if outcome.Hit() {
		dmg, err := r.roller.Damage(damage)
		if err != nil {
			return AttackResult{}, fmt.Errorf("resolve: damage for %s: %w", attacker.Name, err)
		}
		res.DamageRolled = dmg.Total()
		net := res.DamageRolled*outcome.DamageMultiplier - defender.Protection()
		if net < 0 {
			net = 0
		}
		res.DamageDealt = net
		res.Transition = defender.ApplyDamage(figure.PoolFatigue, net)
		if outcome.Kind == dice.CritSuccess {
			if tr := defender.ApplyDamage(figure.PoolBody, net); tr > res.Transition {
				res.Transition = tr
			}
		}
	}

	for _, eff := range outcome.Effects {
		if err := r.applyEffect(eff, attacker, defender); err != nil {
			return res, err
		}
		res.Effects = append(res.Effects, eff)
	}

	r.logger.Info("attack resolved",
		zap.String("attacker", attacker.Name),
		zap.String("defender", defender.Name),
		zap.Int("target", target),
		zap.Int("sum", roll.Total()),
		zap.String("outcome", outcome.Kind.String()),
		zap.Int("damage", res.DamageDealt),
		zap.String("transition", res.Transition.String()),
	)
	return res, nil
}

func (r *Resolver) applyEffect(eff dice.Effect, attacker, defender *figure.Figure) error {
	switch eff {
	case dice.EffectBleeding:
		def, ok := r.conditions.Get("bleeding")
		if !ok {
			return fmt.Errorf("resolve: bleeding condition not registered")
		}
		return defender.Conditions.Apply(def, 0)
	case dice.EffectDropWeapon:
		attacker.DropWeapon()
		return nil
	case dice.EffectBreakWeapon:
		attacker.BreakWeapon()
		return nil
	default:
		return fmt.Errorf("resolve: unknown effect %q", eff)
	}
}
