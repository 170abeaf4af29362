package resolve

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/game/dice"
	"github.com/cory-johannsen/melee/internal/game/figure"
)

// Spell describes one castable spell. The engine resolves the casting roll
// and its costs; the spell's battlefield effect is the caller's concern.
type Spell struct {
	Name        string `yaml:"name"`
	ManaCost    int    `yaml:"mana_cost"`
	FatigueCost int    `yaml:"fatigue_cost"`
	// Damage is an optional dice expression for damaging spells.
	Damage string `yaml:"damage"`
}

// CastResult records one resolved casting attempt.
type CastResult struct {
	Roll    dice.RollResult
	Outcome dice.Outcome
	Target  int
	// DamageRolled is the spell's rolled damage on a hit, zero otherwise.
	// Protection does not reduce spell damage here; that is the effect
	// handler's call.
	DamageRolled int
	// Fizzled is true when the roll failed after costs were paid.
	Fizzled bool
}

// ResolveCast resolves caster's attempt to cast spell. The roll is three
// dice against adjusted Intelligence. Costs are paid whether or not the
// casting succeeds; a caster without the mana is refused before any cost
// is paid.
//
// Precondition: caster must be a conscious caster.
// Postcondition: On error no pools are spent.
func (r *Resolver) ResolveCast(caster *figure.Figure, spell Spell, mods Modifiers) (CastResult, error) {
	if !caster.Caster {
		return CastResult{}, fmt.Errorf("resolve: %s is not a caster", caster.Name)
	}
	if !caster.Alive() {
		return CastResult{}, fmt.Errorf("resolve: %s cannot cast", caster.Name)
	}
	if spell.ManaCost > 0 {
		if err := caster.SpendMana(spell.ManaCost); err != nil {
			return CastResult{}, fmt.Errorf("resolve: casting %s: %w", spell.Name, err)
		}
	}
	if spell.FatigueCost > 0 {
		caster.SpendFatigue(spell.FatigueCost)
	}

	target := AdjustedIQ(caster, mods, r.clamp)
	roll, outcome := r.roller.Against(r.tables.Attack, target)
	res := CastResult{Roll: roll, Outcome: outcome, Target: target}
	if outcome.Hit() {
		if spell.Damage != "" {
			dmg, err := r.roller.Damage(spell.Damage)
			if err != nil {
				return res, fmt.Errorf("resolve: spell damage for %s: %w", spell.Name, err)
			}
			res.DamageRolled = dmg.Total() * outcome.DamageMultiplier
		}
	} else {
		res.Fizzled = true
	}

	r.logger.Info("spell resolved",
		zap.String("caster", caster.Name),
		zap.String("spell", spell.Name),
		zap.Int("target", target),
		zap.Int("sum", roll.Total()),
		zap.String("outcome", outcome.Kind.String()),
		zap.Bool("fizzled", res.Fizzled),
	)
	return res, nil
}
