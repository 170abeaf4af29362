package figure

import "fmt"

// Pool is a depletable resource bounded below by the overkill floor at
// negative double its starting value.
type Pool struct {
	Start   int
	Current int
}

func newPool(start int) Pool {
	return Pool{Start: start, Current: start}
}

// floor returns the lowest value arithmetic may reach: -2 * Start.
func (p Pool) floor() int { return -2 * p.Start }

// PoolID selects one of a figure's pools for a mutation.
type PoolID int

const (
	PoolFatigue PoolID = iota
	PoolBody
	PoolMana
)

// String returns the pool's name.
func (p PoolID) String() string {
	switch p {
	case PoolFatigue:
		return "fatigue"
	case PoolBody:
		return "body"
	case PoolMana:
		return "mana"
	default:
		return "unknown"
	}
}

// Transition reports the threshold crossing caused by a pool mutation.
// Crossings are first-class outcomes, not errors; the caller records them in
// the figure's history and, for deaths, converts the figure to a terminal
// record.
type Transition int

const (
	// TransitionNone: no threshold crossed.
	TransitionNone Transition = iota
	// TransitionUnconscious: the body pool crossed zero going down.
	TransitionUnconscious
	// TransitionDead: the body pool reached the death threshold.
	TransitionDead
	// TransitionOverkill: the mutation would have pushed the pool below the
	// death threshold; arithmetic stopped at the threshold instead of
	// continuing past it.
	TransitionOverkill
)

// String returns the transition label.
func (t Transition) String() string {
	switch t {
	case TransitionNone:
		return "none"
	case TransitionUnconscious:
		return "unconscious"
	case TransitionDead:
		return "dead"
	case TransitionOverkill:
		return "overkill"
	default:
		return "unknown"
	}
}

// pool returns a pointer to the selected pool.
func (f *Figure) pool(id PoolID) *Pool {
	switch id {
	case PoolFatigue:
		return &f.Fatigue
	case PoolBody:
		return &f.Body
	case PoolMana:
		return &f.Mana
	default:
		panic(fmt.Sprintf("figure: unknown pool %d", id))
	}
}

// ApplyDamage reduces the selected pool by amount and reports any threshold
// crossing. Arithmetic never continues below the death threshold: an amount
// that would overshoot it clamps there and reports TransitionOverkill,
// leaving the Dead transition to the caller's bookkeeping.
//
// Precondition: amount >= 0.
// Postcondition: The pool is >= its floor; status flags are recomputed.
func (f *Figure) ApplyDamage(id PoolID, amount int) Transition {
	if amount < 0 {
		panic("figure: ApplyDamage called with negative amount")
	}
	p := f.pool(id)
	before := p.Current
	after := before - amount

	tr := TransitionNone
	if after < p.floor() {
		after = p.floor()
		tr = TransitionOverkill
	} else if id == PoolBody {
		switch {
		case before > p.floor() && after <= p.floor():
			tr = TransitionDead
		case before > 0 && after <= 0:
			tr = TransitionUnconscious
		}
	}
	p.Current = after
	f.refreshStatus()
	return tr
}

// SpendFatigue deducts fatigue for an action or spell and reports any
// crossing. Spent fatigue leaves a figure exhausted, never unconscious;
// only overspending past the pool floor registers as a crossing.
//
// Precondition: amount >= 0.
func (f *Figure) SpendFatigue(amount int) Transition {
	return f.ApplyDamage(PoolFatigue, amount)
}

// RecoverFatigue restores fatigue, capped at the starting value.
//
// Precondition: amount >= 0.
// Postcondition: Fatigue.Current <= Fatigue.Start; flags recomputed.
func (f *Figure) RecoverFatigue(amount int) {
	if amount < 0 {
		panic("figure: RecoverFatigue called with negative amount")
	}
	f.Fatigue.Current += amount
	if f.Fatigue.Current > f.Fatigue.Start {
		f.Fatigue.Current = f.Fatigue.Start
	}
	f.refreshStatus()
}

// SpendMana deducts mana for a caster's spell.
//
// Precondition: the figure must be a caster; amount >= 0.
// Postcondition: Returns an error and no mutation if mana is insufficient.
func (f *Figure) SpendMana(amount int) error {
	if !f.Caster {
		return fmt.Errorf("figure: %s is not a caster", f.Name)
	}
	if amount < 0 {
		panic("figure: SpendMana called with negative amount")
	}
	if f.Mana.Current < amount {
		return fmt.Errorf("figure: %s has %d mana, needs %d", f.Name, f.Mana.Current, amount)
	}
	f.Mana.Current -= amount
	f.refreshStatus()
	return nil
}

// RestorePools sets pool currents directly, for loading persisted state.
// Values are clamped to [floor, Start] and flags re-derived, so a persisted
// snapshot can never resurrect an inconsistent flag/pool combination.
func (f *Figure) RestorePools(fatigue, body, mana int) {
	f.Fatigue.Current = clamp(fatigue, f.Fatigue.floor(), f.Fatigue.Start)
	f.Body.Current = clamp(body, f.Body.floor(), f.Body.Start)
	f.Mana.Current = clamp(mana, f.Mana.floor(), f.Mana.Start)
	f.refreshStatus()
}

// refreshStatus re-derives the condition flags from the pools. It is the
// single writer of f.status.
//
// Postcondition: Exhausted iff fatigue is fully spent; Unconscious iff the
// body pool is at or below zero (and not dead); Dead iff the body pool is at
// the death threshold.
func (f *Figure) refreshStatus() {
	f.status.Dead = f.Body.Current <= f.Body.floor()
	f.status.Unconscious = !f.status.Dead && f.Body.Current <= 0
	f.status.Exhausted = f.Fatigue.Current <= 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
