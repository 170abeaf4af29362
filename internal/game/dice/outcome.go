package dice

// ResultKind is the 4-tier result of a roll against a target number.
type ResultKind int

const (
	CritSuccess ResultKind = iota
	Success
	Failure
	CritFailure
)

// String returns a human-readable result label.
func (k ResultKind) String() string {
	switch k {
	case CritSuccess:
		return "critical success"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case CritFailure:
		return "critical failure"
	default:
		return "unknown"
	}
}

// Effect is a side effect attached to a special table entry, applied by the
// combat resolver in addition to the numeric result.
type Effect string

const (
	EffectBleeding    Effect = "bleeding"
	EffectDropWeapon  Effect = "drop_weapon"
	EffectBreakWeapon Effect = "break_weapon"
)

// Outcome is the classified result of evaluating a roll sum against a target.
type Outcome struct {
	// Kind is the 4-tier classification.
	Kind ResultKind
	// DamageMultiplier scales rolled damage: 1 for a plain success, 2 or 3
	// for the critical bands. Zero for any miss.
	DamageMultiplier int
	// Automatic is true when a special table entry decided the result,
	// overriding the target comparison entirely.
	Automatic bool
	// Effects are side effects carried by the special entry, if any.
	Effects []Effect
}

// Hit reports whether the outcome lands the attempt.
//
// Postcondition: Returns true iff Kind is CritSuccess or Success.
func (o Outcome) Hit() bool {
	return o.Kind == CritSuccess || o.Kind == Success
}

// SpecialEntry is one literal-sum override in an OutcomeTable.
type SpecialEntry struct {
	Kind       ResultKind
	Multiplier int // damage multiplier for success kinds; ignored for misses
	Effects    []Effect
}

// OutcomeTable maps literal roll sums to special outcomes for one roll mode.
// Sums outside Specials resolve by ordinary threshold comparison: the attempt
// succeeds iff the sum is less than or equal to the target.
//
// The dice count and the special set are configuration, so the 3-die attack
// table and the 4-die versus-defense table share one evaluation routine.
type OutcomeTable struct {
	// Name identifies the table in logs and configuration errors.
	Name string
	// Dice is the number of d6 rolled against this table.
	Dice int
	// Specials maps literal sums to their overriding outcomes.
	Specials map[int]SpecialEntry
}

// Evaluate classifies sum against target using the table.
// A special entry for sum always wins, regardless of target; otherwise the
// plain threshold rule applies (success iff sum <= target, multiplier 1).
//
// Precondition: sum must be within [t.Dice, 6*t.Dice] for a roll made with
// t.Dice dice; target may be any int (extreme adjusted targets are legal).
// Postcondition: Returns a fully populated Outcome; DamageMultiplier > 0 iff Hit().
func (t OutcomeTable) Evaluate(sum, target int) Outcome {
	if e, ok := t.Specials[sum]; ok {
		out := Outcome{Kind: e.Kind, Automatic: true, Effects: e.Effects}
		if out.Hit() {
			out.DamageMultiplier = e.Multiplier
			if out.DamageMultiplier < 1 {
				out.DamageMultiplier = 1
			}
		}
		return out
	}
	if sum <= target {
		return Outcome{Kind: Success, DamageMultiplier: 1}
	}
	return Outcome{Kind: Failure}
}

// Roll rolls the table's dice count with src and evaluates against target.
//
// Precondition: t must be a validated table; src must be non-nil.
// Postcondition: Returns the roll audit trail and its classified outcome.
func (t OutcomeTable) Roll(target int, src Source) (RollResult, Outcome) {
	r := RollDice(t.Dice, src)
	return r, t.Evaluate(r.Total(), target)
}
