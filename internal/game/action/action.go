// Package action defines the action kinds a figure may declare each turn and
// the table-driven legality rules that gate them by engagement state,
// movement bracket, and posture.
package action

// Kind names one declarable action. The string values double as YAML keys
// in the legality table and condition restriction lists.
type Kind string

const (
	Pass         Kind = "pass"
	Move         Kind = "move"
	Run          Kind = "run"
	Charge       Kind = "charge"
	Attack       Kind = "attack"
	ShiftAttack  Kind = "shift_attack"
	Dodge        Kind = "dodge"
	Defend       Kind = "defend"
	Disengage    Kind = "disengage"
	StandUp      Kind = "stand_up"
	ReadyWeapon  Kind = "ready_weapon"
	PickUpWeapon Kind = "pick_up_weapon"
	CastSpell    Kind = "cast_spell"
	HTHAttack    Kind = "hth_attack"
)

// Kinds lists every declarable action in a stable order.
var Kinds = []Kind{
	Pass, Move, Run, Charge, Attack, ShiftAttack, Dodge, Defend,
	Disengage, StandUp, ReadyWeapon, PickUpWeapon, CastSpell, HTHAttack,
}

// Known reports whether k names a declarable action.
func Known(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// MaxMove returns the hex cap for this action given the figure's movement
// allowance.
func (k Kind) MaxMove(ma int) int {
	switch k {
	case Run, Charge:
		return ma
	case Move, Dodge:
		return ma / 2
	case ShiftAttack, Disengage:
		return 1
	default:
		return 0
	}
}

// FatigueCost returns the fatigue spent by declaring this action.
func (k Kind) FatigueCost() int {
	switch k {
	case Run, Charge:
		return 1
	default:
		return 0
	}
}

// IsAttack reports whether this action resolves an attack against a target.
func (k Kind) IsAttack() bool {
	switch k {
	case Attack, ShiftAttack, Charge, HTHAttack:
		return true
	default:
		return false
	}
}
