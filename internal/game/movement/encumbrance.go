// Package movement implements movement allowance, encumbrance
// classification, and the engagement rules over the hex board.
package movement

// EncumbranceLevel classifies a figure's carried load against its Strength.
type EncumbranceLevel int

const (
	Unencumbered EncumbranceLevel = iota
	Light
	Medium
	Heavy
	Overloaded
)

// String returns the band's rulebook label.
func (l EncumbranceLevel) String() string {
	switch l {
	case Unencumbered:
		return "unencumbered"
	case Light:
		return "light"
	case Medium:
		return "medium"
	case Heavy:
		return "heavy"
	case Overloaded:
		return "overloaded"
	default:
		return "unknown"
	}
}

// MAPenalty returns the hexes subtracted from movement allowance for the band.
// Overloaded figures cannot move at all; the penalty swamps any allowance.
func (l EncumbranceLevel) MAPenalty() int {
	switch l {
	case Unencumbered:
		return 0
	case Light:
		return 1
	case Medium:
		return 2
	case Heavy:
		return 4
	default:
		return 1 << 8
	}
}

// ClassifyEncumbrance maps carried weight against Strength to a band.
// Bands: <=ST, <=1.5*ST, <=2*ST, <=2.5*ST, above. A weight exactly on a band
// boundary belongs to the cheaper band.
//
// Precondition: strength > 0; weight >= 0.
func ClassifyEncumbrance(weight float64, strength int) EncumbranceLevel {
	st := float64(strength)
	switch {
	case weight <= st:
		return Unencumbered
	case weight <= st*1.5:
		return Light
	case weight <= st*2:
		return Medium
	case weight <= st*2.5:
		return Heavy
	default:
		return Overloaded
	}
}

// ComputeMA returns the movement allowance for the given Dexterity and load:
// max(4, DX-2) minus the band penalty, floored at zero.
//
// Postcondition: ComputeMA(d, Unencumbered) == max(4, d-2); result >= 0.
func ComputeMA(dexterity int, level EncumbranceLevel) int {
	ma := dexterity - 2
	if ma < 4 {
		ma = 4
	}
	ma -= level.MAPenalty()
	if ma < 0 {
		ma = 0
	}
	return ma
}
