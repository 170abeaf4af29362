// Package dice provides the randomness abstraction, d6-pool rolling, and
// outcome-table evaluation for the melee rules engine.
package dice

import "fmt"

// Sides is the number of faces on every die the rules use.
const Sides = 6

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+1"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"3d6 → [4 5 2] +0 = 11"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollDice rolls n six-sided dice using src and returns the audit trail.
//
// Precondition: n >= 1; src must be non-nil.
// Postcondition: len(result.Dice) == n; every die is in [1, 6];
// result.Total() is in [n, 6n].
func RollDice(n int, src Source) RollResult {
	if n < 1 {
		panic(fmt.Sprintf("dice: RollDice called with n = %d, must be >= 1", n))
	}
	rolled := make([]int, n)
	for i := range rolled {
		rolled[i] = src.Intn(Sides) + 1
	}
	return RollResult{
		Expression: fmt.Sprintf("%dd%d", n, Sides),
		Dice:       rolled,
	}
}
