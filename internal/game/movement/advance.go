package movement

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/melee/internal/game/hexmap"
)

// ErrInvalidMovement is returned for movement requests that exceed the
// figure's allowance or are not a legal step chain. The board is never
// mutated when this error is returned.
var ErrInvalidMovement = errors.New("invalid movement")

// Result reports what happened when a declared path was walked.
type Result struct {
	// Moved is the number of hexes actually entered.
	Moved int
	// Halted is true when engagement flipped mid-path and the remaining
	// declared movement was discarded.
	Halted bool
	// EngagedBy holds the engaging enemies' IDs when Halted.
	EngagedBy []string
}

// Advance walks the figure along path, one hex per step, facing each step's
// direction of travel. The whole path is validated against the board before
// any mutation: every hex must be on-map, adjacent to the previous one, free
// of other figures, and the path must not exceed ma.
//
// The moment engagement flips false to true after a step, the walk halts and
// the remaining declared movement is discarded; movement is not resumable
// this turn. Halting is not an error.
//
// Precondition: id must be placed on b; ma >= 0.
// Postcondition: On error the board is unchanged. On success the figure
// stands at path[Result.Moved-1] (or its start hex when len(path) == 0).
func Advance(b *hexmap.Board, id string, path []hexmap.Hex, ma int) (Result, error) {
	p, ok := b.Get(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: figure %q not on board", ErrInvalidMovement, id)
	}
	if len(path) > ma {
		return Result{}, fmt.Errorf("%w: path length %d exceeds allowance %d", ErrInvalidMovement, len(path), ma)
	}

	// Full validation pass before any mutation.
	cur := p.Head
	for i, h := range path {
		if !cur.Adjacent(h) {
			return Result{}, fmt.Errorf("%w: step %d: %s is not adjacent to %s", ErrInvalidMovement, i, h, cur)
		}
		if !b.InBounds(h) {
			return Result{}, fmt.Errorf("%w: step %d: %s is off-map", ErrInvalidMovement, i, h)
		}
		if !b.Free(h, id) {
			return Result{}, fmt.Errorf("%w: step %d: %s is occupied", ErrInvalidMovement, i, h)
		}
		cur = h
	}

	if DetectEngagement(b, id) {
		return Result{}, fmt.Errorf("%w: figure %q is already engaged", ErrInvalidMovement, id)
	}

	var res Result
	cur = p.Head
	for _, h := range path {
		dir, err := cur.DirectionTo(h)
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrInvalidMovement, err)
		}
		if err := b.MoveTo(id, h, dir); err != nil {
			return res, fmt.Errorf("%w: %v", ErrInvalidMovement, err)
		}
		cur = h
		res.Moved++
		if DetectEngagement(b, id) {
			res.Halted = true
			res.EngagedBy = Engagers(b, id)
			break
		}
	}
	return res, nil
}
