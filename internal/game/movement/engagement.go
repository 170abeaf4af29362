package movement

import "github.com/cory-johannsen/melee/internal/game/hexmap"

// engagementThreshold returns how many adjacent one-hex armed enemies a
// figure of the given size needs in its front hexes before it counts as
// engaged. One-hex figures are engaged by a single enemy; two-hex figures by
// two; the largest by three.
func engagementThreshold(size int) int {
	switch {
	case size <= 1:
		return 1
	case size == 2:
		return 2
	default:
		return 3
	}
}

// DetectEngagement reports whether the figure with the given ID is engaged.
//
// A one-hex figure is engaged when any of its hexes lies inside an armed
// enemy's front arc. A multi-hex figure is engaged when at least its
// threshold count of one-hex armed enemies stand in its front hexes, or when
// any single armed multi-hex enemy does.
//
// Precondition: id must be placed on b.
// Postcondition: Pure read; the board is not mutated.
func DetectEngagement(b *hexmap.Board, id string) bool {
	p, ok := b.Get(id)
	if !ok {
		return false
	}

	if p.Size <= 1 {
		return insideArmedEnemyFront(b, p)
	}

	count := 0
	for _, front := range p.FrontHexes() {
		otherID, taken := b.At(front)
		if !taken {
			continue
		}
		other, _ := b.Get(otherID)
		if other.Team == p.Team || !other.Armed {
			continue
		}
		if other.Size > 1 {
			return true
		}
		count++
		if count >= engagementThreshold(p.Size) {
			return true
		}
	}
	// A giant inside an armed enemy's front arc is still pinned when that
	// enemy is itself multi-hex.
	return insideArmedMultiHexFront(b, p)
}

// insideArmedEnemyFront reports whether any of p's hexes are in the front arc
// of an armed enemy.
func insideArmedEnemyFront(b *hexmap.Board, p *hexmap.Placement) bool {
	own := ownHexSet(p)
	for _, other := range b.Placements() {
		if other.ID == p.ID || other.Team == p.Team || !other.Armed {
			continue
		}
		for _, front := range other.FrontHexes() {
			if own[front] {
				return true
			}
		}
	}
	return false
}

func insideArmedMultiHexFront(b *hexmap.Board, p *hexmap.Placement) bool {
	own := ownHexSet(p)
	for _, other := range b.Placements() {
		if other.ID == p.ID || other.Team == p.Team || !other.Armed || other.Size <= 1 {
			continue
		}
		for _, front := range other.FrontHexes() {
			if own[front] {
				return true
			}
		}
	}
	return false
}

func ownHexSet(p *hexmap.Placement) map[hexmap.Hex]bool {
	own := make(map[hexmap.Hex]bool, p.Size)
	for _, h := range p.Hexes() {
		own[h] = true
	}
	return own
}

// Engagers returns the IDs of armed enemies whose front arcs contain any of
// the figure's hexes, sorted by the board's deterministic placement order.
// The sequencer uses this to mark engaging-target relationships when a
// figure's movement is halted.
func Engagers(b *hexmap.Board, id string) []string {
	p, ok := b.Get(id)
	if !ok {
		return nil
	}
	own := ownHexSet(p)
	var out []string
	for _, other := range b.Placements() {
		if other.ID == p.ID || other.Team == p.Team || !other.Armed {
			continue
		}
		for _, front := range other.FrontHexes() {
			if own[front] {
				out = append(out, other.ID)
				break
			}
		}
	}
	return out
}
