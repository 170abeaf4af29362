package hexmap

import (
	"fmt"
	"sort"
)

// Placement is one figure's footprint on the board, plus the tactical facts
// the engagement rules need about it. The rules packages read placements;
// only the board mutates them.
type Placement struct {
	// ID is the figure's identifier.
	ID string
	// Team groups allied figures; engagement only considers differing teams.
	Team string
	// Size is the number of hexes the figure occupies: 1, 2, or 3.
	Size int
	// Armed is true when the figure has a ready weapon.
	Armed bool
	// Prone is true for prone or crawling figures; their front arc is empty.
	Prone bool
	// Head is the leading occupied hex; trailing hexes extend opposite Facing.
	Head Hex
	// Facing is the stored hex direction the figure faces.
	Facing Direction
}

// Hexes returns every hex the placement occupies, head first.
// Trailing hexes for multi-hex figures extend away from the facing.
//
// Postcondition: len(result) == p.Size; result[0] == p.Head.
func (p *Placement) Hexes() []Hex {
	out := make([]Hex, p.Size)
	h := p.Head
	back := p.Facing.Opposite()
	for i := 0; i < p.Size; i++ {
		out[i] = h
		h = h.Neighbor(back)
	}
	return out
}

// FrontHexes returns the union of front arcs over the placement's hexes,
// minus its own footprint. Prone figures have an empty front arc; spell
// targeting uses SpellFrontHexes instead.
func (p *Placement) FrontHexes() []Hex {
	if p.Prone {
		return nil
	}
	return p.frontHexes()
}

// SpellFrontHexes returns the front arc treating the nominal facing as valid
// even while prone. Valid for spell targeting only.
func (p *Placement) SpellFrontHexes() []Hex {
	return p.frontHexes()
}

func (p *Placement) frontHexes() []Hex {
	own := make(map[Hex]bool, p.Size)
	for _, h := range p.Hexes() {
		own[h] = true
	}
	seen := make(map[Hex]bool)
	var out []Hex
	for _, h := range p.Hexes() {
		for _, f := range FrontArc(h, p.Facing) {
			if own[f] || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// Board tracks figure placements and hex occupancy for one scenario.
// It is not safe for concurrent use; the scenario turn lock serialises access.
//
// Invariant: every hex in occ maps to exactly one placement, and every
// placement's Hexes() are present in occ.
type Board struct {
	// Radius bounds the board: hexes within Radius of the origin are on-map.
	// Zero means unbounded.
	Radius int

	placements map[string]*Placement
	occ        map[Hex]string
}

// NewBoard creates an empty board with the given radius (0 = unbounded).
func NewBoard(radius int) *Board {
	return &Board{
		Radius:     radius,
		placements: make(map[string]*Placement),
		occ:        make(map[Hex]string),
	}
}

// InBounds reports whether h is on the map.
func (b *Board) InBounds(h Hex) bool {
	if b.Radius <= 0 {
		return true
	}
	return h.Distance(Hex{}) <= b.Radius
}

// Place adds a placement to the board.
//
// Precondition: p.ID must be non-empty and not already placed; p.Size in [1,3].
// Postcondition: All of p's hexes are occupied by p, or an error and no mutation.
func (b *Board) Place(p *Placement) error {
	if p.ID == "" {
		return fmt.Errorf("hexmap: placement ID must be non-empty")
	}
	if p.Size < 1 || p.Size > 3 {
		return fmt.Errorf("hexmap: placement %q size %d out of range [1,3]", p.ID, p.Size)
	}
	if _, exists := b.placements[p.ID]; exists {
		return fmt.Errorf("hexmap: placement %q already on board", p.ID)
	}
	for _, h := range p.Hexes() {
		if !b.InBounds(h) {
			return fmt.Errorf("hexmap: hex %s is off-map", h)
		}
		if id, taken := b.occ[h]; taken {
			return fmt.Errorf("hexmap: hex %s already occupied by %q", h, id)
		}
	}
	b.placements[p.ID] = p
	for _, h := range p.Hexes() {
		b.occ[h] = p.ID
	}
	return nil
}

// Remove deletes the placement with the given ID. No-op if absent.
//
// Postcondition: Get(id) reports false; the placement's hexes are free.
func (b *Board) Remove(id string) {
	p, ok := b.placements[id]
	if !ok {
		return
	}
	for _, h := range p.Hexes() {
		delete(b.occ, h)
	}
	delete(b.placements, id)
}

// Get returns the placement for id.
func (b *Board) Get(id string) (*Placement, bool) {
	p, ok := b.placements[id]
	return p, ok
}

// At returns the ID occupying hex h, if any.
func (b *Board) At(h Hex) (string, bool) {
	id, ok := b.occ[h]
	return id, ok
}

// Free reports whether h is on-map and unoccupied, ignoring hexes occupied
// by ignoreID (a figure never blocks itself mid-move).
func (b *Board) Free(h Hex, ignoreID string) bool {
	if !b.InBounds(h) {
		return false
	}
	id, taken := b.occ[h]
	return !taken || id == ignoreID
}

// MoveTo relocates a placement to a new head hex and facing.
//
// Precondition: id must be on the board; the new footprint must be on-map and
// free of other figures.
// Postcondition: Occupancy reflects the new footprint, or an error and no mutation.
func (b *Board) MoveTo(id string, head Hex, facing Direction) error {
	p, ok := b.placements[id]
	if !ok {
		return fmt.Errorf("hexmap: placement %q not on board", id)
	}
	next := &Placement{ID: p.ID, Size: p.Size, Head: head, Facing: facing}
	for _, h := range next.Hexes() {
		if !b.Free(h, id) {
			return fmt.Errorf("hexmap: hex %s blocked for %q", h, id)
		}
	}
	for _, h := range p.Hexes() {
		delete(b.occ, h)
	}
	p.Head = head
	p.Facing = facing
	for _, h := range p.Hexes() {
		b.occ[h] = id
	}
	return nil
}

// SetFacing rotates a placement in place.
//
// Precondition: id must be on the board; a multi-hex figure's rotated
// footprint must be free.
func (b *Board) SetFacing(id string, facing Direction) error {
	p, ok := b.placements[id]
	if !ok {
		return fmt.Errorf("hexmap: placement %q not on board", id)
	}
	return b.MoveTo(id, p.Head, facing)
}

// Placements returns all placements sorted by ID for deterministic iteration.
func (b *Board) Placements() []*Placement {
	out := make([]*Placement, 0, len(b.placements))
	for _, p := range b.placements {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
