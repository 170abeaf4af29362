package movement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/game/movement"
)

func TestAdvance_WalksFullPath(t *testing.T) {
	b := hexmap.NewBoard(0)
	mustPlace(t, b, &hexmap.Placement{ID: "a", Team: "blue", Size: 1, Head: hexmap.Hex{}, Facing: hexmap.East})

	path := []hexmap.Hex{{Q: 1, R: 0}, {Q: 2, R: 0}, {Q: 3, R: 0}}
	res, err := movement.Advance(b, "a", path, 8)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Moved)
	assert.False(t, res.Halted)

	p, _ := b.Get("a")
	assert.Equal(t, hexmap.Hex{Q: 3, R: 0}, p.Head)
	assert.Equal(t, hexmap.East, p.Facing, "facing follows direction of travel")
}

func TestAdvance_RejectsPathBeyondAllowance(t *testing.T) {
	b := hexmap.NewBoard(0)
	mustPlace(t, b, &hexmap.Placement{ID: "a", Team: "blue", Size: 1, Head: hexmap.Hex{}, Facing: hexmap.East})

	path := []hexmap.Hex{{Q: 1, R: 0}, {Q: 2, R: 0}}
	_, err := movement.Advance(b, "a", path, 1)
	require.ErrorIs(t, err, movement.ErrInvalidMovement)

	p, _ := b.Get("a")
	assert.Equal(t, hexmap.Hex{}, p.Head, "no mutation on rejection")
}

func TestAdvance_RejectsNonAdjacentStep(t *testing.T) {
	b := hexmap.NewBoard(0)
	mustPlace(t, b, &hexmap.Placement{ID: "a", Team: "blue", Size: 1, Head: hexmap.Hex{}, Facing: hexmap.East})

	_, err := movement.Advance(b, "a", []hexmap.Hex{{Q: 2, R: 0}}, 8)
	require.ErrorIs(t, err, movement.ErrInvalidMovement)
}

func TestAdvance_RejectsOccupiedStep(t *testing.T) {
	b := hexmap.NewBoard(0)
	mustPlace(t, b, &hexmap.Placement{ID: "a", Team: "blue", Size: 1, Head: hexmap.Hex{}, Facing: hexmap.East})
	mustPlace(t, b, &hexmap.Placement{ID: "rock", Team: "none", Size: 1, Head: hexmap.Hex{Q: 1, R: 0}, Facing: hexmap.East})

	_, err := movement.Advance(b, "a", []hexmap.Hex{{Q: 1, R: 0}}, 8)
	require.ErrorIs(t, err, movement.ErrInvalidMovement)
}

func TestAdvance_HaltsExactlyOnEngagementFlip(t *testing.T) {
	b := hexmap.NewBoard(0)
	// Armed enemy at (4,0) facing west: front arc contains (3,0), (3,1), (4,-1).
	mustPlace(t, b, &hexmap.Placement{ID: "enemy", Team: "red", Size: 1, Armed: true, Head: hexmap.Hex{Q: 4, R: 0}, Facing: hexmap.West})
	mustPlace(t, b, &hexmap.Placement{ID: "fig", Team: "blue", Size: 1, Head: hexmap.Hex{}, Facing: hexmap.East})

	// Declared path runs through the enemy's front hex (3,0) and beyond.
	path := []hexmap.Hex{{Q: 1, R: 0}, {Q: 2, R: 0}, {Q: 3, R: 0}, {Q: 3, R: 1}, {Q: 2, R: 2}}
	res, err := movement.Advance(b, "fig", path, 8)
	require.NoError(t, err)

	assert.True(t, res.Halted)
	assert.Equal(t, 3, res.Moved, "halts on the hex where engagement flipped")
	assert.Equal(t, []string{"enemy"}, res.EngagedBy)

	p, _ := b.Get("fig")
	assert.Equal(t, hexmap.Hex{Q: 3, R: 0}, p.Head, "remaining declared movement is discarded")
}

func TestAdvance_RejectsWhenAlreadyEngaged(t *testing.T) {
	b := hexmap.NewBoard(0)
	mustPlace(t, b, &hexmap.Placement{ID: "enemy", Team: "red", Size: 1, Armed: true, Head: hexmap.Hex{}, Facing: hexmap.East})
	mustPlace(t, b, &hexmap.Placement{ID: "fig", Team: "blue", Size: 1, Head: hexmap.Hex{Q: 1, R: 0}, Facing: hexmap.West})

	_, err := movement.Advance(b, "fig", []hexmap.Hex{{Q: 1, R: 1}}, 8)
	require.ErrorIs(t, err, movement.ErrInvalidMovement)
}

func TestAdvance_EmptyPathIsNoOp(t *testing.T) {
	b := hexmap.NewBoard(0)
	mustPlace(t, b, &hexmap.Placement{ID: "a", Team: "blue", Size: 1, Head: hexmap.Hex{}, Facing: hexmap.East})

	res, err := movement.Advance(b, "a", nil, 8)
	require.NoError(t, err)
	assert.Zero(t, res.Moved)
	assert.False(t, res.Halted)
}

func TestAdvance_TwoFiguresRunScenario(t *testing.T) {
	// Figure A (DX 10) has MA 8, figure B (DX 8) has MA 6; both run. A's
	// movement resolves fully without a forced stop while B is unarmed, and
	// once A ends inside armed B's front hex A is engaged.
	maA := movement.ComputeMA(10, movement.Unencumbered)
	maB := movement.ComputeMA(8, movement.Unencumbered)
	require.Equal(t, 8, maA)
	require.Equal(t, 6, maB)

	b := hexmap.NewBoard(0)
	mustPlace(t, b, &hexmap.Placement{ID: "B", Team: "red", Size: 1, Armed: true, Head: hexmap.Hex{Q: 8, R: 0}, Facing: hexmap.West})
	mustPlace(t, b, &hexmap.Placement{ID: "A", Team: "blue", Size: 1, Head: hexmap.Hex{}, Facing: hexmap.East})

	var path []hexmap.Hex
	for q := 1; q <= maA; q++ {
		path = append(path, hexmap.Hex{Q: q, R: 0})
	}
	res, err := movement.Advance(b, "A", path, maA)
	require.NoError(t, err)

	// B's front hex (7,0) is the 7th step; A halts there, engaged by B.
	assert.True(t, res.Halted)
	assert.Equal(t, 7, res.Moved)
	assert.Equal(t, []string{"B"}, res.EngagedBy)
}
