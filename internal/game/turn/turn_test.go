package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/game/action"
	"github.com/cory-johannsen/melee/internal/game/condition"
	"github.com/cory-johannsen/melee/internal/game/dice"
	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/game/movement"
	"github.com/cory-johannsen/melee/internal/game/resolve"
	"github.com/cory-johannsen/melee/internal/scripting"
)

// scriptedSource replays fixed die faces so sequencing tests can pin
// outcomes exactly.
type scriptedSource struct {
	faces []int
	i     int
}

func (s *scriptedSource) Intn(n int) int {
	if s.i >= len(s.faces) {
		panic("scriptedSource: out of faces")
	}
	f := s.faces[s.i]
	s.i++
	if f < 1 || f > n {
		panic("scriptedSource: face out of range")
	}
	return f - 1
}

type fixture struct {
	seq   *Sequencer
	board *hexmap.Board
}

func mustFigure(t *testing.T, name string, dex int, opts ...figure.Option) *figure.Figure {
	t.Helper()
	attr := figure.Attributes{
		Strength: 12, Dexterity: dex, Intelligence: 10,
		Wisdom: 8, Constitution: 12, Charisma: 10,
	}
	f, err := figure.New(name, name, attr, opts...)
	require.NoError(t, err)
	return f
}

func sword() figure.Option {
	return figure.WithWeapon(figure.Weapon{Name: "broadsword", Damage: "2d6+1", Weight: 5})
}

func place(t *testing.T, b *hexmap.Board, f *figure.Figure, head hexmap.Hex, facing hexmap.Direction) {
	t.Helper()
	require.NoError(t, b.Place(&hexmap.Placement{
		ID: f.ID.String(), Team: f.Team, Size: int(f.Size),
		Armed: f.Armed(), Prone: f.Posture == figure.Prone,
		Head: head, Facing: facing,
	}))
}

func newFixture(t *testing.T, cfg Config, figures []*figure.Figure, faces ...int) fixture {
	t.Helper()
	var src dice.Source
	if len(faces) > 0 {
		src = &scriptedSource{faces: faces}
	} else {
		src = dice.NewSeededSource(1)
	}
	roller := dice.NewRoller(src, zap.NewNop())
	resolver := resolve.NewResolver(dice.DefaultTables(), condition.Builtin(), roller, cfg.Clamp, zap.NewNop())
	board := hexmap.NewBoard(20)
	seq := NewSequencer(board, figures, action.DefaultTable(), resolver, roller, cfg, zap.NewNop())
	return fixture{seq: seq, board: board}
}

func TestPhaseOrderEnforced(t *testing.T) {
	a := mustFigure(t, "Aela", 10, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{a})
	place(t, fx.board, a, hexmap.Hex{}, hexmap.East)

	require.ErrorIs(t, fx.seq.FinishRenewals(), ErrWrongPhase)
	require.ErrorIs(t, fx.seq.FinishMovement(), ErrWrongPhase)
	_, err := fx.seq.NextAction()
	require.ErrorIs(t, err, ErrWrongPhase)
	_, err = fx.seq.ResolveRetreats()
	require.ErrorIs(t, err, ErrWrongPhase)
	require.ErrorIs(t, fx.seq.Cleanup(), ErrWrongPhase)

	require.NoError(t, fx.seq.BeginTurn())
	require.ErrorIs(t, fx.seq.BeginTurn(), ErrWrongPhase)
	assert.Equal(t, PhaseRenewSpells, fx.seq.Phase())
}

func TestInitiativeOrderByAdjustedDX(t *testing.T) {
	slow := mustFigure(t, "Borin", 8, sword())
	fast := mustFigure(t, "Aela", 12, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{slow, fast})
	place(t, fx.board, slow, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, fast, hexmap.Hex{Q: 5, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	order := fx.seq.Order()
	require.Len(t, order, 2)
	assert.Equal(t, fast.ID, order[0])
	assert.Equal(t, slow.ID, order[1])
}

func TestInitiativeTieBreakInputOrder(t *testing.T) {
	first := mustFigure(t, "Aela", 10, sword())
	second := mustFigure(t, "Borin", 10, sword())
	fx := newFixture(t, Config{TieBreak: TieBreakInputOrder}, []*figure.Figure{first, second})
	place(t, fx.board, first, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, second, hexmap.Hex{Q: 5, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	assert.Equal(t, first.ID, fx.seq.Order()[0])
}

func TestInitiativeTieBreakRollOff(t *testing.T) {
	first := mustFigure(t, "Aela", 10, sword())
	second := mustFigure(t, "Borin", 10, sword())
	// First rolls 2+2+2=6, second rolls 5+5+5=15: second acts first.
	fx := newFixture(t, Config{TieBreak: TieBreakRollOff}, []*figure.Figure{first, second},
		2, 2, 2, 5, 5, 5)
	place(t, fx.board, first, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, second, hexmap.Hex{Q: 5, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	assert.Equal(t, second.ID, fx.seq.Order()[0])
}

func TestConditionPenaltyLowersInitiative(t *testing.T) {
	hurt := mustFigure(t, "Aela", 10, sword())
	sound := mustFigure(t, "Borin", 9, sword())
	def := &condition.Def{ID: "dazed", DurationType: "turns", DXPenalty: 2}
	require.NoError(t, hurt.Conditions.Apply(def, 3))

	fx := newFixture(t, Config{}, []*figure.Figure{hurt, sound})
	place(t, fx.board, hurt, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, sound, hexmap.Hex{Q: 5, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	assert.Equal(t, sound.ID, fx.seq.Order()[0])
}

// attackTurn drives one full turn where atk attacks def from adjacency.
func attackTurn(t *testing.T, fx fixture, atk, def *figure.Figure) ActionRecord {
	t.Helper()
	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.Declare(atk.ID, Declaration{Kind: action.Attack, Target: def.ID}))
	require.NoError(t, fx.seq.FinishMovement())

	var attackRec ActionRecord
	for !fx.seq.ActionsDone() {
		rec, err := fx.seq.NextAction()
		require.NoError(t, err)
		if rec.Actor == atk.ID {
			attackRec = rec
		}
	}
	return attackRec
}

func TestAttackSlotResolvesAndQueuesRetreat(t *testing.T) {
	atk := mustFigure(t, "Aela", 12, sword())
	def := mustFigure(t, "Borin", 8, sword())
	// To-hit 3+3+3=9 vs DX 12, damage 2d6+1 with faces 4,4 = 9.
	fx := newFixture(t, Config{}, []*figure.Figure{atk, def}, 3, 3, 3, 4, 4)
	place(t, fx.board, atk, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, def, hexmap.Hex{Q: 1, R: 0}, hexmap.West)

	rec := attackTurn(t, fx, atk, def)
	require.NotNil(t, rec.Attack)
	assert.Equal(t, 9, rec.Attack.DamageDealt)
	assert.Equal(t, 12-9, def.Fatigue.Current)

	// Aela dealt damage and took none, so Borin gives ground.
	results, err := fx.seq.ResolveRetreats()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Pushed)
	dp, ok := fx.board.Get(def.ID.String())
	require.True(t, ok)
	assert.Equal(t, hexmap.Hex{Q: 2, R: 0}, dp.Head)

	require.NoError(t, fx.seq.Cleanup())
	assert.Equal(t, 2, fx.seq.Turn())
	assert.Equal(t, PhaseInitiative, fx.seq.Phase())
}

func TestRetreatOnAnyUnansweredDamage(t *testing.T) {
	atk := mustFigure(t, "Aela", 12, sword())
	def := mustFigure(t, "Borin", 8, sword())
	// To-hit 3+3+3=9 vs DX 12, damage 2d6+1 with faces 1,1 = 3.
	fx := newFixture(t, Config{}, []*figure.Figure{atk, def}, 3, 3, 3, 1, 1)
	place(t, fx.board, atk, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, def, hexmap.Hex{Q: 1, R: 0}, hexmap.West)

	rec := attackTurn(t, fx, atk, def)
	require.NotNil(t, rec.Attack)
	assert.Equal(t, 3, rec.Attack.DamageDealt)

	// Three unanswered points still earn the push.
	results, err := fx.seq.ResolveRetreats()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Pushed)
	dp, ok := fx.board.Get(def.ID.String())
	require.True(t, ok)
	assert.Equal(t, hexmap.Hex{Q: 2, R: 0}, dp.Head)
}

func TestNoRetreatWhenAttackerAlsoTookDamage(t *testing.T) {
	atk := mustFigure(t, "Aela", 12, sword())
	def := mustFigure(t, "Borin", 10, sword())
	// Aela hits for 3, Borin answers for 3: neither exchange was
	// one-sided, so nobody pushes.
	fx := newFixture(t, Config{}, []*figure.Figure{atk, def}, 3, 3, 3, 1, 1, 3, 3, 3, 1, 1)
	place(t, fx.board, atk, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, def, hexmap.Hex{Q: 1, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.Declare(atk.ID, Declaration{Kind: action.Attack, Target: def.ID}))
	require.NoError(t, fx.seq.Declare(def.ID, Declaration{Kind: action.Attack, Target: atk.ID}))
	require.NoError(t, fx.seq.FinishMovement())
	for !fx.seq.ActionsDone() {
		_, err := fx.seq.NextAction()
		require.NoError(t, err)
	}
	assert.Equal(t, 9, atk.Fatigue.Current)
	assert.Equal(t, 9, def.Fatigue.Current)

	results, err := fx.seq.ResolveRetreats()
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetreatWinnerAdvanceOption(t *testing.T) {
	atk := mustFigure(t, "Aela", 12, sword())
	def := mustFigure(t, "Borin", 8, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{atk, def}, 3, 3, 3, 4, 4)
	place(t, fx.board, atk, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, def, hexmap.Hex{Q: 1, R: 0}, hexmap.West)

	rec := attackTurn(t, fx, atk, def)
	require.NotNil(t, rec.Attack)
	require.NoError(t, fx.seq.SetRetreatAdvance(atk.ID, true))

	results, err := fx.seq.ResolveRetreats()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Pushed)
	assert.True(t, results[0].Advanced)
	ap, ok := fx.board.Get(atk.ID.String())
	require.True(t, ok)
	assert.Equal(t, hexmap.Hex{Q: 1, R: 0}, ap.Head)
}

func TestDefendedAttackUsesFourDice(t *testing.T) {
	atk := mustFigure(t, "Aela", 12, sword())
	def := mustFigure(t, "Borin", 8, sword())
	// Versus table: 3+3+3+4=13 vs DX 12 misses.
	fx := newFixture(t, Config{}, []*figure.Figure{atk, def}, 3, 3, 3, 4)
	place(t, fx.board, atk, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, def, hexmap.Hex{Q: 1, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.Declare(atk.ID, Declaration{Kind: action.Attack, Target: def.ID}))
	require.NoError(t, fx.seq.Declare(def.ID, Declaration{Kind: action.Defend}))
	require.NoError(t, fx.seq.FinishMovement())

	rec, err := fx.seq.NextAction()
	require.NoError(t, err)
	require.NotNil(t, rec.Attack)
	assert.Len(t, rec.Attack.Roll.Dice, 4)
	assert.False(t, rec.Attack.Outcome.Hit())
	assert.Equal(t, 12, def.Fatigue.Current)
}

func TestRunHaltedByEngagementForfeitsAttack(t *testing.T) {
	runner := mustFigure(t, "Aela", 10, sword())
	blocker := mustFigure(t, "Borin", 8, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{runner, blocker})
	place(t, fx.board, runner, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, blocker, hexmap.Hex{Q: 8, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.Declare(runner.ID, Declaration{Kind: action.Run}))

	path := make([]hexmap.Hex, 8)
	for i := range path {
		path[i] = hexmap.Hex{Q: i + 1, R: 0}
	}
	res, err := fx.seq.Move(runner.ID, path)
	require.NoError(t, err)
	assert.True(t, res.Halted)
	assert.Equal(t, 7, res.Moved)

	require.NoError(t, fx.seq.FinishMovement())
	assert.Equal(t, figure.Engaged, runner.Engagement)
	assert.Equal(t, blocker.ID, runner.EngagingTarget)

	// Engaged after a full move, the runner's only option is to pass. The
	// run's fatigue is not spent when the declaration lapses.
	rec, err := fx.seq.NextAction()
	require.NoError(t, err)
	assert.Equal(t, runner.ID, rec.Actor)
	assert.True(t, rec.Skipped)
	assert.Equal(t, action.Pass, rec.Kind)
	assert.Equal(t, 12, runner.Fatigue.Current)
}

func TestMovePathBeyondDeclarationCapRejected(t *testing.T) {
	a := mustFigure(t, "Aela", 10, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{a})
	place(t, fx.board, a, hexmap.Hex{}, hexmap.East)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.Declare(a.ID, Declaration{Kind: action.Move}))

	// A declared move caps at half allowance: 4 of 8.
	path := make([]hexmap.Hex, 5)
	for i := range path {
		path[i] = hexmap.Hex{Q: i + 1, R: 0}
	}
	_, err := fx.seq.Move(a.ID, path)
	require.Error(t, err)

	ap, ok := fx.board.Get(a.ID.String())
	require.True(t, ok)
	assert.Equal(t, hexmap.Hex{}, ap.Head)
}

func TestMovementAllowanceCumulativeAcrossCalls(t *testing.T) {
	runner := mustFigure(t, "Aela", 10, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{runner})
	place(t, fx.board, runner, hexmap.Hex{Q: 0, R: 0}, hexmap.East)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.Declare(runner.ID, Declaration{Kind: action.Run}))

	first := []hexmap.Hex{{Q: 1, R: 0}, {Q: 2, R: 0}, {Q: 3, R: 0}, {Q: 4, R: 0}, {Q: 5, R: 0}}
	res, err := fx.seq.Move(runner.ID, first)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Moved)

	// MA 8 leaves three hexes; a five-hex follow-up does not fit.
	second := []hexmap.Hex{{Q: 6, R: 0}, {Q: 7, R: 0}, {Q: 8, R: 0}, {Q: 9, R: 0}, {Q: 10, R: 0}}
	_, err = fx.seq.Move(runner.ID, second)
	require.ErrorIs(t, err, movement.ErrInvalidMovement)

	res, err = fx.seq.Move(runner.ID, []hexmap.Hex{{Q: 6, R: 0}, {Q: 7, R: 0}, {Q: 8, R: 0}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Moved)

	_, err = fx.seq.Move(runner.ID, []hexmap.Hex{{Q: 9, R: 0}})
	require.ErrorIs(t, err, movement.ErrInvalidMovement)
}

func TestCancelBeforeSlot(t *testing.T) {
	atk := mustFigure(t, "Aela", 12, sword())
	def := mustFigure(t, "Borin", 8, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{atk, def})
	place(t, fx.board, atk, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, def, hexmap.Hex{Q: 1, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.Declare(atk.ID, Declaration{Kind: action.Attack, Target: def.ID}))
	require.NoError(t, fx.seq.FinishMovement())

	require.NoError(t, fx.seq.Cancel(atk.ID, action.Defend))
	rec, err := fx.seq.NextAction()
	require.NoError(t, err)
	assert.Equal(t, action.Defend, rec.Kind)
	assert.Nil(t, rec.Attack)
	assert.Equal(t, 12, def.Fatigue.Current)
}

func TestCancelAfterSlotRejected(t *testing.T) {
	atk := mustFigure(t, "Aela", 12, sword())
	def := mustFigure(t, "Borin", 8, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{atk, def}, 5, 5, 6)
	place(t, fx.board, atk, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, def, hexmap.Hex{Q: 1, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.Declare(atk.ID, Declaration{Kind: action.Attack, Target: def.ID}))
	require.NoError(t, fx.seq.FinishMovement())

	_, err := fx.seq.NextAction()
	require.NoError(t, err)
	require.ErrorIs(t, fx.seq.Cancel(atk.ID, action.Defend), action.ErrIllegal)
}

func TestTwelveRunsExhaust(t *testing.T) {
	a := mustFigure(t, "Aela", 10, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{a})
	place(t, fx.board, a, hexmap.Hex{}, hexmap.East)

	for turn := 1; turn <= 12; turn++ {
		require.NoError(t, fx.seq.BeginTurn())
		require.NoError(t, fx.seq.FinishRenewals())
		require.NoError(t, fx.seq.Declare(a.ID, Declaration{Kind: action.Run}))
		_, err := fx.seq.Move(a.ID, []hexmap.Hex{{Q: turn, R: 0}})
		require.NoError(t, err)
		require.NoError(t, fx.seq.FinishMovement())
		for !fx.seq.ActionsDone() {
			_, err := fx.seq.NextAction()
			require.NoError(t, err)
		}
		_, err = fx.seq.ResolveRetreats()
		require.NoError(t, err)
		require.NoError(t, fx.seq.Cleanup())
	}

	assert.Equal(t, 0, a.Fatigue.Current)
	assert.True(t, a.Status().Exhausted)
	assert.Equal(t, 4, a.MA())
}

func TestCleanupTicksBleeding(t *testing.T) {
	hooks := scripting.NewHooks(10000)
	a := mustFigure(t, "Aela", 10, sword())
	a.Conditions = condition.NewActiveSet(hooks)
	reg := condition.Builtin()
	bleeding, ok := reg.Get("bleeding")
	require.True(t, ok)
	require.NoError(t, a.Conditions.Apply(bleeding, 0))
	require.NoError(t, a.Conditions.Apply(bleeding, 0))

	fx := newFixture(t, Config{}, []*figure.Figure{a})
	place(t, fx.board, a, hexmap.Hex{}, hexmap.East)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.FinishMovement())
	for !fx.seq.ActionsDone() {
		_, err := fx.seq.NextAction()
		require.NoError(t, err)
	}
	_, err := fx.seq.ResolveRetreats()
	require.NoError(t, err)
	require.NoError(t, fx.seq.Cleanup())

	assert.Equal(t, 12-2, a.Fatigue.Current)
}

func TestCleanupRemovesDeadFromBoard(t *testing.T) {
	a := mustFigure(t, "Aela", 10, sword())
	b := mustFigure(t, "Borin", 8, sword())
	fx := newFixture(t, Config{}, []*figure.Figure{a, b})
	place(t, fx.board, a, hexmap.Hex{Q: 0, R: 0}, hexmap.East)
	place(t, fx.board, b, hexmap.Hex{Q: 1, R: 0}, hexmap.West)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.FinishRenewals())
	require.NoError(t, fx.seq.FinishMovement())
	for !fx.seq.ActionsDone() {
		_, err := fx.seq.NextAction()
		require.NoError(t, err)
	}
	_, err := fx.seq.ResolveRetreats()
	require.NoError(t, err)

	// Down a figure outside the action flow, then clean up.
	b.ApplyDamage(figure.PoolBody, 100)
	require.NoError(t, fx.seq.Cleanup())

	_, ok := fx.board.Get(b.ID.String())
	assert.False(t, ok)
	assert.Equal(t, figure.Disengaged, a.Engagement)
}

func TestRenewSpellSpendsMana(t *testing.T) {
	caster := mustFigure(t, "Mira", 10, figure.WithMana(8))
	fx := newFixture(t, Config{}, []*figure.Figure{caster})
	place(t, fx.board, caster, hexmap.Hex{}, hexmap.East)

	require.NoError(t, fx.seq.BeginTurn())
	require.NoError(t, fx.seq.RenewSpell(caster.ID, resolve.Spell{Name: "shield", ManaCost: 2}))
	assert.Equal(t, 6, caster.Mana.Current)

	require.Error(t, fx.seq.RenewSpell(caster.ID, resolve.Spell{Name: "storm", ManaCost: 20}))
	assert.Equal(t, 6, caster.Mana.Current)
}
