package figure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/movement"
)

func baseAttrs() figure.Attributes {
	return figure.Attributes{
		Strength: 12, Dexterity: 10, Intelligence: 9,
		Wisdom: 8, Constitution: 12, Charisma: 10,
	}
}

func newFigure(t *testing.T, opts ...figure.Option) *figure.Figure {
	t.Helper()
	f, err := figure.New("Thorn", "blue", baseAttrs(), opts...)
	require.NoError(t, err)
	return f
}

func TestNew_PoolsFromAttributes(t *testing.T) {
	f := newFigure(t)
	assert.Equal(t, 12, f.Fatigue.Start)
	assert.Equal(t, 12, f.Fatigue.Current)
	assert.Equal(t, 12, f.Body.Start)
	assert.False(t, f.Caster)
	assert.Equal(t, figure.Standing, f.Posture)
	assert.Equal(t, figure.Disengaged, f.Engagement)
}

func TestNew_RejectsNonPositiveAttribute(t *testing.T) {
	attrs := baseAttrs()
	attrs.Dexterity = 0
	_, err := figure.New("X", "blue", attrs)
	assert.Error(t, err)
}

func TestNew_RejectsEmptyName(t *testing.T) {
	_, err := figure.New("", "blue", baseAttrs())
	assert.Error(t, err)
}

func TestApplyDamage_Transitions(t *testing.T) {
	f := newFigure(t)

	tr := f.ApplyDamage(figure.PoolBody, 5)
	assert.Equal(t, figure.TransitionNone, tr)
	assert.Equal(t, 7, f.Body.Current)
	assert.True(t, f.Alive())

	tr = f.ApplyDamage(figure.PoolBody, 7)
	assert.Equal(t, figure.TransitionUnconscious, tr)
	assert.True(t, f.Status().Unconscious)
	assert.False(t, f.Status().Dead)
	assert.False(t, f.Alive())

	// Death threshold is -2 * start = -24.
	tr = f.ApplyDamage(figure.PoolBody, 24)
	assert.Equal(t, figure.TransitionDead, tr)
	assert.True(t, f.Status().Dead)
	assert.False(t, f.Status().Unconscious)
	assert.Equal(t, -24, f.Body.Current)
}

func TestApplyDamage_OverkillStopsArithmetic(t *testing.T) {
	f := newFigure(t)
	tr := f.ApplyDamage(figure.PoolBody, 1000)
	assert.Equal(t, figure.TransitionOverkill, tr)
	assert.Equal(t, -24, f.Body.Current, "arithmetic never continues past the death threshold")
	assert.True(t, f.Status().Dead)
}

func TestSpendFatigue_ExhaustionExactlyAtFullSpend(t *testing.T) {
	// Fatigue 12, a run costs 1 per turn: exhaustion lands exactly on the
	// turn spent fatigue reaches 12, not before.
	f := newFigure(t)
	for turn := 1; turn <= 12; turn++ {
		f.SpendFatigue(1)
		if turn < 12 {
			assert.False(t, f.Status().Exhausted, "turn %d", turn)
		} else {
			assert.True(t, f.Status().Exhausted, "turn %d", turn)
		}
	}
}

func TestExhaustion_HalvesMA(t *testing.T) {
	f := newFigure(t)
	require.Equal(t, 8, f.MA())
	f.SpendFatigue(12)
	assert.Equal(t, 4, f.MA())
	f.RecoverFatigue(1)
	assert.Equal(t, 8, f.MA(), "recovery clears exhaustion immediately")
}

func TestRecoverFatigue_CapsAtStart(t *testing.T) {
	f := newFigure(t)
	f.SpendFatigue(3)
	f.RecoverFatigue(100)
	assert.Equal(t, 12, f.Fatigue.Current)
}

func TestSetEncumbrance_MAReflectsLoadImmediately(t *testing.T) {
	f := newFigure(t)
	require.Equal(t, 8, f.MA())

	f.SetEncumbrance(20) // 20 > 1.5*12 → medium
	assert.Equal(t, movement.Medium, f.Load)
	assert.Equal(t, 6, f.MA(), "MA derives from load on every call, never cached")

	f.SetEncumbrance(0)
	assert.Equal(t, 8, f.MA())
}

func TestSpendMana(t *testing.T) {
	f := newFigure(t, figure.WithMana(10))
	require.True(t, f.Caster)
	require.NoError(t, f.SpendMana(4))
	assert.Equal(t, 6, f.Mana.Current)

	err := f.SpendMana(7)
	require.Error(t, err)
	assert.Equal(t, 6, f.Mana.Current, "no mutation on rejection")
}

func TestSpendMana_NonCaster(t *testing.T) {
	f := newFigure(t)
	assert.Error(t, f.SpendMana(1))
}

func TestRestorePools_RederivesFlags(t *testing.T) {
	f := newFigure(t)
	f.RestorePools(0, -5, 0)
	assert.True(t, f.Status().Exhausted)
	assert.True(t, f.Status().Unconscious)
	assert.False(t, f.Status().Dead)

	// Out-of-range persisted values clamp instead of producing impossible state.
	f.RestorePools(100, -100, 0)
	assert.Equal(t, 12, f.Fatigue.Current)
	assert.Equal(t, -24, f.Body.Current)
	assert.True(t, f.Status().Dead)
}

func TestFlags_Property_AlwaysConsistentWithPools(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f, err := figure.New("P", "blue", baseAttrs())
		require.NoError(rt, err)
		n := rapid.IntRange(1, 20).Draw(rt, "mutations")
		for i := 0; i < n; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				f.ApplyDamage(figure.PoolBody, rapid.IntRange(0, 15).Draw(rt, "dmg"))
			case 1:
				f.SpendFatigue(rapid.IntRange(0, 6).Draw(rt, "spend"))
			case 2:
				f.RecoverFatigue(rapid.IntRange(0, 6).Draw(rt, "recover"))
			}
			st := f.Status()
			assert.Equal(rt, f.Body.Current <= -2*f.Body.Start, st.Dead)
			assert.Equal(rt, !st.Dead && f.Body.Current <= 0, st.Unconscious)
			assert.Equal(rt, f.Fatigue.Current <= 0, st.Exhausted)
			assert.GreaterOrEqual(rt, f.Body.Current, -2*f.Body.Start)
		}
	})
}

func TestWeaponSlots(t *testing.T) {
	f := newFigure(t, figure.WithWeapon(figure.Weapon{Name: "broadsword", Damage: "2d6", Weight: 5}))
	require.True(t, f.Armed())

	f.DropWeapon()
	assert.False(t, f.Armed())
	f.ReadyWeapon()
	assert.True(t, f.Armed())

	f.BreakWeapon()
	assert.False(t, f.Armed())
	f.ReadyWeapon()
	assert.False(t, f.Armed(), "broken weapons never become ready again")
}

func TestViews_ManaVisibilityBoundary(t *testing.T) {
	f := newFigure(t, figure.WithMana(9))

	gm := f.GMView()
	assert.Equal(t, 9, gm.Mana.Current)
	assert.True(t, gm.Caster)

	// The compiler enforces the boundary: PlayerView has no mana field.
	pv := f.PlayerView()
	assert.Equal(t, "Thorn", pv.Name)
	assert.NotContains(t, f.Describe(figure.RolePlayer), "MN")
	assert.Contains(t, f.Describe(figure.RoleGM), "MN 9/9")
}

func TestProtection_IncludesReadyShieldOnly(t *testing.T) {
	f := newFigure(t,
		figure.WithArmor(2),
		figure.WithShield(figure.Shield{Name: "large shield", Protection: 2, Weight: 15}),
	)
	assert.Equal(t, 4, f.Protection())
	f.Shield.State = figure.Dropped
	assert.Equal(t, 2, f.Protection())
}
