package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/game/scenario"
	"github.com/cory-johannsen/melee/internal/storage/postgres"
	"github.com/cory-johannsen/melee/internal/testutil"
)

func setupScenarioRepo(t *testing.T) *postgres.ScenarioRepository {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewScenarioRepository(pc.RawPool)
}

func makeTestSnapshot(name string) scenario.Snapshot {
	return scenario.Snapshot{
		ID:          uuid.New().String(),
		Name:        name,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
		BoardRadius: 20,
		Figures: []scenario.FigureSnapshot{
			{
				ID:   uuid.New().String(),
				Name: "Thorn",
				Team: "red",
				Size: 1,
				Attributes: figure.Attributes{
					Strength: 12, Dexterity: 11, Intelligence: 9,
					Wisdom: 8, Constitution: 12, Charisma: 10,
				},
				Fatigue:       9,
				Body:          12,
				Posture:       "standing",
				Armor:         2,
				CarriedWeight: 14.5,
				Weapon: &scenario.WeaponSnapshot{
					Name:   "broadsword",
					Damage: "2d6",
					Weight: 5,
					State:  "ready",
				},
				Shield: &scenario.ShieldSnapshot{
					Name:       "small shield",
					Protection: 1,
					Weight:     8,
					State:      "ready",
				},
				Conditions: []scenario.ConditionSnapshot{
					{ID: "bleeding", Stacks: 2},
				},
				Head:   hexmap.Hex{Q: -1, R: 2},
				Facing: 3,
			},
			{
				ID:   uuid.New().String(),
				Name: "Vexa",
				Team: "blue",
				Size: 1,
				Attributes: figure.Attributes{
					Strength: 9, Dexterity: 13, Intelligence: 14,
					Wisdom: 11, Constitution: 9, Charisma: 12,
				},
				Fatigue:   7,
				Body:      9,
				Caster:    true,
				ManaStart: 14,
				Mana:      11,
				Posture:   "prone",
				Head:      hexmap.Hex{Q: 4, R: -2},
				Facing:    0,
			},
		},
	}
}

func TestScenarioRepository_SaveLoad(t *testing.T) {
	repo := setupScenarioRepo(t)
	ctx := context.Background()

	snap := makeTestSnapshot("arena duel")
	require.NoError(t, repo.Save(ctx, snap))

	loaded, err := repo.Load(ctx, snap.ID)
	require.NoError(t, err)

	assert.Equal(t, snap.ID, loaded.ID)
	assert.Equal(t, "arena duel", loaded.Name)
	assert.Equal(t, 20, loaded.BoardRadius)
	assert.WithinDuration(t, snap.CreatedAt, loaded.CreatedAt, time.Second)
	require.Len(t, loaded.Figures, 2)

	thorn := loaded.Figures[0]
	assert.Equal(t, snap.Figures[0].ID, thorn.ID)
	assert.Equal(t, "Thorn", thorn.Name)
	assert.Equal(t, "red", thorn.Team)
	assert.Equal(t, snap.Figures[0].Attributes, thorn.Attributes)
	assert.Equal(t, 9, thorn.Fatigue)
	assert.Equal(t, 12, thorn.Body)
	assert.Equal(t, 2, thorn.Armor)
	assert.Equal(t, 14.5, thorn.CarriedWeight)
	require.NotNil(t, thorn.Weapon)
	assert.Equal(t, *snap.Figures[0].Weapon, *thorn.Weapon)
	require.NotNil(t, thorn.Shield)
	assert.Equal(t, *snap.Figures[0].Shield, *thorn.Shield)
	require.Len(t, thorn.Conditions, 1)
	assert.Equal(t, scenario.ConditionSnapshot{ID: "bleeding", Stacks: 2}, thorn.Conditions[0])
	assert.Equal(t, hexmap.Hex{Q: -1, R: 2}, thorn.Head)
	assert.Equal(t, 3, thorn.Facing)

	vexa := loaded.Figures[1]
	assert.Equal(t, "Vexa", vexa.Name)
	assert.True(t, vexa.Caster)
	assert.Equal(t, 14, vexa.ManaStart)
	assert.Equal(t, 11, vexa.Mana)
	assert.Equal(t, "prone", vexa.Posture)
	assert.Nil(t, vexa.Weapon)
	assert.Nil(t, vexa.Shield)
	assert.Empty(t, vexa.Conditions)
}

func TestScenarioRepository_SaveReplacesFigures(t *testing.T) {
	repo := setupScenarioRepo(t)
	ctx := context.Background()

	snap := makeTestSnapshot("running fight")
	require.NoError(t, repo.Save(ctx, snap))

	snap.Name = "running fight, turn 4"
	snap.Figures[0].Fatigue = 3
	snap.Figures[0].Weapon.State = "dropped"
	snap.Figures = snap.Figures[:1]
	require.NoError(t, repo.Save(ctx, snap))

	loaded, err := repo.Load(ctx, snap.ID)
	require.NoError(t, err)

	assert.Equal(t, "running fight, turn 4", loaded.Name)
	require.Len(t, loaded.Figures, 1)
	assert.Equal(t, 3, loaded.Figures[0].Fatigue)
	require.NotNil(t, loaded.Figures[0].Weapon)
	assert.Equal(t, "dropped", loaded.Figures[0].Weapon.State)
}

func TestScenarioRepository_List(t *testing.T) {
	repo := setupScenarioRepo(t)
	ctx := context.Background()

	first := makeTestSnapshot("first")
	second := makeTestSnapshot("second")
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	summaries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[string]postgres.ScenarioSummary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}
	require.Contains(t, byID, first.ID)
	require.Contains(t, byID, second.ID)
	assert.Equal(t, "first", byID[first.ID].Name)
	assert.Equal(t, 2, byID[first.ID].Figures)
	assert.Equal(t, "second", byID[second.ID].Name)
}

func TestScenarioRepository_Delete(t *testing.T) {
	repo := setupScenarioRepo(t)
	ctx := context.Background()

	snap := makeTestSnapshot("doomed")
	require.NoError(t, repo.Save(ctx, snap))
	require.NoError(t, repo.Delete(ctx, snap.ID))

	_, err := repo.Load(ctx, snap.ID)
	assert.ErrorIs(t, err, postgres.ErrScenarioNotFound)

	err = repo.Delete(ctx, snap.ID)
	assert.ErrorIs(t, err, postgres.ErrScenarioNotFound)
}

func TestScenarioRepository_LoadMissing(t *testing.T) {
	repo := setupScenarioRepo(t)

	_, err := repo.Load(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, postgres.ErrScenarioNotFound)
}
