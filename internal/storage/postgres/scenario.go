package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/melee/internal/game/scenario"
)

// ErrScenarioNotFound is returned when a scenario lookup yields no results.
var ErrScenarioNotFound = errors.New("scenario not found")

// ScenarioSummary is a scenario row without its figures.
type ScenarioSummary struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Figures   int
}

// ScenarioRepository persists scenario snapshots between sessions.
type ScenarioRepository struct {
	db *pgxpool.Pool
}

// NewScenarioRepository creates a ScenarioRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewScenarioRepository(db *pgxpool.Pool) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// Save upserts the snapshot and replaces its figure rows in one transaction.
//
// Postcondition: A later Load returns an equal snapshot, or on error the
// database holds the previous state.
func (r *ScenarioRepository) Save(ctx context.Context, snap scenario.Snapshot) error {
	return InTx(ctx, r.db, func(tx pgx.Tx) error {
		return r.saveTx(ctx, tx, snap)
	})
}

func (r *ScenarioRepository) saveTx(ctx context.Context, tx pgx.Tx, snap scenario.Snapshot) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO scenarios (id, name, board_radius, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, board_radius = EXCLUDED.board_radius, updated_at = NOW()`,
		snap.ID, snap.Name, snap.BoardRadius, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting scenario: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM figures WHERE scenario_id = $1`, snap.ID); err != nil {
		return fmt.Errorf("clearing figures: %w", err)
	}

	for i, f := range snap.Figures {
		conditions, err := json.Marshal(f.Conditions)
		if err != nil {
			return fmt.Errorf("encoding conditions for %s: %w", f.Name, err)
		}
		var weaponName, weaponDamage, weaponState *string
		var weaponWeight *float64
		if f.Weapon != nil {
			weaponName, weaponDamage = &f.Weapon.Name, &f.Weapon.Damage
			weaponWeight, weaponState = &f.Weapon.Weight, &f.Weapon.State
		}
		var shieldName, shieldState *string
		var shieldProtection *int
		var shieldWeight *float64
		if f.Shield != nil {
			shieldName, shieldState = &f.Shield.Name, &f.Shield.State
			shieldProtection, shieldWeight = &f.Shield.Protection, &f.Shield.Weight
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO figures
				(id, scenario_id, position, name, team, size,
				 strength, dexterity, intelligence, wisdom, constitution, charisma,
				 fatigue, body, caster, mana_start, mana,
				 posture, armor, carried_weight,
				 weapon_name, weapon_damage, weapon_weight, weapon_state,
				 shield_name, shield_protection, shield_weight, shield_state,
				 conditions, head_q, head_r, facing, removed)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,
			        $18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33)`,
			f.ID, snap.ID, i, f.Name, f.Team, f.Size,
			f.Attributes.Strength, f.Attributes.Dexterity, f.Attributes.Intelligence,
			f.Attributes.Wisdom, f.Attributes.Constitution, f.Attributes.Charisma,
			f.Fatigue, f.Body, f.Caster, f.ManaStart, f.Mana,
			f.Posture, f.Armor, f.CarriedWeight,
			weaponName, weaponDamage, weaponWeight, weaponState,
			shieldName, shieldProtection, shieldWeight, shieldState,
			conditions, f.Head.Q, f.Head.R, f.Facing, f.Removed,
		)
		if err != nil {
			return fmt.Errorf("inserting figure %s: %w", f.Name, err)
		}
	}
	return nil
}

// Load retrieves a snapshot by scenario ID.
//
// Postcondition: Returns the snapshot with figures in saved position order,
// or ErrScenarioNotFound.
func (r *ScenarioRepository) Load(ctx context.Context, id string) (scenario.Snapshot, error) {
	var snap scenario.Snapshot
	err := r.db.QueryRow(ctx, `
		SELECT id, name, board_radius, created_at
		FROM scenarios WHERE id = $1`, id,
	).Scan(&snap.ID, &snap.Name, &snap.BoardRadius, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scenario.Snapshot{}, ErrScenarioNotFound
		}
		return scenario.Snapshot{}, fmt.Errorf("querying scenario: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, team, size,
		       strength, dexterity, intelligence, wisdom, constitution, charisma,
		       fatigue, body, caster, mana_start, mana,
		       posture, armor, carried_weight,
		       weapon_name, weapon_damage, weapon_weight, weapon_state,
		       shield_name, shield_protection, shield_weight, shield_state,
		       conditions, head_q, head_r, facing, removed
		FROM figures WHERE scenario_id = $1 ORDER BY position ASC`, id,
	)
	if err != nil {
		return scenario.Snapshot{}, fmt.Errorf("listing figures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f scenario.FigureSnapshot
		var conditions []byte
		var weaponName, weaponDamage, weaponState *string
		var weaponWeight *float64
		var shieldName, shieldState *string
		var shieldProtection *int
		var shieldWeight *float64
		if err := rows.Scan(
			&f.ID, &f.Name, &f.Team, &f.Size,
			&f.Attributes.Strength, &f.Attributes.Dexterity, &f.Attributes.Intelligence,
			&f.Attributes.Wisdom, &f.Attributes.Constitution, &f.Attributes.Charisma,
			&f.Fatigue, &f.Body, &f.Caster, &f.ManaStart, &f.Mana,
			&f.Posture, &f.Armor, &f.CarriedWeight,
			&weaponName, &weaponDamage, &weaponWeight, &weaponState,
			&shieldName, &shieldProtection, &shieldWeight, &shieldState,
			&conditions, &f.Head.Q, &f.Head.R, &f.Facing, &f.Removed,
		); err != nil {
			return scenario.Snapshot{}, fmt.Errorf("scanning figure row: %w", err)
		}
		if weaponName != nil {
			f.Weapon = &scenario.WeaponSnapshot{
				Name: *weaponName, Damage: *weaponDamage,
				Weight: *weaponWeight, State: *weaponState,
			}
		}
		if shieldName != nil {
			f.Shield = &scenario.ShieldSnapshot{
				Name: *shieldName, Protection: *shieldProtection,
				Weight: *shieldWeight, State: *shieldState,
			}
		}
		if len(conditions) > 0 {
			if err := json.Unmarshal(conditions, &f.Conditions); err != nil {
				return scenario.Snapshot{}, fmt.Errorf("decoding conditions for %s: %w", f.Name, err)
			}
		}
		snap.Figures = append(snap.Figures, f)
	}
	return snap, rows.Err()
}

// List returns summaries of all saved scenarios, most recently updated first.
func (r *ScenarioRepository) List(ctx context.Context) ([]ScenarioSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.name, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM figures f WHERE f.scenario_id = s.id)
		FROM scenarios s ORDER BY s.updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	defer rows.Close()

	out := make([]ScenarioSummary, 0)
	for rows.Next() {
		var s ScenarioSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt, &s.Figures); err != nil {
			return nil, fmt.Errorf("scanning scenario row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a scenario and its figures.
//
// Postcondition: Returns ErrScenarioNotFound when no row matched.
func (r *ScenarioRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting scenario: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScenarioNotFound
	}
	return nil
}
