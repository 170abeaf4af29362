// Package testutil provides test helpers including container management.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/melee/internal/config"
	"github.com/cory-johannsen/melee/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplyMigrations runs the schema creation SQL directly for tests.
// This avoids requiring the migrate tool in the test environment.
//
// Precondition: Pool must be connected.
// Postcondition: The scenarios and figures tables exist in the test database.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE TABLE IF NOT EXISTS scenarios (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			board_radius INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS figures (
			id UUID PRIMARY KEY,
			scenario_id UUID NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
			position INT NOT NULL,
			name TEXT NOT NULL,
			team TEXT NOT NULL,
			size INT NOT NULL DEFAULT 1,
			strength INT NOT NULL,
			dexterity INT NOT NULL,
			intelligence INT NOT NULL,
			wisdom INT NOT NULL,
			constitution INT NOT NULL,
			charisma INT NOT NULL,
			fatigue INT NOT NULL,
			body INT NOT NULL,
			caster BOOLEAN NOT NULL DEFAULT FALSE,
			mana_start INT NOT NULL DEFAULT 0,
			mana INT NOT NULL DEFAULT 0,
			posture TEXT NOT NULL DEFAULT 'standing',
			armor INT NOT NULL DEFAULT 0,
			carried_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			weapon_name TEXT,
			weapon_damage TEXT,
			weapon_weight DOUBLE PRECISION,
			weapon_state TEXT,
			shield_name TEXT,
			shield_protection INT,
			shield_weight DOUBLE PRECISION,
			shield_state TEXT,
			conditions JSONB NOT NULL DEFAULT '[]',
			head_q INT NOT NULL DEFAULT 0,
			head_r INT NOT NULL DEFAULT 0,
			facing INT NOT NULL DEFAULT 0,
			removed BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (scenario_id, position),
			UNIQUE (scenario_id, name)
		);
		CREATE INDEX IF NOT EXISTS idx_figures_scenario ON figures (scenario_id);
	`

	_, err := pc.RawPool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied [%s]", time.Since(start))
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.Config.User, pc.Config.Password,
		pc.Config.Host, pc.Config.Port,
		pc.Config.Name, pc.Config.SSLMode,
	)
}
