// Package main provides the GM tool binary: a Telnet console serving
// one scenario, with optional PostgreSQL persistence.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/config"
	"github.com/cory-johannsen/melee/internal/frontend/console"
	"github.com/cory-johannsen/melee/internal/frontend/telnet"
	"github.com/cory-johannsen/melee/internal/game/action"
	"github.com/cory-johannsen/melee/internal/game/condition"
	"github.com/cory-johannsen/melee/internal/game/dice"
	"github.com/cory-johannsen/melee/internal/game/resolve"
	"github.com/cory-johannsen/melee/internal/game/scenario"
	"github.com/cory-johannsen/melee/internal/game/turn"
	"github.com/cory-johannsen/melee/internal/observability"
	"github.com/cory-johannsen/melee/internal/scripting"
	"github.com/cory-johannsen/melee/internal/server"
	"github.com/cory-johannsen/melee/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "scenarios/demo.yaml", "scenario YAML to serve")
	persist := flag.Bool("persist", false, "connect to PostgreSQL and enable the save command")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Rule content; empty paths select the built-in defaults.
	tables := dice.DefaultTables()
	if cfg.Rules.TablesPath != "" {
		tables, err = dice.LoadTables(cfg.Rules.TablesPath)
		if err != nil {
			logger.Fatal("loading outcome tables", zap.Error(err))
		}
	}
	actTable := action.DefaultTable()
	if cfg.Rules.ActionsPath != "" {
		actTable, err = action.LoadTable(cfg.Rules.ActionsPath)
		if err != nil {
			logger.Fatal("loading action table", zap.Error(err))
		}
	}
	condRegistry := condition.Builtin()
	if cfg.Rules.ConditionsDir != "" {
		condRegistry, err = condition.LoadDirectory(cfg.Rules.ConditionsDir)
		if err != nil {
			logger.Fatal("loading condition definitions", zap.Error(err))
		}
	}
	hooks := scripting.NewHooks(cfg.Rules.LuaInstructionLimit)
	logger.Info("rule content loaded",
		zap.Int("conditions", len(condRegistry.All())),
	)

	clamp := resolve.Clamp{Floor: cfg.Engine.AdjDXFloor, Ceiling: cfg.Engine.AdjDXCeiling}
	roller := dice.NewRoller(dice.NewCryptoSource(), logger)
	resolver := resolve.NewResolver(tables, condRegistry, roller, clamp, logger)

	scn, err := scenario.Load(*scenarioPath, condRegistry, hooks, scenario.SystemClock{})
	if err != nil {
		logger.Fatal("loading scenario", zap.String("path", *scenarioPath), zap.Error(err))
	}

	tieBreak := turn.TieBreakInputOrder
	if cfg.Engine.TieBreak == "roll_off" {
		tieBreak = turn.TieBreakRollOff
	}
	err = scn.Begin(scenario.Deps{
		Table:    actTable,
		Resolver: resolver,
		Roller:   roller,
		Config: turn.Config{
			TieBreak: tieBreak,
			Clamp:    clamp,
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("starting scenario", zap.Error(err))
	}
	logger.Info("scenario ready",
		zap.String("scenario", scn.Name),
		zap.Int("figures", len(scn.Figures())),
	)

	lifecycle := server.NewLifecycle(logger)

	var saver console.Saver
	if *persist {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		saver = postgres.NewScenarioRepository(pool.DB())

		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				for {
					time.Sleep(30 * time.Second)
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			},
			StopFn: pool.Close,
		})
	}

	handler := sessionFactory{scn: scn, table: actTable, saver: saver, logger: logger}
	acceptor := telnet.NewAcceptor(cfg.Telnet, handler, logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("gm tool initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// sessionFactory gives each connection its own Session so view roles
// stay per-client while all sessions share the one scenario.
type sessionFactory struct {
	scn    *scenario.Scenario
	table  *action.Table
	saver  console.Saver
	logger *zap.Logger
}

func (f sessionFactory) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	sess := console.NewSession(f.scn, f.table, f.saver, f.logger)
	return sess.HandleSession(ctx, conn)
}
