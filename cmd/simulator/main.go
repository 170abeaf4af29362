// Package main provides a one-shot scenario simulator. It loads a
// scenario, runs it with a seeded dice source, and prints what
// happened, so a given seed always replays the same fight.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/config"
	"github.com/cory-johannsen/melee/internal/game/action"
	"github.com/cory-johannsen/melee/internal/game/condition"
	"github.com/cory-johannsen/melee/internal/game/dice"
	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/game/resolve"
	"github.com/cory-johannsen/melee/internal/game/scenario"
	"github.com/cory-johannsen/melee/internal/game/turn"
	"github.com/cory-johannsen/melee/internal/observability"
	"github.com/cory-johannsen/melee/internal/scripting"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "scenarios/demo.yaml", "scenario YAML to simulate")
	seed := flag.Int64("seed", 1, "dice seed; the same seed replays the same fight")
	maxTurns := flag.Int("turns", 20, "turn limit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

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

	clamp := resolve.Clamp{Floor: cfg.Engine.AdjDXFloor, Ceiling: cfg.Engine.AdjDXCeiling}
	roller := dice.NewRoller(dice.NewSeededSource(*seed), logger)
	resolver := resolve.NewResolver(tables, condRegistry, roller, clamp, logger)

	scn, err := scenario.Load(*scenarioPath, condRegistry, hooks, scenario.SystemClock{})
	if err != nil {
		logger.Fatal("loading scenario", zap.String("path", *scenarioPath), zap.Error(err))
	}

	err = scn.Begin(scenario.Deps{
		Table:    actTable,
		Resolver: resolver,
		Roller:   roller,
		Config: turn.Config{
			Clamp: clamp,
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("starting scenario", zap.Error(err))
	}

	fmt.Printf("scenario %q, seed %d\n", scn.Name, *seed)
	for _, f := range scn.Figures() {
		fmt.Println("  " + f.Describe(figure.RoleGM))
	}

	for i := 0; i < *maxTurns; i++ {
		if over, winner := scn.Over(); over {
			fmt.Printf("fight over after %d turns, %s stands\n", i, winner)
			return
		}
		if err := runTurn(scn); err != nil {
			logger.Fatal("turn failed", zap.Error(err))
		}
	}

	fmt.Printf("turn limit reached after %d turns\n", *maxTurns)
	os.Exit(1)
}

// runTurn drives one full turn: everybody closes on the nearest enemy
// and attacks when adjacent.
func runTurn(scn *scenario.Scenario) error {
	roster := scn.Figures()
	byID := make(map[uuid.UUID]*figure.Figure, len(roster))
	for _, f := range roster {
		byID[f.ID] = f
	}
	board := scn.Board()

	return scn.Do(func(seq *turn.Sequencer) error {
		if err := seq.BeginTurn(); err != nil {
			return err
		}
		fmt.Printf("-- turn %d --\n", seq.Turn())
		if err := seq.FinishRenewals(); err != nil {
			return err
		}

		for _, id := range seq.Order() {
			f, ok := byID[id]
			if !ok || !f.Alive() {
				continue
			}
			enemy, dist := nearestEnemy(board, roster, f)
			if enemy == nil {
				continue
			}
			var decl turn.Declaration
			switch {
			case dist == 1 && f.Armed():
				decl = turn.Declaration{Kind: action.Attack, Target: enemy.ID}
			case dist == 1:
				decl = turn.Declaration{Kind: action.HTHAttack, Target: enemy.ID}
			default:
				decl = turn.Declaration{Kind: action.Move}
			}
			if err := seq.Declare(id, decl); err != nil {
				continue
			}
			if decl.Kind == action.Move {
				path := pathToward(board, f, enemy)
				if len(path) > 0 {
					if _, err := seq.Move(id, path); err != nil {
						return err
					}
				}
			}
		}
		if err := seq.FinishMovement(); err != nil {
			return err
		}

		for !seq.ActionsDone() {
			rec, err := seq.NextAction()
			if err != nil {
				return err
			}
			if rec.Attack != nil {
				fmt.Printf("%s %ss: %s, %d damage\n",
					rec.Name, rec.Kind, rec.Attack.Outcome.Kind, rec.Attack.DamageDealt)
			}
		}

		results, err := seq.ResolveRetreats()
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Pushed {
				fmt.Printf("forced back to %s\n", r.To)
			}
		}

		if err := seq.Cleanup(); err != nil {
			return err
		}
		for _, ev := range seq.Events() {
			fmt.Printf("%s is %s\n", ev.Name, ev.Transition)
		}
		return nil
	})
}

func nearestEnemy(board *hexmap.Board, roster []*figure.Figure, f *figure.Figure) (*figure.Figure, int) {
	var best *figure.Figure
	bestDist := 0
	fp, ok := board.Get(f.ID.String())
	if !ok {
		return nil, 0
	}
	for _, other := range roster {
		if other.Team == f.Team || !other.Alive() {
			continue
		}
		op, ok := board.Get(other.ID.String())
		if !ok {
			continue
		}
		d := fp.Head.Distance(op.Head)
		if best == nil || d < bestDist {
			best, bestDist = other, d
		}
	}
	return best, bestDist
}

// pathToward walks stepwise toward the enemy, stopping a hex short of
// occupied ground and at half movement so an attack stays legal.
func pathToward(board *hexmap.Board, f, enemy *figure.Figure) []hexmap.Hex {
	fp, ok := board.Get(f.ID.String())
	if !ok {
		return nil
	}
	ep, ok := board.Get(enemy.ID.String())
	if !ok {
		return nil
	}

	limit := f.MA() / 2
	var path []hexmap.Hex
	cur := fp.Head
	for len(path) < limit && cur.Distance(ep.Head) > 1 {
		d, err := cur.DirectionTo(ep.Head)
		if err != nil {
			// Off-axis; sidestep through the first free neighbor that
			// closes the distance.
			d = nudge(board, cur, ep.Head, f.ID)
		}
		next := cur.Neighbor(d)
		if !board.InBounds(next) || !board.Free(next, f.ID.String()) {
			break
		}
		path = append(path, next)
		cur = next
	}
	return path
}

func nudge(board *hexmap.Board, cur, goal hexmap.Hex, self uuid.UUID) hexmap.Direction {
	best := hexmap.Direction(0)
	bestDist := -1
	for d := hexmap.Direction(0); d < 6; d++ {
		next := cur.Neighbor(d)
		if !board.InBounds(next) || !board.Free(next, self.String()) {
			continue
		}
		dist := next.Distance(goal)
		if bestDist == -1 || dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}
