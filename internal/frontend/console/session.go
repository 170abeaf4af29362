// Package console implements the GM command loop served over Telnet.
// A session drives one scenario through its turn phases: declaring
// actions, moving figures, and advancing the sequencer.
package console

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/frontend/telnet"
	"github.com/cory-johannsen/melee/internal/game/action"
	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/game/scenario"
	"github.com/cory-johannsen/melee/internal/game/turn"
)

// Saver persists a scenario snapshot. The postgres repository satisfies
// it; a nil Saver disables the save command.
type Saver interface {
	Save(ctx context.Context, snap scenario.Snapshot) error
}

// Session is the per-connection command interpreter. Every session
// shares the one scenario; the scenario's own lock serializes turns.
type Session struct {
	scn    *scenario.Scenario
	table  *action.Table
	saver  Saver
	logger *zap.Logger

	role figure.Role
}

// NewSession creates a session for the given scenario. saver may be nil.
//
// Precondition: scn, table, and logger must be non-nil.
func NewSession(scn *scenario.Scenario, table *action.Table, saver Saver, logger *zap.Logger) *Session {
	return &Session{
		scn:    scn,
		table:  table,
		saver:  saver,
		logger: logger,
		role:   figure.RoleGM,
	}
}

// HandleSession runs the command loop until the client quits,
// disconnects, or ctx is cancelled.
func (s *Session) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	_ = conn.WriteLine(fmt.Sprintf("melee GM console, scenario %q", s.scn.Name))
	_ = conn.WriteLine(`type "help" for commands`)

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine("server shutting down")
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt("melee> "); err != nil {
			return err
		}
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "exit" {
			_ = conn.WriteLine("goodbye")
			return nil
		}

		out, err := s.dispatch(ctx, cmd, args)
		if err != nil {
			_ = conn.WriteLine("error: " + err.Error())
			continue
		}
		for _, ln := range out {
			_ = conn.WriteLine(ln)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, cmd string, args []string) ([]string, error) {
	switch cmd {
	case "help":
		return helpText(), nil
	case "status":
		return s.status()
	case "figures":
		return s.figures(), nil
	case "legal":
		return s.legal(args)
	case "declare":
		return s.declare(args)
	case "move":
		return s.move(args)
	case "advance":
		return s.advance()
	case "view":
		return s.view(args)
	case "save":
		return s.save(ctx)
	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

func helpText() []string {
	return []string{
		"status                       turn, phase, initiative order",
		"figures                      list figures with positions",
		"legal <figure>               legal actions given movement so far",
		"declare <figure> <action> [target]",
		"move <figure> q,r [q,r ...]  step along a hex path",
		"advance                      finish the current phase",
		"view gm|player               switch figure detail level",
		"save                         persist the scenario",
		"quit                         close the session",
	}
}

func (s *Session) status() ([]string, error) {
	names := make(map[uuid.UUID]string)
	for _, f := range s.scn.Figures() {
		names[f.ID] = f.Name
	}

	var out []string
	err := s.scn.Do(func(seq *turn.Sequencer) error {
		out = append(out, fmt.Sprintf("turn %d, phase %s", seq.Turn(), seq.Phase()))
		if len(seq.Order()) > 0 {
			ordered := make([]string, 0, len(seq.Order()))
			for _, id := range seq.Order() {
				ordered = append(ordered, names[id])
			}
			out = append(out, "order: "+strings.Join(ordered, ", "))
		}
		for _, ev := range seq.Events() {
			out = append(out, fmt.Sprintf("turn %d: %s is %s", ev.Turn, ev.Name, ev.Transition))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if over, winner := s.scn.Over(); over {
		out = append(out, fmt.Sprintf("fight over, %s stands", winner))
	}
	return out, nil
}

// figures renders the roster. Board reads happen under the turn lock so
// a concurrent session's movement cannot tear a placement.
func (s *Session) figures() []string {
	figs := s.scn.Figures()
	sort.Slice(figs, func(i, j int) bool { return figs[i].Name < figs[j].Name })

	out := make([]string, 0, len(figs))
	_ = s.scn.Do(func(*turn.Sequencer) error {
		for _, f := range figs {
			line := f.Describe(s.role)
			if p, ok := s.scn.Board().Get(f.ID.String()); ok {
				line += fmt.Sprintf(" @ %d,%d facing %s", p.Head.Q, p.Head.R, p.Facing)
			}
			out = append(out, line)
		}
		return nil
	})
	return out
}

func (s *Session) legal(args []string) ([]string, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: legal <figure>")
	}
	f, ok := s.scn.FigureByName(args[0])
	if !ok {
		return nil, fmt.Errorf("no figure named %q", args[0])
	}

	var out []string
	err := s.scn.Do(func(seq *turn.Sequencer) error {
		kinds := action.LegalFor(s.table, f, seq.Bracket(f.ID))
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		out = []string{strings.Join(names, ", ")}
		return nil
	})
	return out, err
}

func (s *Session) declare(args []string) ([]string, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: declare <figure> <action> [target]")
	}
	f, ok := s.scn.FigureByName(args[0])
	if !ok {
		return nil, fmt.Errorf("no figure named %q", args[0])
	}
	kind := action.Kind(args[1])
	if !action.Known(kind) {
		return nil, fmt.Errorf("unknown action %q", args[1])
	}

	decl := turn.Declaration{Kind: kind}
	if len(args) > 2 {
		target, ok := s.scn.FigureByName(args[2])
		if !ok {
			return nil, fmt.Errorf("no figure named %q", args[2])
		}
		decl.Target = target.ID
	}

	err := s.scn.Do(func(seq *turn.Sequencer) error {
		return seq.Declare(f.ID, decl)
	})
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("%s will %s", f.Name, kind)}, nil
}

func (s *Session) move(args []string) ([]string, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: move <figure> q,r [q,r ...]")
	}
	f, ok := s.scn.FigureByName(args[0])
	if !ok {
		return nil, fmt.Errorf("no figure named %q", args[0])
	}

	path := make([]hexmap.Hex, 0, len(args)-1)
	for _, raw := range args[1:] {
		h, err := parseHex(raw)
		if err != nil {
			return nil, err
		}
		path = append(path, h)
	}

	var out []string
	err := s.scn.Do(func(seq *turn.Sequencer) error {
		res, err := seq.Move(f.ID, path)
		if err != nil {
			return err
		}
		if res.Halted {
			out = []string{fmt.Sprintf("%s moved %d and was engaged", f.Name, res.Moved)}
		} else {
			out = []string{fmt.Sprintf("%s moved %d", f.Name, res.Moved)}
		}
		return nil
	})
	return out, err
}

// advance finishes the current phase. The actions phase resolves every
// remaining slot so the reported records cover the full phase.
func (s *Session) advance() ([]string, error) {
	var out []string
	err := s.scn.Do(func(seq *turn.Sequencer) error {
		switch seq.Phase() {
		case turn.PhaseInitiative:
			if err := seq.BeginTurn(); err != nil {
				return err
			}
		case turn.PhaseRenewSpells:
			if err := seq.FinishRenewals(); err != nil {
				return err
			}
		case turn.PhaseMovement:
			if err := seq.FinishMovement(); err != nil {
				return err
			}
		case turn.PhaseActions:
			for !seq.ActionsDone() {
				rec, err := seq.NextAction()
				if err != nil {
					return err
				}
				out = append(out, describeRecord(rec))
			}
		case turn.PhaseForcedRetreat:
			results, err := seq.ResolveRetreats()
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Pushed {
					out = append(out, fmt.Sprintf("pushed back to %d,%d", r.To.Q, r.To.R))
				} else if r.KnockedProne {
					out = append(out, "held ground and fell prone")
				} else {
					out = append(out, "held ground")
				}
			}
		case turn.PhaseCleanup:
			if err := seq.Cleanup(); err != nil {
				return err
			}
		}
		out = append(out, fmt.Sprintf("now turn %d, phase %s", seq.Turn(), seq.Phase()))
		return nil
	})
	return out, err
}

func (s *Session) view(args []string) ([]string, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: view gm|player")
	}
	switch args[0] {
	case "gm":
		s.role = figure.RoleGM
	case "player":
		s.role = figure.RolePlayer
	default:
		return nil, fmt.Errorf("unknown view %q", args[0])
	}
	return []string{"viewing as " + s.role.String()}, nil
}

func (s *Session) save(ctx context.Context) ([]string, error) {
	if s.saver == nil {
		return nil, fmt.Errorf("no store configured")
	}
	if err := s.saver.Save(ctx, s.scn.Snapshot()); err != nil {
		return nil, err
	}
	s.logger.Info("scenario saved", zap.String("scenario", s.scn.Name))
	return []string{"saved"}, nil
}

func describeRecord(rec turn.ActionRecord) string {
	if rec.Skipped {
		return fmt.Sprintf("%s could not act and passed", rec.Name)
	}
	line := fmt.Sprintf("%s: %s", rec.Name, rec.Kind)
	if rec.Attack != nil {
		line += fmt.Sprintf(" rolled %d (%s) for %d damage",
			rec.Attack.Roll.Total(), rec.Attack.Outcome.Kind, rec.Attack.DamageDealt)
	}
	if rec.Cast != nil {
		if rec.Cast.Fizzled {
			line += " and the spell fizzled"
		} else {
			line += fmt.Sprintf(" rolled %d (%s)", rec.Cast.Roll.Total(), rec.Cast.Outcome.Kind)
		}
	}
	return line
}

func parseHex(raw string) (hexmap.Hex, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return hexmap.Hex{}, fmt.Errorf("bad hex %q, want q,r", raw)
	}
	q, err := strconv.Atoi(parts[0])
	if err != nil {
		return hexmap.Hex{}, fmt.Errorf("bad hex %q: %w", raw, err)
	}
	r, err := strconv.Atoi(parts[1])
	if err != nil {
		return hexmap.Hex{}, fmt.Errorf("bad hex %q: %w", raw, err)
	}
	return hexmap.Hex{Q: q, R: r}, nil
}
