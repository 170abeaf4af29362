package turn

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/game/action"
	"github.com/cory-johannsen/melee/internal/game/dice"
	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/game/movement"
	"github.com/cory-johannsen/melee/internal/game/resolve"
)

// TieBreak selects how initiative ties at equal adjusted Dexterity are
// broken.
type TieBreak int

const (
	// TieBreakInputOrder keeps tied figures in scenario input order.
	TieBreakInputOrder TieBreak = iota
	// TieBreakRollOff has tied figures roll three dice, higher first.
	TieBreakRollOff
)

// Config carries the sequencer's tunable rules.
type Config struct {
	TieBreak TieBreak
	// Clamp optionally bounds adjusted attributes for every roll.
	Clamp resolve.Clamp
}

// Declaration is one figure's declared option for the turn.
type Declaration struct {
	Kind action.Kind
	// Target is the figure attacked or targeted, when Kind needs one.
	Target uuid.UUID
	// Spell is the spell cast, when Kind is cast_spell.
	Spell resolve.Spell
	// Path is the disengage step, when Kind is disengage.
	Path []hexmap.Hex
}

// TerminalEvent records a figure leaving the fight.
type TerminalEvent struct {
	FigureID   uuid.UUID
	Name       string
	Transition figure.Transition
	Turn       int
}

type retreatPair struct {
	winner, loser uuid.UUID
}

// Sequencer runs the turn sequence for one scenario. It is not safe for
// concurrent use; the scenario's turn lock serialises access.
type Sequencer struct {
	board    *hexmap.Board
	figures  []*figure.Figure
	byID     map[uuid.UUID]*figure.Figure
	table    *action.Table
	resolver *resolve.Resolver
	roller   *dice.Roller
	cfg      Config
	logger   *zap.Logger

	phase Phase
	turn  int

	order    []uuid.UUID
	decls    map[uuid.UUID]*Declaration
	moved    map[uuid.UUID]int
	resolved map[uuid.UUID]bool
	slot     int
	dealt    map[uuid.UUID]int
	received map[uuid.UUID]int
	advance  map[uuid.UUID]bool
	retreats []retreatPair
	events   []TerminalEvent
}

// NewSequencer creates a sequencer over the given figures, which act in the
// given input order when initiative ties.
//
// Precondition: every figure must already be placed on board under its
// ID string.
func NewSequencer(board *hexmap.Board, figures []*figure.Figure, table *action.Table, resolver *resolve.Resolver, roller *dice.Roller, cfg Config, logger *zap.Logger) *Sequencer {
	byID := make(map[uuid.UUID]*figure.Figure, len(figures))
	for _, f := range figures {
		byID[f.ID] = f
	}
	return &Sequencer{
		board:    board,
		figures:  figures,
		byID:     byID,
		table:    table,
		resolver: resolver,
		roller:   roller,
		cfg:      cfg,
		logger:   logger,
		turn:     1,
		phase:    PhaseInitiative,
	}
}

// Phase returns the current phase.
func (s *Sequencer) Phase() Phase { return s.phase }

// Turn returns the current turn number, starting at 1.
func (s *Sequencer) Turn() int { return s.turn }

// Order returns the acting order computed at the start of this turn.
func (s *Sequencer) Order() []uuid.UUID {
	out := make([]uuid.UUID, len(s.order))
	copy(out, s.order)
	return out
}

// Events returns the terminal events recorded so far.
func (s *Sequencer) Events() []TerminalEvent {
	out := make([]TerminalEvent, len(s.events))
	copy(out, s.events)
	return out
}

// BeginTurn computes the acting order for the turn. Figures act in
// descending adjusted Dexterity; ties break by the configured strategy.
//
// Precondition: phase must be initiative.
// Postcondition: phase is renew-spells and Order() covers every living figure.
func (s *Sequencer) BeginTurn() error {
	if s.phase != PhaseInitiative {
		return fmt.Errorf("%w: begin turn during %s", ErrWrongPhase, s.phase)
	}

	type entry struct {
		id    uuid.UUID
		adjDX int
		input int
		roll  int
	}
	var entries []entry
	for i, f := range s.figures {
		if !f.Alive() {
			continue
		}
		entries = append(entries, entry{
			id:    f.ID,
			adjDX: resolve.AdjustedDX(f, nil, s.cfg.Clamp),
			input: i,
		})
	}
	if s.cfg.TieBreak == TieBreakRollOff {
		for i := range entries {
			entries[i].roll = dice.RollDice(3, s.roller.Source()).Total()
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].adjDX != entries[j].adjDX {
			return entries[i].adjDX > entries[j].adjDX
		}
		if s.cfg.TieBreak == TieBreakRollOff && entries[i].roll != entries[j].roll {
			return entries[i].roll > entries[j].roll
		}
		return entries[i].input < entries[j].input
	})

	s.order = s.order[:0]
	for _, e := range entries {
		s.order = append(s.order, e.id)
	}
	s.decls = make(map[uuid.UUID]*Declaration)
	s.moved = make(map[uuid.UUID]int)
	s.resolved = make(map[uuid.UUID]bool)
	s.slot = 0
	s.dealt = make(map[uuid.UUID]int)
	s.received = make(map[uuid.UUID]int)
	s.advance = make(map[uuid.UUID]bool)
	s.retreats = s.retreats[:0]
	s.phase = PhaseRenewSpells

	s.logger.Debug("turn begun",
		zap.Int("turn", s.turn),
		zap.Int("figures", len(s.order)),
	)
	return nil
}

// RenewSpell pays spell's mana upkeep so it persists another turn. A caster
// who cannot pay lets the spell lapse; that is an error the caller reports,
// not a state change.
//
// Precondition: phase must be renew-spells.
func (s *Sequencer) RenewSpell(id uuid.UUID, spell resolve.Spell) error {
	if s.phase != PhaseRenewSpells {
		return fmt.Errorf("%w: renew during %s", ErrWrongPhase, s.phase)
	}
	f, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFigure, id)
	}
	if !f.Caster {
		return fmt.Errorf("turn: %s is not a caster", f.Name)
	}
	if err := f.SpendMana(spell.ManaCost); err != nil {
		return fmt.Errorf("turn: renewing %s: %w", spell.Name, err)
	}
	s.logger.Debug("spell renewed",
		zap.String("caster", f.Name),
		zap.String("spell", spell.Name),
	)
	return nil
}

// FinishRenewals closes the renewal window and opens movement.
//
// Precondition: phase must be renew-spells.
func (s *Sequencer) FinishRenewals() error {
	if s.phase != PhaseRenewSpells {
		return fmt.Errorf("%w: finish renewals during %s", ErrWrongPhase, s.phase)
	}
	s.phase = PhaseMovement
	return nil
}

// alive returns the tracked, living figure for id.
func (s *Sequencer) alive(id uuid.UUID) (*figure.Figure, error) {
	f, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFigure, id)
	}
	if !f.Alive() {
		return nil, fmt.Errorf("%w: %s cannot act", action.ErrIllegal, f.Name)
	}
	return f, nil
}

// refreshEngagement recomputes every living figure's engagement state and
// engaging-target mark from the board. Hand-to-hand lock persists until one
// side goes down.
func (s *Sequencer) refreshEngagement() {
	for _, f := range s.figures {
		if !f.Alive() {
			f.Engagement = figure.Disengaged
			f.EngagingTarget = uuid.Nil
			continue
		}
		if f.Engagement == figure.HandToHand {
			// The lock holds until the grappling partner goes down.
			if t, ok := s.byID[f.EngagingTarget]; ok && t.Alive() {
				continue
			}
			f.Engagement = figure.Disengaged
		}
		if movement.DetectEngagement(s.board, f.ID.String()) {
			f.Engagement = figure.Engaged
		} else {
			f.Engagement = figure.Disengaged
		}
		f.EngagingTarget = uuid.Nil
		for _, other := range s.figures {
			if other.ID == f.ID || other.Team == f.Team || !other.Alive() {
				continue
			}
			for _, engager := range movement.Engagers(s.board, other.ID.String()) {
				if engager == f.ID.String() {
					f.EngagingTarget = other.ID
					break
				}
			}
			if f.EngagingTarget != uuid.Nil {
				break
			}
		}
	}
}
