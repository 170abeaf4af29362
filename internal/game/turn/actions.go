package turn

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/game/action"
	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/game/movement"
	"github.com/cory-johannsen/melee/internal/game/resolve"
)

// ActionRecord is the audit record of one resolved action slot.
type ActionRecord struct {
	Actor uuid.UUID
	Name  string
	Kind  action.Kind
	// Skipped is true when the actor could not act or its declaration had
	// become illegal, in which case Kind is the fallback actually taken.
	Skipped bool
	// Attack holds the resolution when Kind attacked.
	Attack *resolve.AttackResult
	// Cast holds the resolution when Kind was cast_spell.
	Cast *resolve.CastResult
}

// Cancel replaces id's declaration with fallback before its action slot
// resolves. The fallback must itself be legal for the distance already
// moved.
//
// Precondition: phase must be actions and id's slot must not have resolved.
func (s *Sequencer) Cancel(id uuid.UUID, fallback action.Kind) error {
	if s.phase != PhaseActions {
		return fmt.Errorf("%w: cancel during %s", ErrWrongPhase, s.phase)
	}
	f, err := s.alive(id)
	if err != nil {
		return err
	}
	if s.resolved[id] {
		return fmt.Errorf("%w: %s already acted this turn", action.ErrIllegal, f.Name)
	}
	if err := action.Check(s.table, f, s.bracketFor(id), fallback); err != nil {
		return err
	}
	s.decls[id] = &Declaration{Kind: fallback}
	s.logger.Debug("declaration cancelled",
		zap.String("figure", f.Name),
		zap.String("fallback", string(fallback)),
	)
	return nil
}

// ActionsDone reports whether every slot this turn has resolved.
func (s *Sequencer) ActionsDone() bool {
	return s.slot >= len(s.order)
}

// NextAction resolves the next action slot in initiative order. A figure
// with no declaration, or whose declaration became illegal after movement,
// passes; that is recorded, not an error. When the last slot resolves the
// phase advances to forced-retreat.
//
// Precondition: phase must be actions and at least one slot must remain.
func (s *Sequencer) NextAction() (ActionRecord, error) {
	if s.phase != PhaseActions {
		return ActionRecord{}, fmt.Errorf("%w: act during %s", ErrWrongPhase, s.phase)
	}
	if s.ActionsDone() {
		return ActionRecord{}, fmt.Errorf("%w: all slots resolved", ErrWrongPhase)
	}

	id := s.order[s.slot]
	s.slot++
	s.resolved[id] = true
	if s.ActionsDone() {
		defer func() { s.phase = PhaseForcedRetreat }()
	}

	f := s.byID[id]
	rec := ActionRecord{Actor: id, Name: f.Name}
	if !f.Alive() {
		rec.Kind = action.Pass
		rec.Skipped = true
		return rec, nil
	}

	decl, ok := s.decls[id]
	if !ok {
		decl = &Declaration{Kind: action.Pass}
	}
	rec.Kind = decl.Kind
	if err := action.Check(s.table, f, s.bracketFor(id), decl.Kind); err != nil {
		s.logger.Debug("declaration no longer legal, passing",
			zap.String("figure", f.Name),
			zap.String("declared", string(decl.Kind)),
			zap.Error(err),
		)
		rec.Kind = action.Pass
		rec.Skipped = true
		return rec, nil
	}

	if cost := decl.Kind.FatigueCost(); cost > 0 {
		s.recordTransition(f, f.SpendFatigue(cost))
	}

	switch decl.Kind {
	case action.Attack, action.ShiftAttack, action.Charge, action.HTHAttack:
		res, err := s.resolveAttackSlot(f, decl)
		if err != nil {
			return rec, err
		}
		rec.Attack = res
	case action.CastSpell:
		res, err := s.resolver.ResolveCast(f, decl.Spell, nil)
		if err != nil {
			return rec, err
		}
		rec.Cast = &res
		if res.DamageRolled > 0 && decl.Target != uuid.Nil {
			if target, ok := s.byID[decl.Target]; ok && target.Alive() {
				s.recordDamage(id, decl.Target, res.DamageRolled)
				s.recordTransition(target, target.ApplyDamage(figure.PoolFatigue, res.DamageRolled))
			}
		}
	case action.Disengage:
		if err := s.disengage(f, decl.Path); err != nil {
			return rec, err
		}
	case action.StandUp:
		f.Posture = figure.Standing
		if p, ok := s.board.Get(id.String()); ok {
			p.Prone = false
		}
	case action.ReadyWeapon, action.PickUpWeapon:
		f.ReadyWeapon()
		if p, ok := s.board.Get(id.String()); ok {
			p.Armed = f.Armed()
		}
	}
	return rec, nil
}

// resolveAttackSlot resolves an attack declaration against its target.
func (s *Sequencer) resolveAttackSlot(f *figure.Figure, decl *Declaration) (*resolve.AttackResult, error) {
	target, ok := s.byID[decl.Target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFigure, decl.Target)
	}
	if !target.Alive() {
		return nil, fmt.Errorf("%w: target %s is down", action.ErrIllegal, target.Name)
	}
	if err := s.checkReach(f, target, decl.Kind); err != nil {
		return nil, err
	}

	mods := s.situational(f, target)
	defended := false
	if tdecl, ok := s.decls[target.ID]; ok {
		defended = tdecl.Kind == action.Dodge || tdecl.Kind == action.Defend
	}

	if decl.Kind == action.HTHAttack {
		f.Engagement = figure.HandToHand
		f.EngagingTarget = target.ID
		target.Engagement = figure.HandToHand
		target.EngagingTarget = f.ID
	}

	var res resolve.AttackResult
	var err error
	if decl.Kind == action.HTHAttack {
		res, err = s.resolver.ResolveAttackWith(f, target, resolve.BareHandsDamage, mods, defended)
	} else {
		res, err = s.resolver.ResolveAttack(f, target, mods, defended)
	}
	if err != nil {
		return nil, err
	}
	if p, ok := s.board.Get(f.ID.String()); ok {
		p.Armed = f.Armed()
	}
	if res.DamageDealt > 0 {
		s.recordDamage(f.ID, target.ID, res.DamageDealt)
	}
	s.recordTransition(target, res.Transition)
	return &res, nil
}

// recordDamage tracks one exchange for the forced-retreat phase. A figure
// that dealt damage this turn and received none may push its victim back a
// hex once actions close.
func (s *Sequencer) recordDamage(attacker, victim uuid.UUID, amount int) {
	s.dealt[attacker] += amount
	s.received[victim] += amount
	s.retreats = append(s.retreats, retreatPair{winner: attacker, loser: victim})
}

// checkReach verifies the target is adjacent, and for weapon attacks inside
// the attacker's front arc. Hand-to-hand ignores facing.
func (s *Sequencer) checkReach(f, target *figure.Figure, kind action.Kind) error {
	fp, ok := s.board.Get(f.ID.String())
	if !ok {
		return fmt.Errorf("%w: %s is not on the board", ErrUnknownFigure, f.Name)
	}
	tp, ok := s.board.Get(target.ID.String())
	if !ok {
		return fmt.Errorf("%w: %s is not on the board", ErrUnknownFigure, target.Name)
	}

	if !s.adjacentOnBoard(f, target) {
		return fmt.Errorf("%w: %s cannot reach %s", action.ErrIllegal, f.Name, target.Name)
	}
	if kind == action.HTHAttack {
		return nil
	}
	for _, front := range fp.SpellFrontHexes() {
		for _, th := range tp.Hexes() {
			if front == th {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s is not in %s's front arc", action.ErrIllegal, target.Name, f.Name)
}

// adjacentOnBoard reports whether the two figures occupy adjoining hexes.
func (s *Sequencer) adjacentOnBoard(a, b *figure.Figure) bool {
	ap, okA := s.board.Get(a.ID.String())
	bp, okB := s.board.Get(b.ID.String())
	if !okA || !okB {
		return false
	}
	for _, ah := range ap.Hexes() {
		for _, bh := range bp.Hexes() {
			if ah.Adjacent(bh) {
				return true
			}
		}
	}
	return false
}

// situational assembles the positional roll modifiers for an attack.
func (s *Sequencer) situational(f, target *figure.Figure) resolve.Modifiers {
	var mods resolve.Modifiers
	if target.Posture == figure.Prone {
		mods = append(mods, resolve.Modifier{Name: "target prone", Value: 4})
	}
	if s.isRearAttack(f, target) {
		mods = append(mods, resolve.Modifier{Name: "rear attack", Value: 2})
	}
	return mods
}

// isRearAttack reports whether f strikes from the target's rear hex.
func (s *Sequencer) isRearAttack(f, target *figure.Figure) bool {
	fp, okF := s.board.Get(f.ID.String())
	tp, okT := s.board.Get(target.ID.String())
	if !okF || !okT {
		return false
	}
	rear := hexmap.RearHex(tp.Head, tp.Facing)
	for _, fh := range fp.Hexes() {
		if fh == rear {
			return true
		}
	}
	return false
}

// disengage executes the one-hex disengage step.
func (s *Sequencer) disengage(f *figure.Figure, path []hexmap.Hex) error {
	if len(path) != 1 {
		return fmt.Errorf("%w: disengage moves exactly one hex", movement.ErrInvalidMovement)
	}
	id := f.ID.String()
	p, ok := s.board.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s is not on the board", ErrUnknownFigure, f.Name)
	}
	dest := path[0]
	if !p.Head.Adjacent(dest) {
		return fmt.Errorf("%w: %s is not adjacent to %s", movement.ErrInvalidMovement, dest, p.Head)
	}
	if !s.board.InBounds(dest) {
		return fmt.Errorf("%w: %s is off-map", movement.ErrInvalidMovement, dest)
	}
	if !s.board.Free(dest, id) {
		return fmt.Errorf("%w: %s is occupied", movement.ErrInvalidMovement, dest)
	}
	if err := s.board.MoveTo(id, dest, p.Facing); err != nil {
		return fmt.Errorf("%w: %v", movement.ErrInvalidMovement, err)
	}
	s.moved[f.ID]++
	s.refreshEngagement()
	return nil
}

// recordTransition appends a terminal event when a transition downs a
// figure, once per figure.
func (s *Sequencer) recordTransition(f *figure.Figure, tr figure.Transition) {
	if tr == figure.TransitionNone || f.Alive() {
		return
	}
	for _, e := range s.events {
		if e.FigureID == f.ID {
			return
		}
	}
	s.events = append(s.events, TerminalEvent{
		FigureID:   f.ID,
		Name:       f.Name,
		Transition: tr,
		Turn:       s.turn,
	})
	s.logger.Info("figure down",
		zap.String("figure", f.Name),
		zap.String("transition", tr.String()),
		zap.Int("turn", s.turn),
	)
}
