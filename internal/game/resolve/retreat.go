package resolve

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
)

// RetreatResult records one forced retreat evaluation.
type RetreatResult struct {
	// Pushed is true when the loser gave ground one hex.
	Pushed bool
	// To is the hex retreated into, meaningful only when Pushed.
	To hexmap.Hex
	// Advanced is true when the winner stepped into the vacated hex
	// instead of holding ground.
	Advanced bool
	// AdvancedTo is the hex the winner stepped into, meaningful only when
	// Advanced.
	AdvancedTo hexmap.Hex
	// KnockedProne is true when the loser had nowhere to go and failed the
	// balance roll.
	KnockedProne bool
}

// ForcedRetreat pushes loser one hex directly away from winner after losing
// an exchange. The winner chooses to advance into the vacated hex or hold
// ground. When the retreat hex is off-map or occupied, the loser rolls
// three dice against adjusted Dexterity to keep footing; failure leaves the
// loser prone in place.
//
// Precondition: both figures must be placed on b and adjacent.
// Postcondition: Either the loser's placement moved one hex (and the
// winner's, when advancing), or the loser's posture possibly changed to
// prone; nothing else mutates.
func (r *Resolver) ForcedRetreat(b *hexmap.Board, winner, loser *figure.Figure, advance bool) (RetreatResult, error) {
	wp, ok := b.Get(winner.ID.String())
	if !ok {
		return RetreatResult{}, fmt.Errorf("resolve: %s is not on the board", winner.Name)
	}
	lp, ok := b.Get(loser.ID.String())
	if !ok {
		return RetreatResult{}, fmt.Errorf("resolve: %s is not on the board", loser.Name)
	}
	dir, err := wp.Head.DirectionTo(lp.Head)
	if err != nil {
		return RetreatResult{}, fmt.Errorf("resolve: retreat direction: %w", err)
	}

	dest := lp.Head.Neighbor(dir)
	if b.InBounds(dest) && b.Free(dest, lp.ID) {
		vacated := lp.Head
		if err := b.MoveTo(lp.ID, dest, lp.Facing); err != nil {
			return RetreatResult{}, fmt.Errorf("resolve: retreat move: %w", err)
		}
		res := RetreatResult{Pushed: true, To: dest}
		if advance && b.Free(vacated, wp.ID) {
			if err := b.MoveTo(wp.ID, vacated, wp.Facing); err != nil {
				return res, fmt.Errorf("resolve: retreat advance: %w", err)
			}
			res.Advanced = true
			res.AdvancedTo = vacated
		}
		r.logger.Info("forced retreat",
			zap.String("loser", loser.Name),
			zap.String("to", dest.String()),
			zap.Bool("winner_advanced", res.Advanced),
		)
		return res, nil
	}

	// Nowhere to give ground: keep footing or fall.
	target := AdjustedDX(loser, nil, r.clamp)
	roll, outcome := r.roller.Against(r.tables.Attack, target)
	res := RetreatResult{}
	if !outcome.Hit() {
		loser.Posture = figure.Prone
		lp.Prone = true
		res.KnockedProne = true
	}
	r.logger.Info("forced retreat blocked",
		zap.String("loser", loser.Name),
		zap.Int("target", target),
		zap.Int("sum", roll.Total()),
		zap.Bool("knocked_prone", res.KnockedProne),
	)
	return res, nil
}
