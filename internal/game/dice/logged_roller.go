package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged, audited dice rolling.
// Every roll is logged at debug level with its dice values, target, and outcome,
// which is what a GM needs to audit a disputed resolution after the fact.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source { return r.src }

// Against rolls table's dice against target, logging the audit trail.
//
// Precondition: table must be validated.
// Postcondition: The roll and its outcome are logged; both are returned.
func (r *Roller) Against(table OutcomeTable, target int) (RollResult, Outcome) {
	result, outcome := table.Roll(target, r.src)
	r.logger.Debug("dice roll",
		zap.String("table", table.Name),
		zap.Ints("dice", result.Dice),
		zap.Int("sum", result.Total()),
		zap.Int("target", target),
		zap.String("outcome", outcome.Kind.String()),
		zap.Bool("automatic", outcome.Automatic),
	)
	return result, outcome
}

// Damage parses and rolls a damage expression, logging the result.
//
// Precondition: expr must be a valid damage expression string.
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) Damage(expr string) (RollResult, error) {
	result, err := RollExpr(expr, r.src)
	if err != nil {
		return RollResult{}, err
	}
	r.logger.Debug("damage roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}
