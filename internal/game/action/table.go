package action

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/melee/internal/game/figure"
)

// MovementBracket classifies how far a figure moved this turn relative to
// its movement allowance. The bracket, not the raw hex count, is what the
// legality table keys on.
type MovementBracket int

const (
	// Stationary means the figure did not move.
	Stationary MovementBracket = iota
	// HalfMove means the figure moved but no more than half its allowance.
	HalfMove
	// FullMove means the figure moved more than half its allowance.
	FullMove
)

// String returns the bracket label used in table keys.
func (b MovementBracket) String() string {
	switch b {
	case Stationary:
		return "none"
	case HalfMove:
		return "half"
	case FullMove:
		return "full"
	default:
		return "unknown"
	}
}

// BracketFor classifies moved hexes against a movement allowance.
//
// Precondition: moved >= 0 and moved <= ma.
func BracketFor(moved, ma int) MovementBracket {
	switch {
	case moved == 0:
		return Stationary
	case moved*2 <= ma:
		return HalfMove
	default:
		return FullMove
	}
}

type key struct {
	engagement figure.EngagementState
	bracket    MovementBracket
	posture    figure.Posture
}

// Table maps every combination of engagement state, movement bracket, and
// posture to the set of legal action kinds. A Table is immutable after load.
type Table struct {
	rules map[key][]Kind
}

// Legal returns the legal action kinds for the given situation, in the
// stable Kinds order. The returned slice is a copy.
//
// Postcondition: Pass is always among the results.
func (t *Table) Legal(eng figure.EngagementState, bracket MovementBracket, posture figure.Posture) []Kind {
	allowed := t.rules[key{eng, bracket, posture}]
	out := make([]Kind, len(allowed))
	copy(out, allowed)
	return out
}

// Allows reports whether k is legal in the given situation.
func (t *Table) Allows(k Kind, eng figure.EngagementState, bracket MovementBracket, posture figure.Posture) bool {
	for _, a := range t.rules[key{eng, bracket, posture}] {
		if a == k {
			return true
		}
	}
	return false
}

type tableFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Engagement string   `yaml:"engagement"`
	Movement   string   `yaml:"movement"`
	Posture    string   `yaml:"posture"`
	Actions    []string `yaml:"actions"`
}

var engagements = []figure.EngagementState{figure.Disengaged, figure.Engaged, figure.HandToHand}
var brackets = []MovementBracket{Stationary, HalfMove, FullMove}
var postures = []figure.Posture{figure.Standing, figure.Kneeling, figure.Prone}

func parseEngagement(s string) (figure.EngagementState, error) {
	for _, e := range engagements {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown engagement state %q", s)
}

func parseBracket(s string) (MovementBracket, error) {
	for _, b := range brackets {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown movement bracket %q", s)
}

func parsePosture(s string) (figure.Posture, error) {
	for _, p := range postures {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown posture %q", s)
}

// LoadTable reads a legality table from a YAML file. The file must cover
// the full cross product of engagement states, movement brackets, and
// postures exactly once, name only known actions, and include pass in every
// rule.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading action table %q: %w", path, err)
	}
	var file tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing action table %q: %w", path, err)
	}

	rules := make(map[key][]Kind, len(file.Rules))
	for i, entry := range file.Rules {
		eng, err := parseEngagement(entry.Engagement)
		if err != nil {
			return nil, fmt.Errorf("action table rule %d: %w", i, err)
		}
		bracket, err := parseBracket(entry.Movement)
		if err != nil {
			return nil, fmt.Errorf("action table rule %d: %w", i, err)
		}
		posture, err := parsePosture(entry.Posture)
		if err != nil {
			return nil, fmt.Errorf("action table rule %d: %w", i, err)
		}
		k := key{eng, bracket, posture}
		if _, dup := rules[k]; dup {
			return nil, fmt.Errorf("action table rule %d: duplicate rule for %s/%s/%s",
				i, eng, bracket, posture)
		}
		var kinds []Kind
		hasPass := false
		for _, name := range entry.Actions {
			kind := Kind(name)
			if !Known(kind) {
				return nil, fmt.Errorf("action table rule %d: unknown action %q", i, name)
			}
			if kind == Pass {
				hasPass = true
			}
			kinds = append(kinds, kind)
		}
		if !hasPass {
			return nil, fmt.Errorf("action table rule %d: pass must always be legal", i)
		}
		rules[k] = kinds
	}

	for _, eng := range engagements {
		for _, bracket := range brackets {
			for _, posture := range postures {
				if _, ok := rules[key{eng, bracket, posture}]; !ok {
					return nil, fmt.Errorf("action table missing rule for %s/%s/%s",
						eng, bracket, posture)
				}
			}
		}
	}
	return &Table{rules: rules}, nil
}

// DefaultTable returns the built-in legality table used when no content
// file overrides it.
func DefaultTable() *Table {
	rules := make(map[key][]Kind)
	set := func(eng figure.EngagementState, bracket MovementBracket, posture figure.Posture, kinds ...Kind) {
		rules[key{eng, bracket, posture}] = kinds
	}

	// Disengaged figures have the full option list, narrowed by how far
	// they moved.
	set(figure.Disengaged, Stationary, figure.Standing,
		Pass, Attack, Dodge, Defend, ReadyWeapon, PickUpWeapon, CastSpell)
	set(figure.Disengaged, HalfMove, figure.Standing,
		Pass, Move, Run, Charge, Dodge, Attack, ShiftAttack, CastSpell)
	set(figure.Disengaged, FullMove, figure.Standing,
		Pass, Run, Charge)
	set(figure.Disengaged, Stationary, figure.Kneeling,
		Pass, Attack, Defend, ReadyWeapon, StandUp)
	set(figure.Disengaged, HalfMove, figure.Kneeling, Pass)
	set(figure.Disengaged, FullMove, figure.Kneeling, Pass)
	set(figure.Disengaged, Stationary, figure.Prone,
		Pass, StandUp, PickUpWeapon)
	set(figure.Disengaged, HalfMove, figure.Prone, Pass)
	set(figure.Disengaged, FullMove, figure.Prone, Pass)

	// Engaged figures hold their hex; the only movement is a one-hex
	// disengage.
	set(figure.Engaged, Stationary, figure.Standing,
		Pass, Attack, Defend, Disengage, ReadyWeapon, HTHAttack)
	set(figure.Engaged, HalfMove, figure.Standing, Pass, Disengage)
	set(figure.Engaged, FullMove, figure.Standing, Pass)
	set(figure.Engaged, Stationary, figure.Kneeling,
		Pass, Attack, Defend, StandUp)
	set(figure.Engaged, HalfMove, figure.Kneeling, Pass)
	set(figure.Engaged, FullMove, figure.Kneeling, Pass)
	set(figure.Engaged, Stationary, figure.Prone,
		Pass, StandUp, HTHAttack)
	set(figure.Engaged, HalfMove, figure.Prone, Pass)
	set(figure.Engaged, FullMove, figure.Prone, Pass)

	// Hand-to-hand locks both figures into grappling options.
	set(figure.HandToHand, Stationary, figure.Standing, Pass, HTHAttack)
	set(figure.HandToHand, HalfMove, figure.Standing, Pass)
	set(figure.HandToHand, FullMove, figure.Standing, Pass)
	set(figure.HandToHand, Stationary, figure.Kneeling, Pass, HTHAttack)
	set(figure.HandToHand, HalfMove, figure.Kneeling, Pass)
	set(figure.HandToHand, FullMove, figure.Kneeling, Pass)
	set(figure.HandToHand, Stationary, figure.Prone, Pass, HTHAttack)
	set(figure.HandToHand, HalfMove, figure.Prone, Pass)
	set(figure.HandToHand, FullMove, figure.Prone, Pass)

	return &Table{rules: rules}
}
