package scenario

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/melee/internal/game/condition"
	"github.com/cory-johannsen/melee/internal/game/figure"
	"github.com/cory-johannsen/melee/internal/game/hexmap"
	"github.com/cory-johannsen/melee/internal/scripting"
)

// Snapshot is the serialised form of a scenario between turns.
type Snapshot struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	CreatedAt   time.Time        `yaml:"created_at"`
	BoardRadius int              `yaml:"board_radius"`
	Figures     []FigureSnapshot `yaml:"figures"`
}

type FigureSnapshot struct {
	ID            string              `yaml:"id"`
	Name          string              `yaml:"name"`
	Team          string              `yaml:"team"`
	Size          int                 `yaml:"size"`
	Attributes    figure.Attributes   `yaml:"attributes"`
	Fatigue       int                 `yaml:"fatigue"`
	Body          int                 `yaml:"body"`
	Caster        bool                `yaml:"caster"`
	ManaStart     int                 `yaml:"mana_start,omitempty"`
	Mana          int                 `yaml:"mana,omitempty"`
	Posture       string              `yaml:"posture"`
	Armor         int                 `yaml:"armor,omitempty"`
	CarriedWeight float64             `yaml:"carried_weight"`
	Weapon        *WeaponSnapshot     `yaml:"weapon,omitempty"`
	Shield        *ShieldSnapshot     `yaml:"shield,omitempty"`
	Conditions    []ConditionSnapshot `yaml:"conditions,omitempty"`
	Head          hexmap.Hex          `yaml:"head"`
	Facing        int                 `yaml:"facing"`
	Removed       bool                `yaml:"removed,omitempty"`
}

type WeaponSnapshot struct {
	Name   string  `yaml:"name"`
	Damage string  `yaml:"damage"`
	Weight float64 `yaml:"weight"`
	State  string  `yaml:"state"`
}

type ShieldSnapshot struct {
	Name       string  `yaml:"name"`
	Protection int     `yaml:"protection"`
	Weight     float64 `yaml:"weight"`
	State      string  `yaml:"state"`
}

type ConditionSnapshot struct {
	ID        string `yaml:"id"`
	Stacks    int    `yaml:"stacks"`
	Remaining int    `yaml:"remaining,omitempty"`
}

func parseReadyState(s string) (figure.ReadyState, error) {
	switch s {
	case "ready":
		return figure.Ready, nil
	case "dropped":
		return figure.Dropped, nil
	case "broken":
		return figure.Broken, nil
	default:
		return 0, fmt.Errorf("unknown ready state %q", s)
	}
}

func parsePosture(s string) (figure.Posture, error) {
	switch s {
	case "standing":
		return figure.Standing, nil
	case "kneeling":
		return figure.Kneeling, nil
	case "prone":
		return figure.Prone, nil
	default:
		return 0, fmt.Errorf("unknown posture %q", s)
	}
}

// Snapshot captures the scenario's full state.
//
// Postcondition: Pure read; the scenario is not mutated.
func (s *Scenario) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.ID.String(),
		Name:        s.Name,
		CreatedAt:   s.CreatedAt,
		BoardRadius: s.board.Radius,
	}
	for _, f := range s.figures {
		fs := FigureSnapshot{
			ID:            f.ID.String(),
			Name:          f.Name,
			Team:          f.Team,
			Size:          int(f.Size),
			Attributes:    f.Attr,
			Fatigue:       f.Fatigue.Current,
			Body:          f.Body.Current,
			Caster:        f.Caster,
			ManaStart:     f.Mana.Start,
			Mana:          f.Mana.Current,
			Posture:       f.Posture.String(),
			Armor:         f.Armor,
			CarriedWeight: f.CarriedWeight,
		}
		if f.Weapon.Name != "" {
			fs.Weapon = &WeaponSnapshot{
				Name: f.Weapon.Name, Damage: f.Weapon.Damage,
				Weight: f.Weapon.Weight, State: f.Weapon.State.String(),
			}
		}
		if f.Shield.Name != "" {
			fs.Shield = &ShieldSnapshot{
				Name: f.Shield.Name, Protection: f.Shield.Protection,
				Weight: f.Shield.Weight, State: f.Shield.State.String(),
			}
		}
		for _, a := range f.Conditions.All() {
			fs.Conditions = append(fs.Conditions, ConditionSnapshot{
				ID: a.Def.ID, Stacks: a.Stacks, Remaining: a.Remaining,
			})
		}
		if p, ok := s.board.Get(f.ID.String()); ok {
			fs.Head = p.Head
			fs.Facing = int(p.Facing)
		} else {
			fs.Removed = true
		}
		snap.Figures = append(snap.Figures, fs)
	}
	return snap
}

// Save writes the scenario snapshot to path as YAML.
func (s *Scenario) Save(path string) error {
	snap := s.Snapshot()
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("scenario %s: encoding snapshot: %w", s.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("scenario %s: writing snapshot: %w", s.Name, err)
	}
	return nil
}

// Restore rebuilds a scenario from a snapshot. Conditions are re-applied
// from reg; hooks may be nil to skip Lua hooks.
//
// Postcondition: Returns a scenario whose figures carry the snapshot's pool
// values with status flags re-derived, or an error.
func Restore(snap Snapshot, reg *condition.Registry, hooks *scripting.Hooks, clock Clock) (*Scenario, error) {
	id, err := uuid.Parse(snap.ID)
	if err != nil {
		return nil, fmt.Errorf("scenario snapshot: bad id: %w", err)
	}
	s := &Scenario{
		ID:        id,
		Name:      snap.Name,
		CreatedAt: snap.CreatedAt,
		clock:     clock,
		board:     hexmap.NewBoard(snap.BoardRadius),
	}
	for _, fs := range snap.Figures {
		f, err := restoreFigure(fs, reg, hooks)
		if err != nil {
			return nil, fmt.Errorf("scenario snapshot: figure %s: %w", fs.Name, err)
		}
		s.figures = append(s.figures, f)
		if fs.Removed {
			continue
		}
		err = s.board.Place(&hexmap.Placement{
			ID:     f.ID.String(),
			Team:   f.Team,
			Size:   int(f.Size),
			Armed:  f.Armed(),
			Prone:  f.Posture == figure.Prone,
			Head:   fs.Head,
			Facing: hexmap.Direction(fs.Facing),
		})
		if err != nil {
			return nil, fmt.Errorf("scenario snapshot: placing %s: %w", fs.Name, err)
		}
	}
	return s, nil
}

func restoreFigure(fs FigureSnapshot, reg *condition.Registry, hooks *scripting.Hooks) (*figure.Figure, error) {
	var opts []figure.Option
	if fs.Caster {
		opts = append(opts, figure.WithMana(fs.ManaStart))
	}
	if fs.Size > 1 {
		opts = append(opts, figure.WithSize(figure.Size(fs.Size)))
	}
	if fs.Armor > 0 {
		opts = append(opts, figure.WithArmor(fs.Armor))
	}
	if hooks != nil {
		opts = append(opts, figure.WithConditionHooks(hooks))
	}
	f, err := figure.New(fs.Name, fs.Team, fs.Attributes, opts...)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(fs.ID)
	if err != nil {
		return nil, fmt.Errorf("bad id: %w", err)
	}
	f.ID = id

	posture, err := parsePosture(fs.Posture)
	if err != nil {
		return nil, err
	}
	f.Posture = posture

	if fs.Weapon != nil {
		state, err := parseReadyState(fs.Weapon.State)
		if err != nil {
			return nil, err
		}
		f.Weapon = figure.Weapon{
			Name: fs.Weapon.Name, Damage: fs.Weapon.Damage,
			Weight: fs.Weapon.Weight, State: state,
		}
	}
	if fs.Shield != nil {
		state, err := parseReadyState(fs.Shield.State)
		if err != nil {
			return nil, err
		}
		f.Shield = figure.Shield{
			Name: fs.Shield.Name, Protection: fs.Shield.Protection,
			Weight: fs.Shield.Weight, State: state,
		}
	}
	f.SetEncumbrance(fs.CarriedWeight)

	for _, cs := range fs.Conditions {
		def, ok := reg.Get(cs.ID)
		if !ok {
			return nil, fmt.Errorf("unknown condition %q", cs.ID)
		}
		for i := 0; i < cs.Stacks; i++ {
			if err := f.Conditions.Apply(def, cs.Remaining); err != nil {
				return nil, err
			}
		}
	}

	f.RestorePools(fs.Fatigue, fs.Body, fs.Mana)
	return f, nil
}

// Load reads a snapshot file and rebuilds the scenario.
func Load(path string, reg *condition.Registry, hooks *scripting.Hooks, clock Clock) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %q: %w", path, err)
	}
	var snap Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("parsing scenario %q: %w", path, err)
	}
	return Restore(snap, reg, hooks, clock)
}
