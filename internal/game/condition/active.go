package condition

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/melee/internal/scripting"
)

// Active is one condition instance held by a figure.
type Active struct {
	Def    *Def
	Stacks int
	// Remaining counts turns left for duration_type "turns"; ignored for
	// permanent conditions.
	Remaining int
}

// ActiveSet is the collection of conditions on a single figure.
type ActiveSet struct {
	active map[string]*Active
	hooks  *scripting.Hooks
}

// NewActiveSet creates an empty ActiveSet. hooks may be nil, in which case
// Lua hooks on definitions are skipped.
func NewActiveSet(hooks *scripting.Hooks) *ActiveSet {
	return &ActiveSet{active: make(map[string]*Active), hooks: hooks}
}

// Apply adds a stack of def, or refreshes its duration when the stack cap is
// reached. duration is the turn count for "turns" conditions and ignored
// otherwise.
//
// Postcondition: Has(def.ID) is true and Stacks(def.ID) <= max(1, def.MaxStacks).
func (s *ActiveSet) Apply(def *Def, duration int) error {
	cap := def.MaxStacks
	if cap < 1 {
		cap = 1
	}
	a, ok := s.active[def.ID]
	if !ok {
		a = &Active{Def: def, Stacks: 0}
		s.active[def.ID] = a
	}
	if a.Stacks < cap {
		a.Stacks++
	}
	if def.DurationType == "turns" {
		a.Remaining = duration
	}
	if s.hooks != nil && def.OnApply != "" {
		if _, err := s.hooks.Run(def.OnApply, map[string]int{"stacks": a.Stacks}); err != nil {
			return fmt.Errorf("condition %q on_apply: %w", def.ID, err)
		}
	}
	return nil
}

// Remove clears the condition with the given ID. Removing an absent
// condition is a no-op.
func (s *ActiveSet) Remove(id string) error {
	a, ok := s.active[id]
	if !ok {
		return nil
	}
	delete(s.active, id)
	if s.hooks != nil && a.Def.OnRemove != "" {
		if _, err := s.hooks.Run(a.Def.OnRemove, map[string]int{"stacks": a.Stacks}); err != nil {
			return fmt.Errorf("condition %q on_remove: %w", id, err)
		}
	}
	return nil
}

// Has reports whether the condition with the given ID is active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.active[id]
	return ok
}

// Stacks returns the stack count for id, 0 when absent.
func (s *ActiveSet) Stacks(id string) int {
	if a, ok := s.active[id]; ok {
		return a.Stacks
	}
	return 0
}

// All returns the active conditions sorted by ID.
func (s *ActiveSet) All() []*Active {
	out := make([]*Active, 0, len(s.active))
	for _, a := range s.active {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}

// TickResult reports the effects of one cleanup-phase tick.
type TickResult struct {
	// Damage is total fatigue damage produced by on_tick hooks this turn.
	Damage int
	// Expired lists condition IDs whose duration ran out and were removed.
	Expired []string
}

// Tick advances all timed conditions by one turn, runs on_tick hooks, and
// removes expired conditions.
//
// Postcondition: every "turns" condition's Remaining decreased by one, and
// those that reached zero are no longer active.
func (s *ActiveSet) Tick() (TickResult, error) {
	var res TickResult
	for _, a := range s.All() {
		if s.hooks != nil && a.Def.OnTick != "" {
			out, err := s.hooks.Run(a.Def.OnTick, map[string]int{"stacks": a.Stacks, "damage": 0})
			if err != nil {
				return res, fmt.Errorf("condition %q on_tick: %w", a.Def.ID, err)
			}
			res.Damage += out["damage"]
		}
		if a.Def.DurationType == "turns" {
			a.Remaining--
			if a.Remaining <= 0 {
				if err := s.Remove(a.Def.ID); err != nil {
					return res, err
				}
				res.Expired = append(res.Expired, a.Def.ID)
			}
		}
	}
	return res, nil
}
