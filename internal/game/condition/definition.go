// Package condition tracks status conditions applied to figures during
// combat: their YAML definitions, per-figure active sets, and the roll and
// movement modifiers they contribute.
package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Def is the static definition of a condition, loaded from YAML.
type Def struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// DurationType is "turns" or "permanent".
	DurationType string `yaml:"duration_type"`
	// MaxStacks caps stacking; 0 = unstackable.
	MaxStacks int `yaml:"max_stacks"`
	// DXPenalty is subtracted from adjusted Dexterity per stack.
	DXPenalty int `yaml:"dx_penalty"`
	// MAPenalty is subtracted from movement allowance per stack.
	MAPenalty int `yaml:"ma_penalty"`
	// RestrictActions lists action kinds blocked while the condition holds.
	RestrictActions []string `yaml:"restrict_actions"`
	// OnApply, OnTick, and OnRemove are optional sandboxed Lua hooks. OnTick
	// runs each cleanup phase with globals stacks and damage; the damage it
	// leaves behind is applied to the figure's fatigue pool.
	OnApply  string `yaml:"on_apply"`
	OnTick   string `yaml:"on_tick"`
	OnRemove string `yaml:"on_remove"`
}

// Validate checks the definition's structural invariants.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("condition: id must be non-empty")
	}
	switch d.DurationType {
	case "turns", "permanent":
	default:
		return fmt.Errorf("condition %q: duration_type must be \"turns\" or \"permanent\", got %q", d.ID, d.DurationType)
	}
	if d.MaxStacks < 0 {
		return fmt.Errorf("condition %q: max_stacks must be >= 0", d.ID)
	}
	return nil
}

// Registry holds all known condition Defs keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def to the registry, overwriting any existing entry with the
// same ID.
//
// Precondition: def must pass Validate.
func (r *Registry) Register(def *Def) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the Def for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Defs.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def, and
// returns a populated Registry. A malformed file is a setup-time
// configuration error.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails
// to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(&def); err != nil {
			return nil, fmt.Errorf("registering %q: %w", path, err)
		}
	}
	return reg, nil
}

// Builtin returns a registry with the conditions the default rules need,
// used when no content directory overrides them.
func Builtin() *Registry {
	reg := NewRegistry()
	defs := []*Def{
		{
			ID: "bleeding", Name: "Bleeding", DurationType: "permanent", MaxStacks: 5,
			Description: "Loses fatigue each turn until treated.",
			OnTick:      "damage = stacks",
		},
		{
			ID: "stunned", Name: "Stunned", DurationType: "turns", MaxStacks: 0,
			DXPenalty:       2,
			RestrictActions: []string{"run", "charge"},
		},
	}
	for _, d := range defs {
		if err := reg.Register(d); err != nil {
			panic("condition: invalid builtin definition: " + err.Error())
		}
	}
	return reg
}
