package dice

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables bundles the two roll modes the combat rules use.
type Tables struct {
	// Attack is the 3-die to-hit table.
	Attack OutcomeTable
	// Versus is the 4-die table used when the defender declared a dodge or defend.
	Versus OutcomeTable
}

// tableFile is the YAML shape of rules/tables.yaml.
type tableFile struct {
	Attack tableDef `yaml:"attack"`
	Versus tableDef `yaml:"versus"`
}

type tableDef struct {
	Dice     int                 `yaml:"dice"`
	Specials map[int]specialItem `yaml:"specials"`
}

type specialItem struct {
	Result     string   `yaml:"result"`
	Multiplier int      `yaml:"multiplier"`
	Effects    []string `yaml:"effects"`
}

var resultKinds = map[string]ResultKind{
	"critical_success": CritSuccess,
	"success":          Success,
	"failure":          Failure,
	"critical_failure": CritFailure,
}

var knownEffects = map[Effect]bool{
	EffectBleeding:    true,
	EffectDropWeapon:  true,
	EffectBreakWeapon: true,
}

// LoadTables reads the outcome table configuration from path.
// A malformed file is a setup-time configuration error; no scenario may start
// with unvalidated tables.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns validated Tables, or an error naming every violation found.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading outcome tables %q: %w", path, err)
	}
	var f tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing outcome tables %q: %w", path, err)
	}

	attack, err := f.Attack.build("attack")
	if err != nil {
		return nil, err
	}
	versus, err := f.Versus.build("versus")
	if err != nil {
		return nil, err
	}
	return &Tables{Attack: attack, Versus: versus}, nil
}

// build converts a tableDef into a validated OutcomeTable.
func (d tableDef) build(name string) (OutcomeTable, error) {
	if d.Dice < 1 {
		return OutcomeTable{}, fmt.Errorf("table %q: dice must be >= 1, got %d", name, d.Dice)
	}
	t := OutcomeTable{Name: name, Dice: d.Dice, Specials: make(map[int]SpecialEntry, len(d.Specials))}
	for sum, item := range d.Specials {
		if sum < d.Dice || sum > Sides*d.Dice {
			return OutcomeTable{}, fmt.Errorf(
				"table %q: special sum %d outside roll support [%d, %d]",
				name, sum, d.Dice, Sides*d.Dice)
		}
		kind, ok := resultKinds[item.Result]
		if !ok {
			return OutcomeTable{}, fmt.Errorf("table %q: sum %d: unknown result %q", name, sum, item.Result)
		}
		entry := SpecialEntry{Kind: kind, Multiplier: item.Multiplier}
		if (kind == CritSuccess || kind == Success) && entry.Multiplier < 1 {
			entry.Multiplier = 1
		}
		for _, e := range item.Effects {
			eff := Effect(e)
			if !knownEffects[eff] {
				return OutcomeTable{}, fmt.Errorf("table %q: sum %d: unknown effect %q", name, sum, e)
			}
			entry.Effects = append(entry.Effects, eff)
		}
		t.Specials[sum] = entry
	}
	return t, nil
}

// DefaultTables returns the built-in rulebook tables, used when no
// configuration file overrides them.
//
// Attack (3 dice): 3 triple damage, 4 double damage and bleeding, 5 automatic
// hit, 16 automatic miss, 17 miss and drop weapon, 18 miss and break weapon.
// Versus (4 dice): 4-5 automatic hit, 20 automatic miss, 21-22 drop weapon,
// 23-24 break weapon.
func DefaultTables() *Tables {
	return &Tables{
		Attack: OutcomeTable{
			Name: "attack",
			Dice: 3,
			Specials: map[int]SpecialEntry{
				3:  {Kind: CritSuccess, Multiplier: 3},
				4:  {Kind: CritSuccess, Multiplier: 2, Effects: []Effect{EffectBleeding}},
				5:  {Kind: Success, Multiplier: 1},
				16: {Kind: Failure},
				17: {Kind: CritFailure, Effects: []Effect{EffectDropWeapon}},
				18: {Kind: CritFailure, Effects: []Effect{EffectBreakWeapon}},
			},
		},
		Versus: OutcomeTable{
			Name: "versus",
			Dice: 4,
			Specials: map[int]SpecialEntry{
				4:  {Kind: Success, Multiplier: 1},
				5:  {Kind: Success, Multiplier: 1},
				20: {Kind: Failure},
				21: {Kind: CritFailure, Effects: []Effect{EffectDropWeapon}},
				22: {Kind: CritFailure, Effects: []Effect{EffectDropWeapon}},
				23: {Kind: CritFailure, Effects: []Effect{EffectBreakWeapon}},
				24: {Kind: CritFailure, Effects: []Effect{EffectBreakWeapon}},
			},
		},
	}
}
