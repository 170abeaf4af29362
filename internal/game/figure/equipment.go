package figure

// ReadyState tracks whether an equipped item is usable.
type ReadyState int

const (
	Ready ReadyState = iota
	Dropped
	Broken
)

// String returns the readiness label.
func (s ReadyState) String() string {
	switch s {
	case Ready:
		return "ready"
	case Dropped:
		return "dropped"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// Weapon is the figure's equipped weapon slot.
type Weapon struct {
	Name string `yaml:"name"`
	// Damage is the dice expression rolled on a hit, e.g. "2d6+1".
	Damage string  `yaml:"damage"`
	Weight float64 `yaml:"weight"`
	State  ReadyState
}

// Shield is the figure's equipped shield slot.
type Shield struct {
	Name       string  `yaml:"name"`
	Protection int     `yaml:"protection"`
	Weight     float64 `yaml:"weight"`
	State      ReadyState
}

// DropWeapon marks the weapon dropped. A dropped weapon can be picked up
// with the pick-up action; readiness is restored then.
func (f *Figure) DropWeapon() {
	if f.Weapon.Name != "" && f.Weapon.State == Ready {
		f.Weapon.State = Dropped
	}
}

// BreakWeapon marks the weapon broken. Broken weapons never become ready again.
func (f *Figure) BreakWeapon() {
	if f.Weapon.Name != "" {
		f.Weapon.State = Broken
	}
}

// ReadyWeapon re-readies a dropped weapon.
//
// Postcondition: A dropped weapon becomes Ready; a broken one stays Broken.
func (f *Figure) ReadyWeapon() {
	if f.Weapon.Name != "" && f.Weapon.State == Dropped {
		f.Weapon.State = Ready
	}
}
