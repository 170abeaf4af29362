package condition

// DXAdjustment returns the total Dexterity penalty from active conditions,
// as a non-positive value suitable for summing into an adjusted DX.
func (s *ActiveSet) DXAdjustment() int {
	total := 0
	for _, a := range s.active {
		total -= a.Def.DXPenalty * a.Stacks
	}
	return total
}

// MAAdjustment returns the total movement allowance penalty from active
// conditions, as a non-positive value.
func (s *ActiveSet) MAAdjustment() int {
	total := 0
	for _, a := range s.active {
		total -= a.Def.MAPenalty * a.Stacks
	}
	return total
}

// Restricts reports whether any active condition blocks the named action
// kind.
func (s *ActiveSet) Restricts(kind string) bool {
	for _, a := range s.active {
		for _, k := range a.Def.RestrictActions {
			if k == kind {
				return true
			}
		}
	}
	return false
}
