package figure

import "fmt"

// Role scopes what a caller may read from a figure. The mana pool is GM
// information: the owning player's decision interface never sees it. The
// boundary is enforced by which view type a caller can obtain, not by
// convention.
type Role int

const (
	RolePlayer Role = iota
	RoleGM
)

// String returns the role label.
func (r Role) String() string {
	switch r {
	case RolePlayer:
		return "player"
	case RoleGM:
		return "gm"
	default:
		return "unknown"
	}
}

// PlayerView is the player-facing read model: everything a player may know
// about their own figure. It carries no mana field at all.
type PlayerView struct {
	ID          string
	Name        string
	Team        string
	Attr        Attributes
	Fatigue     Pool
	Body        Pool
	Load        string
	MA          int
	Posture     string
	Engagement  string
	Weapon      string
	WeaponOK    bool
	Shield      string
	Protection  int
	Exhausted   bool
	Unconscious bool
	Dead        bool
}

// GMView is the GM-facing read model: the full player view plus the secret
// mana pool.
type GMView struct {
	PlayerView
	Mana   Pool
	Caster bool
}

// PlayerView builds the player-facing snapshot of the figure.
//
// Postcondition: The returned value contains no mana information.
func (f *Figure) PlayerView() PlayerView {
	return PlayerView{
		ID:          f.ID.String(),
		Name:        f.Name,
		Team:        f.Team,
		Attr:        f.Attr,
		Fatigue:     f.Fatigue,
		Body:        f.Body,
		Load:        f.Load.String(),
		MA:          f.MA(),
		Posture:     f.Posture.String(),
		Engagement:  f.Engagement.String(),
		Weapon:      f.Weapon.Name,
		WeaponOK:    f.Weapon.State == Ready,
		Shield:      f.Shield.Name,
		Protection:  f.Protection(),
		Exhausted:   f.status.Exhausted,
		Unconscious: f.status.Unconscious,
		Dead:        f.status.Dead,
	}
}

// GMView builds the GM-facing snapshot including the mana pool.
func (f *Figure) GMView() GMView {
	return GMView{
		PlayerView: f.PlayerView(),
		Mana:       f.Mana,
		Caster:     f.Caster,
	}
}

// Describe renders the view appropriate for the caller's role. Presentation
// layers should call this rather than choosing a view themselves.
func (f *Figure) Describe(r Role) string {
	switch r {
	case RoleGM:
		v := f.GMView()
		if v.Caster {
			return fmt.Sprintf("%s [%s] FA %d/%d BD %d/%d MN %d/%d MA %d %s",
				v.Name, v.Team, v.Fatigue.Current, v.Fatigue.Start,
				v.Body.Current, v.Body.Start, v.Mana.Current, v.Mana.Start, v.MA, v.Engagement)
		}
		return fmt.Sprintf("%s [%s] FA %d/%d BD %d/%d MA %d %s",
			v.Name, v.Team, v.Fatigue.Current, v.Fatigue.Start,
			v.Body.Current, v.Body.Start, v.MA, v.Engagement)
	default:
		v := f.PlayerView()
		return fmt.Sprintf("%s [%s] FA %d/%d BD %d/%d MA %d %s",
			v.Name, v.Team, v.Fatigue.Current, v.Fatigue.Start,
			v.Body.Current, v.Body.Start, v.MA, v.Engagement)
	}
}
