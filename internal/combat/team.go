package combat

import (
	"fmt"

	"battlesim/internal/util"
)

// Combatant is the battle-local clone of a team member. It is discarded with
// the battle; the caller's Team and Hero values are never written.
type Combatant struct {
	ID            string
	HeroID        string
	Hero          Hero
	Side          Side
	CurrentHealth int
	MaxHealth     int
	Mana          int
	MaxMana       int
	Position      int

	startBuffs   []Buff
	startDebuffs []Buff
}

func (c *Combatant) Alive() bool { return c.CurrentHealth > 0 }

func (c *Combatant) HealthPercent() float64 {
	if c.MaxHealth <= 0 {
		return 0
	}
	return float64(c.CurrentHealth) / float64(c.MaxHealth)
}

// takeDamage reports whether this hit crossed the combatant to zero health.
func (c *Combatant) takeDamage(n int) bool {
	if n <= 0 || !c.Alive() {
		return false
	}
	c.CurrentHealth -= n
	if c.CurrentHealth <= 0 {
		c.CurrentHealth = 0
		return true
	}
	return false
}

func (c *Combatant) heal(n int) int {
	if n <= 0 || !c.Alive() {
		return 0
	}
	before := c.CurrentHealth
	c.CurrentHealth += n
	if c.CurrentHealth > c.MaxHealth {
		c.CurrentHealth = c.MaxHealth
	}
	return c.CurrentHealth - before
}

// Roster is one side of a battle.
type Roster struct {
	Side    Side
	TeamID  string
	Morale  float64
	Members []*Combatant
	// Skipped lists member hero ids that could not be resolved.
	Skipped []string
}

// NewRoster clones team into fresh combatants. Members whose hero cannot be
// resolved are left out and recorded in Skipped.
func NewRoster(side Side, team Team, heroes HeroSource) *Roster {
	r := &Roster{Side: side, TeamID: team.ID, Morale: team.Morale}
	for i, m := range team.Members {
		hero, ok := heroes.Hero(m.HeroID)
		if !ok {
			r.Skipped = append(r.Skipped, m.HeroID)
			continue
		}
		hero.Attributes = hero.Attributes.Clamp()
		maxHP := m.MaxHealth
		if maxHP <= 0 {
			maxHP = hero.BaseMaxHealth()
		}
		hp := m.CurrentHealth
		if hp <= 0 || hp > maxHP {
			hp = maxHP
		}
		maxMana := m.MaxMana
		if maxMana <= 0 {
			maxMana = hero.MaxMana
		}
		r.Members = append(r.Members, &Combatant{
			ID:            fmt.Sprintf("%s/%d/%s", side, i, m.HeroID),
			HeroID:        m.HeroID,
			Hero:          hero,
			Side:          side,
			CurrentHealth: hp,
			MaxHealth:     maxHP,
			Mana:          min(max(m.Mana, 0), maxMana),
			MaxMana:       maxMana,
			Position:      m.Position,
			startBuffs:    append([]Buff(nil), m.Buffs...),
			startDebuffs:  append([]Buff(nil), m.Debuffs...),
		})
	}
	return r
}

func (r *Roster) Alive() []*Combatant {
	var out []*Combatant
	for _, c := range r.Members {
		if c.Alive() {
			out = append(out, c)
		}
	}
	return out
}

func (r *Roster) AliveCount() int {
	n := 0
	for _, c := range r.Members {
		if c.Alive() {
			n++
		}
	}
	return n
}

func (r *Roster) FirstAlive() *Combatant {
	for _, c := range r.Members {
		if c.Alive() {
			return c
		}
	}
	return nil
}

// RandomAlive picks a uniformly random living member, or nil.
func (r *Roster) RandomAlive(rng util.Source) *Combatant {
	alive := r.Alive()
	idx := util.Pick(rng, len(alive))
	if idx < 0 {
		return nil
	}
	return alive[idx]
}

func (r *Roster) Casualties() int {
	return len(r.Members) - r.AliveCount()
}

// Jitter scales each member's attribute copy by a factor drawn from
// [1-variance, 1+variance].
func (r *Roster) Jitter(rng util.Source, variance float64) {
	if variance <= 0 {
		return
	}
	for _, c := range r.Members {
		f := 1 + (rng.Float64()*2-1)*variance
		c.Hero.Attributes = c.Hero.Attributes.Scale(f)
	}
}
