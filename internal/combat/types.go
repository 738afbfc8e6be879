package combat

import (
	"fmt"
	"strings"
)

type Faction string

const (
	FactionNeutral Faction = "neutral"
	FactionHuman   Faction = "human"
	FactionDemon   Faction = "demon"
	FactionAngel   Faction = "angel"
)

type DamageType string

const (
	Physical DamageType = "physical"
	Magical  DamageType = "magical"
)

func ParseDamageType(s string) (DamageType, error) {
	switch d := DamageType(strings.ToLower(strings.TrimSpace(s))); d {
	case Physical, Magical:
		return d, nil
	case "":
		return Physical, nil
	default:
		return "", fmt.Errorf("unknown damage type %q", s)
	}
}

// Side identifies which team a combatant fights for.
type Side string

const (
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
)

// Outcome is the classified end state of a battle or trial.
type Outcome string

const (
	OutcomeAttacker Outcome = "attacker"
	OutcomeDefender Outcome = "defender"
	OutcomeDraw     Outcome = "draw"
)

// Hero is the caller-owned, read-only description of a combatant.
type Hero struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Faction    Faction    `json:"faction"`
	Level      int        `json:"level"`
	DamageType DamageType `json:"damage_type"`
	Attributes Attributes `json:"attributes"`
	MaxHealth  int        `json:"max_health"`
	MaxMana    int        `json:"max_mana"`
	Skills     []Skill    `json:"skills,omitempty"`
}

// BaseMaxHealth falls back to a value derived from defense and command when
// the hero does not carry one.
func (h Hero) BaseMaxHealth() int {
	if h.MaxHealth > 0 {
		return h.MaxHealth
	}
	a := h.Attributes.Clamp()
	return 1000 + int(a.Defense*10+a.Command*5)
}

func (h Hero) IsPhysical() bool { return h.DamageType != Magical }

// ActiveSkill returns the first active skill in declaration order.
func (h Hero) ActiveSkill() (Skill, bool) {
	for _, sk := range h.Skills {
		if sk.Type == SkillActive {
			return sk, true
		}
	}
	return Skill{}, false
}

// HeroSource resolves hero ids referenced by team members.
type HeroSource interface {
	Hero(id string) (Hero, bool)
}

// Heroes is a map-backed HeroSource.
type Heroes map[string]Hero

func (h Heroes) Hero(id string) (Hero, bool) {
	hero, ok := h[id]
	return hero, ok
}

func IndexHeroes(list []Hero) Heroes {
	out := make(Heroes, len(list))
	for _, h := range list {
		out[h.ID] = h
	}
	return out
}

type Team struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Morale  float64      `json:"morale"`
	Members []TeamMember `json:"members"`
}

// TeamMember is a snapshot of a hero's battle-relevant state. Zero health
// values mean the hero enters at full health.
type TeamMember struct {
	HeroID        string `json:"hero_id"`
	CurrentHealth int    `json:"current_health"`
	MaxHealth     int    `json:"max_health"`
	Mana          int    `json:"mana"`
	MaxMana       int    `json:"max_mana"`
	Buffs         []Buff `json:"buffs,omitempty"`
	Debuffs       []Buff `json:"debuffs,omitempty"`
	Position      int    `json:"position"`
}

type BuffKind string

const (
	BuffAttack      BuffKind = "attack"
	BuffDamageBoost BuffKind = "damage_boost"
	BuffCritRate    BuffKind = "crit_rate"
	BuffCritDamage  BuffKind = "crit_damage"
	BuffDodge       BuffKind = "dodge"
	BuffAccuracy    BuffKind = "accuracy"
	BuffHealBoost   BuffKind = "heal_boost"
	BuffDefense     BuffKind = "defense"
	BuffShield      BuffKind = "shield"
)

var buffKinds = map[BuffKind]bool{
	BuffAttack: true, BuffDamageBoost: true, BuffCritRate: true, BuffCritDamage: true,
	BuffDodge: true, BuffAccuracy: true, BuffHealBoost: true, BuffDefense: true, BuffShield: true,
}

func (k BuffKind) Valid() bool { return buffKinds[k] }

// Buff is a timed modifier. Values are percentages except for shields, whose
// value is the number of hit points still absorbed.
type Buff struct {
	ID                string   `json:"id"`
	Kind              BuffKind `json:"kind"`
	Value             float64  `json:"value"`
	RemainingDuration float64  `json:"remaining_duration"`
	Source            string   `json:"source,omitempty"`
}

// Debuff shares the buff shape; it counts against the modifier kind it names.
type Debuff = Buff

type EventType string

const (
	EventAttack EventType = "attack"
	EventSkill  EventType = "skill"
	EventHeal   EventType = "heal"
	EventShield EventType = "shield"
	EventBuff   EventType = "buff"
	EventDebuff EventType = "debuff"
	EventDeath  EventType = "death"
	EventTick   EventType = "tick"
)

type Event struct {
	Seq          int       `json:"seq"`
	Round        int       `json:"round,omitempty"`
	Tick         int       `json:"tick,omitempty"`
	Type         EventType `json:"type"`
	Side         Side      `json:"side,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	Target       string    `json:"target,omitempty"`
	SkillID      string    `json:"skill,omitempty"`
	Damage       int       `json:"dmg,omitempty"`
	Heal         int       `json:"heal,omitempty"`
	Value        float64   `json:"value,omitempty"`
	Critical     bool      `json:"crit,omitempty"`
	Dodged       bool      `json:"dodged,omitempty"`
	TargetHealth int       `json:"hp"`
}

// EventLog is append-only; Seq is assigned on append.
type EventLog struct {
	events []Event
}

func (l *EventLog) Append(ev Event) {
	ev.Seq = len(l.events)
	l.events = append(l.events, ev)
}

func (l *EventLog) Len() int { return len(l.events) }

// Snapshot returns a copy safe to hand to callers.
func (l *EventLog) Snapshot() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
