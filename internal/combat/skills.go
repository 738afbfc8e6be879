package combat

import (
	"fmt"
	"strings"
)

type SkillType string

const (
	SkillActive  SkillType = "active"
	SkillPassive SkillType = "passive"
	SkillTalent  SkillType = "talent"
)

type EffectKind string

const (
	EffectDamage        EffectKind = "damage"
	EffectHeal          EffectKind = "heal"
	EffectShield        EffectKind = "shield"
	EffectBuff          EffectKind = "buff"
	EffectDebuff        EffectKind = "debuff"
	EffectCommandBoost  EffectKind = "command_boost"
	EffectStrengthBoost EffectKind = "strength_boost"
	EffectStrategyBoost EffectKind = "strategy_boost"
	EffectDefenseBoost  EffectKind = "defense_boost"
)

// Offensive effects land on opponents.
func (k EffectKind) Offensive() bool {
	return k == EffectDamage || k == EffectDebuff
}

// Attribute effects only feed passive aggregation.
func (k EffectKind) Attribute() bool {
	switch k {
	case EffectCommandBoost, EffectStrengthBoost, EffectStrategyBoost, EffectDefenseBoost:
		return true
	}
	return false
}

type EffectTarget string

const (
	TargetSelf  EffectTarget = "self"
	TargetAlly  EffectTarget = "ally"
	TargetEnemy EffectTarget = "enemy"
	TargetAll   EffectTarget = "all"
)

// SkillEffect values: damage is a percent skill multiplier (150 = 1.5x),
// heal a percent heal power, shield a percent of caster strategy, buff and
// debuff a flat percentage applied to Buff, boosts a percent attribute delta.
type SkillEffect struct {
	Kind      EffectKind   `json:"kind"`
	Value     float64      `json:"value"`
	Target    EffectTarget `json:"target"`
	Condition Condition    `json:"condition,omitempty"`
	Duration  float64      `json:"duration,omitempty"`
	Buff      BuffKind     `json:"buff,omitempty"`
}

type Skill struct {
	ID       string        `json:"id"`
	Name     string        `json:"name,omitempty"`
	Type     SkillType     `json:"type"`
	Effects  []SkillEffect `json:"effects"`
	Cooldown float64       `json:"cooldown"`
}

func ParseSkillType(s string) (SkillType, error) {
	switch t := SkillType(strings.ToLower(s)); t {
	case SkillActive, SkillPassive, SkillTalent:
		return t, nil
	default:
		return "", fmt.Errorf("unknown skill type %q", s)
	}
}

func ParseEffectKind(s string) (EffectKind, error) {
	switch k := EffectKind(strings.ToLower(s)); k {
	case EffectDamage, EffectHeal, EffectShield, EffectBuff, EffectDebuff,
		EffectCommandBoost, EffectStrengthBoost, EffectStrategyBoost, EffectDefenseBoost:
		return k, nil
	default:
		return "", fmt.Errorf("unknown effect kind %q", s)
	}
}

func ParseEffectTarget(s string) (EffectTarget, error) {
	switch t := EffectTarget(strings.ToLower(s)); t {
	case TargetSelf, TargetAlly, TargetEnemy, TargetAll:
		return t, nil
	case "":
		return TargetEnemy, nil
	default:
		return "", fmt.Errorf("unknown effect target %q", s)
	}
}

// SkillBook indexes skill definitions by id so heroes can reference them.
type SkillBook struct {
	byID map[string]Skill
}

func NewSkillBook(skills []Skill) *SkillBook {
	sb := &SkillBook{byID: make(map[string]Skill, len(skills))}
	for _, s := range skills {
		sb.byID[s.ID] = s
	}
	return sb
}

func (sb *SkillBook) Lookup(id string) (Skill, bool) {
	if sb == nil {
		return Skill{}, false
	}
	s, ok := sb.byID[id]
	return s, ok
}

// Instantiate resolves skill ids in order; an unknown id is an error.
func (sb *SkillBook) Instantiate(ids []string) ([]Skill, error) {
	out := make([]Skill, 0, len(ids))
	for _, id := range ids {
		s, ok := sb.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown skill %q", id)
		}
		out = append(out, s)
	}
	return out, nil
}
