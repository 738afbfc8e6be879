package combat

import (
	"errors"
	"fmt"
	"math"

	"battlesim/internal/util"
)

var ErrSkillOnCooldown = errors.New("skill on cooldown")

const conditionBoost = 1.5

type cooldownKey struct {
	unit  string
	skill string
}

type Cooldown struct {
	Remaining float64 `json:"remaining"`
	Max       float64 `json:"max"`
}

type effectSet struct {
	buffs   []Buff
	debuffs []Buff
}

// Tracker owns the cooldown registry and active buffs/debuffs of one battle.
// Units are keyed by combatant id. A Tracker is not safe for concurrent use.
type Tracker struct {
	calc      *Calculator
	cooldowns map[cooldownKey]*Cooldown
	effects   map[string]*effectSet
}

func NewTracker(calc *Calculator) *Tracker {
	return &Tracker{
		calc:      calc,
		cooldowns: map[cooldownKey]*Cooldown{},
		effects:   map[string]*effectSet{},
	}
}

// Enroll seeds the tracker with the buffs and debuffs members carried in.
func (t *Tracker) Enroll(rosters ...*Roster) {
	for _, r := range rosters {
		for _, c := range r.Members {
			for _, b := range c.startBuffs {
				t.ApplyBuff(c.ID, b)
			}
			for _, d := range c.startDebuffs {
				t.ApplyDebuff(c.ID, d)
			}
		}
	}
}

// Cast moves a ready skill onto cooldown.
func (t *Tracker) Cast(unit string, sk Skill) error {
	if !t.IsReady(unit, sk.ID) {
		return fmt.Errorf("%w: %s/%s", ErrSkillOnCooldown, unit, sk.ID)
	}
	if sk.Cooldown <= 0 {
		return nil
	}
	t.cooldowns[cooldownKey{unit, sk.ID}] = &Cooldown{Remaining: sk.Cooldown, Max: sk.Cooldown}
	return nil
}

func (t *Tracker) IsReady(unit, skillID string) bool {
	cd, ok := t.cooldowns[cooldownKey{unit, skillID}]
	return !ok || cd.Remaining <= 0
}

func (t *Tracker) Cooldown(unit, skillID string) Cooldown {
	if cd, ok := t.cooldowns[cooldownKey{unit, skillID}]; ok {
		return *cd
	}
	return Cooldown{}
}

func (t *Tracker) set(unit string) *effectSet {
	s, ok := t.effects[unit]
	if !ok {
		s = &effectSet{}
		t.effects[unit] = s
	}
	return s
}

func (t *Tracker) ApplyBuff(unit string, b Buff) {
	s := t.set(unit)
	s.buffs = append(s.buffs, b)
}

func (t *Tracker) ApplyDebuff(unit string, d Debuff) {
	s := t.set(unit)
	s.debuffs = append(s.debuffs, d)
}

func (t *Tracker) Buffs(unit string) []Buff {
	if s, ok := t.effects[unit]; ok {
		return append([]Buff(nil), s.buffs...)
	}
	return nil
}

func (t *Tracker) Debuffs(unit string) []Debuff {
	if s, ok := t.effects[unit]; ok {
		return append([]Buff(nil), s.debuffs...)
	}
	return nil
}

// Modifiers returns buffs followed by debuffs with negated values, the form
// the calculator sums over.
func (t *Tracker) Modifiers(unit string) []Buff {
	s, ok := t.effects[unit]
	if !ok {
		return nil
	}
	out := make([]Buff, 0, len(s.buffs)+len(s.debuffs))
	for _, b := range s.buffs {
		if b.Kind == BuffShield {
			continue
		}
		out = append(out, b)
	}
	for _, d := range s.debuffs {
		d.Value = -d.Value
		out = append(out, d)
	}
	return out
}

// AbsorbDamage lets shield buffs soak dmg first and returns what is left.
func (t *Tracker) AbsorbDamage(unit string, dmg int) (remaining, absorbed int) {
	s, ok := t.effects[unit]
	if !ok || dmg <= 0 {
		return dmg, 0
	}
	remaining = dmg
	kept := s.buffs[:0]
	for _, b := range s.buffs {
		if b.Kind == BuffShield && remaining > 0 {
			take := math.Min(b.Value, float64(remaining))
			b.Value -= take
			remaining -= int(take)
			absorbed += int(take)
			if b.Value <= 0 {
				continue
			}
		}
		kept = append(kept, b)
	}
	s.buffs = kept
	return remaining, absorbed
}

// Advance decays cooldowns (clamped at zero) and effect durations; effects
// whose remaining duration reaches zero are removed.
func (t *Tracker) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	for _, cd := range t.cooldowns {
		cd.Remaining = math.Max(0, cd.Remaining-dt)
	}
	for _, s := range t.effects {
		s.buffs = decay(s.buffs, dt)
		s.debuffs = decay(s.debuffs, dt)
	}
}

func decay(list []Buff, dt float64) []Buff {
	kept := list[:0]
	for _, b := range list {
		b.RemainingDuration -= dt
		if b.RemainingDuration <= 0 {
			continue
		}
		kept = append(kept, b)
	}
	return kept
}

// EffectiveAttributes is the per-action attribute copy: passives for ctx,
// then defense buffs and debuffs.
func (t *Tracker) EffectiveAttributes(c *Combatant, ctx BattleContext) Attributes {
	a := PassiveModifiers(c.Hero, ctx).Apply(c.Hero.Attributes)
	if d := sumKind(t.Modifiers(c.ID), BuffDefense); d != 0 {
		a.Defense *= 1 + d/100
	}
	return a.Clamp()
}

func (t *Tracker) damageContext(attacker, target *Combatant, ctx BattleContext, multiplier float64) DamageContext {
	targetCtx := ctx
	targetCtx.CasterHealthPercent = target.HealthPercent()
	return DamageContext{
		Attacker:        t.EffectiveAttributes(attacker, ctx),
		Defender:        t.EffectiveAttributes(target, targetCtx),
		Physical:        attacker.Hero.IsPhysical(),
		AttackerFaction: attacker.Hero.Faction,
		DefenderFaction: target.Hero.Faction,
		AttackerLevel:   attacker.Hero.Level,
		DefenderLevel:   target.Hero.Level,
		AttackerMods:    t.Modifiers(attacker.ID),
		DefenderMods:    t.Modifiers(target.ID),
		SkillMultiplier: multiplier,
	}
}

// Hit is the outcome of one damage application.
type Hit struct {
	Damage   DamageResult
	Absorbed int
	Dealt    int
	Killed   bool
}

// Strike resolves attacker hitting target and applies it: shields first,
// then health clamped at zero.
func (t *Tracker) Strike(rng util.Source, attacker, target *Combatant, multiplier float64, ctx BattleContext) Hit {
	res := t.calc.ResolveDamage(rng, t.damageContext(attacker, target, ctx, multiplier))
	return t.land(target, res)
}

func (t *Tracker) land(target *Combatant, res DamageResult) Hit {
	h := Hit{Damage: res}
	if res.FinalDamage <= 0 {
		return h
	}
	remaining, absorbed := t.AbsorbDamage(target.ID, res.FinalDamage)
	h.Absorbed = absorbed
	before := target.CurrentHealth
	h.Killed = target.takeDamage(remaining)
	h.Dealt = before - target.CurrentHealth
	return h
}

// EffectResult is the concrete value of one (target, effect) pair.
type EffectResult struct {
	Target  *Combatant
	Effect  SkillEffect
	Boosted bool
	Damage  DamageResult
	Heal    HealResult
	// Amount is damage, heal or shield points; Value is the buff percentage.
	Amount int
	Value  float64
}

// ResolveEffect computes the value of ef on target without applying it.
// A condition that holds boosts the value by half; otherwise the base value
// is used.
func (t *Tracker) ResolveEffect(rng util.Source, caster, target *Combatant, ef SkillEffect, ctx BattleContext) EffectResult {
	res := EffectResult{Target: target, Effect: ef}
	factor := 1.0
	if ef.Condition != ConditionNone && ef.Condition.Holds(ctx) {
		res.Boosted = true
		factor = conditionBoost
	}
	switch ef.Kind {
	case EffectDamage:
		res.Damage = t.calc.ResolveDamage(rng, t.damageContext(caster, target, ctx, ef.Value/100*factor))
		res.Amount = res.Damage.FinalDamage
	case EffectHeal:
		attrs := t.EffectiveAttributes(caster, ctx)
		res.Heal = t.calc.ResolveHeal(rng, attrs, ef.Value/100*factor, t.Modifiers(caster.ID), target.MaxHealth)
		res.Amount = res.Heal.Amount
	case EffectShield:
		attrs := t.EffectiveAttributes(caster, ctx)
		res.Amount = int(math.Round(attrs.Strategy * ef.Value / 100 * factor))
	case EffectBuff, EffectDebuff:
		res.Value = ef.Value * factor
	}
	return res
}

// TargetedEffect pairs an effect with the combatants it lands on.
type TargetedEffect struct {
	Effect  SkillEffect
	Targets []*Combatant
}

// ResolveSkill resolves every (target, effect) pair in declaration order.
func (t *Tracker) ResolveSkill(rng util.Source, caster *Combatant, effects []TargetedEffect, ctx BattleContext) []EffectResult {
	var out []EffectResult
	for _, te := range effects {
		for _, target := range te.Targets {
			out = append(out, t.ResolveEffect(rng, caster, target, te.Effect, ctx))
		}
	}
	return out
}

// Land applies a resolved effect result. It returns the hit for damage
// effects and the health actually restored for heals.
func (t *Tracker) Land(caster *Combatant, r EffectResult, skillID string) (Hit, int) {
	switch r.Effect.Kind {
	case EffectDamage:
		return t.land(r.Target, r.Damage), 0
	case EffectHeal:
		return Hit{}, r.Target.heal(r.Amount)
	case EffectShield:
		if r.Amount > 0 {
			t.ApplyBuff(r.Target.ID, Buff{
				ID: skillID, Kind: BuffShield, Value: float64(r.Amount),
				RemainingDuration: durationOr(r.Effect.Duration), Source: caster.ID,
			})
		}
	case EffectBuff:
		t.ApplyBuff(r.Target.ID, Buff{
			ID: skillID, Kind: r.Effect.Buff, Value: r.Value,
			RemainingDuration: durationOr(r.Effect.Duration), Source: caster.ID,
		})
	case EffectDebuff:
		t.ApplyDebuff(r.Target.ID, Buff{
			ID: skillID, Kind: r.Effect.Buff, Value: r.Value,
			RemainingDuration: durationOr(r.Effect.Duration), Source: caster.ID,
		})
	}
	return Hit{}, 0
}

const defaultEffectDuration = 9.0

func durationOr(d float64) float64 {
	if d > 0 {
		return d
	}
	return defaultEffectDuration
}
