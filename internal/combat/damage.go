package combat

import (
	"math"

	"battlesim/internal/util"
)

const (
	physicalDamageScale = 2.5
	magicalDamageScale  = 2.2

	physicalDefenseScale = 0.6
	magicalDefenseScale  = 0.5
	defenseReductionCap  = 0.75
	levelFactor          = 0.02

	BaseCritRate       = 0.05
	baseCritMultiplier = 1.5
	critRateCap        = 0.75

	BaseDodgeRate = 0.10
	dodgeRateMin  = 0.02
	dodgeRateMax  = 0.50

	healCritChance     = 0.10
	healCritMultiplier = 1.5
	healCapFraction    = 0.35
)

// Calculator turns attributes and modifiers into damage and heal numbers.
// It holds no battle state; every random draw comes from the Source passed in.
type Calculator struct {
	factions FactionTable
}

func NewCalculator(factions FactionTable) *Calculator {
	return &Calculator{factions: factions}
}

type DamageContext struct {
	Attacker        Attributes
	Defender        Attributes
	Physical        bool
	AttackerFaction Faction
	DefenderFaction Faction
	AttackerLevel   int
	DefenderLevel   int
	AttackerMods    []Buff
	DefenderMods    []Buff
	// SkillMultiplier of 0 is treated as 1 (basic attack).
	SkillMultiplier float64
}

type DamageResult struct {
	AttributeDamage  int     `json:"attribute_damage"`
	FinalDamage      int     `json:"final_damage"`
	Critical         bool    `json:"critical"`
	CritMultiplier   float64 `json:"crit_multiplier"`
	Dodged           bool    `json:"dodged"`
	DefenseReduction float64 `json:"defense_reduction"`
	FactionBonus     float64 `json:"faction_bonus"`
	BuffBonus        float64 `json:"buff_bonus"`
}

type HealResult struct {
	Amount   int  `json:"amount"`
	Critical bool `json:"critical"`
	Capped   bool `json:"capped"`
}

func (c *Calculator) AttributeDamage(physical bool, a Attributes) int {
	a = a.Clamp()
	if physical {
		return int(math.Round(a.Strength * physicalDamageScale))
	}
	return int(math.Round(a.Strategy * magicalDamageScale))
}

// DefenseReduction is the fraction of damage removed by defense. levelDiff is
// the defender's level advantage; it sits outside the 0.75 cap.
func (c *Calculator) DefenseReduction(defense float64, levelDiff int, physical bool) float64 {
	scale := magicalDefenseScale
	if physical {
		scale = physicalDefenseScale
	}
	r := math.Min(defense/100*scale, defenseReductionCap)
	r += float64(levelDiff) * levelFactor
	return clamp(r, 0, 1)
}

func (c *Calculator) CriticalRoll(rng util.Source, mods []Buff, baseRate float64) (bool, float64) {
	rate := math.Min(baseRate+sumKind(mods, BuffCritRate)/100, critRateCap)
	mult := baseCritMultiplier + sumKind(mods, BuffCritDamage)/100
	return util.Chance(rng, rate), mult
}

func (c *Calculator) DodgeRoll(rng util.Source, defenderMods, attackerMods []Buff, baseRate float64) bool {
	rate := baseRate + sumKind(defenderMods, BuffDodge)/100 - sumKind(attackerMods, BuffAccuracy)/100
	rate = clamp(rate, dodgeRateMin, dodgeRateMax)
	return util.Chance(rng, rate)
}

func (c *Calculator) FactionAdvantage(attacker, defender Faction) float64 {
	return c.factions.Advantage(attacker, defender)
}

// ResolveDamage consumes randomness in a fixed order (dodge, then crit) and
// multiplies terms in a fixed order so identical seeds give identical numbers.
func (c *Calculator) ResolveDamage(rng util.Source, ctx DamageContext) DamageResult {
	res := DamageResult{CritMultiplier: 1}
	res.AttributeDamage = c.AttributeDamage(ctx.Physical, ctx.Attacker)

	if c.DodgeRoll(rng, ctx.DefenderMods, ctx.AttackerMods, BaseDodgeRate) {
		res.Dodged = true
		return res
	}

	res.BuffBonus = (sumKind(ctx.AttackerMods, BuffAttack) + sumKind(ctx.AttackerMods, BuffDamageBoost)) / 100
	levelDiff := ctx.AttackerLevel - ctx.DefenderLevel
	res.DefenseReduction = c.DefenseReduction(ctx.Defender.Clamp().Defense, -levelDiff, ctx.Physical)
	res.FactionBonus = c.FactionAdvantage(ctx.AttackerFaction, ctx.DefenderFaction) - 1

	crit, critMult := c.CriticalRoll(rng, ctx.AttackerMods, BaseCritRate)
	res.Critical = crit
	critFactor := 1.0
	if crit {
		critFactor = critMult
		res.CritMultiplier = critMult
	}

	skillMult := ctx.SkillMultiplier
	if skillMult == 0 {
		skillMult = 1
	}
	dmg := float64(res.AttributeDamage) *
		skillMult *
		(1 + res.FactionBonus) *
		(1 + res.BuffBonus) *
		(1 - res.DefenseReduction) *
		critFactor *
		(1 + float64(levelDiff)*levelFactor)
	res.FinalDamage = int(math.Round(math.Max(1, dmg)))
	return res
}

// ResolveHeal never reports more than 35% of the target's max health.
func (c *Calculator) ResolveHeal(rng util.Source, healer Attributes, healPower float64, healerMods []Buff, targetMaxHealth int) HealResult {
	base := healer.Clamp().Strategy * healPower
	mult := 1 + sumKind(healerMods, BuffHealBoost)/100
	amount := base * mult

	var res HealResult
	if util.Chance(rng, healCritChance) {
		res.Critical = true
		amount *= healCritMultiplier
	}
	limit := math.Floor(healCapFraction * float64(targetMaxHealth))
	amount = math.Round(amount)
	if amount > limit {
		amount = limit
		res.Capped = true
	}
	if amount < 0 {
		amount = 0
	}
	res.Amount = int(amount)
	return res
}

func sumKind(mods []Buff, kind BuffKind) float64 {
	total := 0.0
	for _, m := range mods {
		if m.Kind == kind {
			total += m.Value
		}
	}
	return total
}
