package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_CooldownLifecycle(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	sk := Skill{ID: "volley", Type: SkillActive, Cooldown: 15}

	require.True(t, tr.IsReady("a/0/archer", "volley"))
	require.NoError(t, tr.Cast("a/0/archer", sk))
	assert.False(t, tr.IsReady("a/0/archer", "volley"))
	assert.ErrorIs(t, tr.Cast("a/0/archer", sk), ErrSkillOnCooldown)

	tr.Advance(14)
	assert.False(t, tr.IsReady("a/0/archer", "volley"))
	assert.InDelta(t, 1.0, tr.Cooldown("a/0/archer", "volley").Remaining, 1e-9)

	tr.Advance(15)
	assert.True(t, tr.IsReady("a/0/archer", "volley"))
	assert.Equal(t, 0.0, tr.Cooldown("a/0/archer", "volley").Remaining)
}

func TestTracker_CooldownsAreScopedPerUnit(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	sk := Skill{ID: "volley", Type: SkillActive, Cooldown: 15}

	require.NoError(t, tr.Cast("attacker/0/archer", sk))
	assert.True(t, tr.IsReady("defender/0/archer", "volley"))
	assert.True(t, tr.IsReady("attacker/0/archer", "other"))
}

func TestTracker_ZeroCooldownAlwaysReady(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	sk := Skill{ID: "jab", Type: SkillActive}

	require.NoError(t, tr.Cast("u", sk))
	require.NoError(t, tr.Cast("u", sk))
	assert.True(t, tr.IsReady("u", "jab"))
}

func TestTracker_BuffExpiry(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	tr.ApplyBuff("u", Buff{ID: "rally", Kind: BuffAttack, Value: 20, RemainingDuration: 3})

	tr.Advance(2)
	buffs := tr.Buffs("u")
	require.Len(t, buffs, 1)
	assert.InDelta(t, 1.0, buffs[0].RemainingDuration, 1e-9)

	tr.Advance(3)
	assert.Empty(t, tr.Buffs("u"))
}

func TestTracker_AdvanceIgnoresNonPositive(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	tr.ApplyDebuff("u", Buff{ID: "slow", Kind: BuffDodge, Value: 5, RemainingDuration: 1})

	tr.Advance(0)
	tr.Advance(-4)
	require.Len(t, tr.Debuffs("u"), 1)
	assert.Equal(t, 1.0, tr.Debuffs("u")[0].RemainingDuration)
}

func TestTracker_ModifiersNegateDebuffs(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	tr.ApplyBuff("u", Buff{Kind: BuffAttack, Value: 20, RemainingDuration: 5})
	tr.ApplyBuff("u", Buff{Kind: BuffShield, Value: 100, RemainingDuration: 5})
	tr.ApplyDebuff("u", Buff{Kind: BuffAttack, Value: 5, RemainingDuration: 5})

	mods := tr.Modifiers("u")
	require.Len(t, mods, 2)
	assert.InDelta(t, 15.0, sumKind(mods, BuffAttack), 1e-9)
	assert.Zero(t, sumKind(mods, BuffShield))
}

func TestTracker_AbsorbDamage(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	tr.ApplyBuff("u", Buff{ID: "ward", Kind: BuffShield, Value: 60, RemainingDuration: 5})

	remaining, absorbed := tr.AbsorbDamage("u", 40)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, 40, absorbed)

	remaining, absorbed = tr.AbsorbDamage("u", 50)
	assert.Equal(t, 30, remaining)
	assert.Equal(t, 20, absorbed)
	assert.Empty(t, tr.Buffs("u"), "depleted shield is removed")
}

func TestTracker_StrikeAppliesShieldThenHealth(t *testing.T) {
	heroes := testHeroes()
	att := NewRoster(SideAttacker, testTeam("a", "knight"), heroes)
	def := NewRoster(SideDefender, testTeam("d", "imp"), heroes)
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	target := def.Members[0]
	tr.ApplyBuff(target.ID, Buff{Kind: BuffShield, Value: 50, RemainingDuration: 5})

	hit := tr.Strike(noRolls, att.Members[0], target, 1, BattleContext{Round: 1})

	require.Greater(t, hit.Damage.FinalDamage, 50)
	assert.Equal(t, 50, hit.Absorbed)
	assert.Equal(t, hit.Damage.FinalDamage-50, hit.Dealt)
	assert.Equal(t, target.MaxHealth-hit.Dealt, target.CurrentHealth)
	assert.False(t, hit.Killed)
}

func TestTracker_KillReportedOnce(t *testing.T) {
	heroes := testHeroes()
	att := NewRoster(SideAttacker, testTeam("a", "knight"), heroes)
	team := testTeam("d", "imp")
	team.Members[0].CurrentHealth = 1
	def := NewRoster(SideDefender, team, heroes)
	tr := NewTracker(NewCalculator(DefaultFactionTable()))

	first := tr.Strike(noRolls, att.Members[0], def.Members[0], 1, BattleContext{})
	second := tr.Strike(noRolls, att.Members[0], def.Members[0], 1, BattleContext{})

	assert.True(t, first.Killed)
	assert.False(t, second.Killed)
	assert.Equal(t, 0, def.Members[0].CurrentHealth)
}

func TestTracker_ResolveEffectConditionBoost(t *testing.T) {
	heroes := testHeroes()
	own := NewRoster(SideAttacker, testTeam("a", "cleric"), heroes)
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	caster := own.Members[0]
	buff := SkillEffect{Kind: EffectBuff, Value: 20, Target: TargetSelf, Buff: BuffAttack, Condition: ConditionRain}

	dry := tr.ResolveEffect(noRolls, caster, caster, buff, BattleContext{Weather: WeatherClear})
	wet := tr.ResolveEffect(noRolls, caster, caster, buff, BattleContext{Weather: WeatherRain})

	assert.False(t, dry.Boosted)
	assert.Equal(t, 20.0, dry.Value)
	assert.True(t, wet.Boosted)
	assert.Equal(t, 30.0, wet.Value)
}

func TestTracker_ResolveEffectUnknownConditionUsesBaseValue(t *testing.T) {
	heroes := testHeroes()
	own := NewRoster(SideAttacker, testTeam("a", "cleric"), heroes)
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	caster := own.Members[0]
	ef := SkillEffect{Kind: EffectShield, Value: 100, Target: TargetSelf, Condition: Condition(99)}

	res := tr.ResolveEffect(noRolls, caster, caster, ef, BattleContext{Round: 1})

	assert.False(t, res.Boosted)
	assert.Equal(t, 90, res.Amount)
}

func TestTracker_LandBuffUsesDefaultDuration(t *testing.T) {
	heroes := testHeroes()
	own := NewRoster(SideAttacker, testTeam("a", "cleric"), heroes)
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	caster := own.Members[0]
	res := tr.ResolveEffect(noRolls, caster, caster, SkillEffect{Kind: EffectBuff, Value: 10, Buff: BuffCritRate}, BattleContext{})

	tr.Land(caster, res, "focus")

	buffs := tr.Buffs(caster.ID)
	require.Len(t, buffs, 1)
	assert.Equal(t, defaultEffectDuration, buffs[0].RemainingDuration)
	assert.Equal(t, caster.ID, buffs[0].Source)
}

func TestTracker_LandHealClampsAtMax(t *testing.T) {
	heroes := testHeroes()
	team := testTeam("a", "cleric", "knight")
	team.Members[1].CurrentHealth = 1190
	own := NewRoster(SideAttacker, team, heroes)
	tr := NewTracker(NewCalculator(DefaultFactionTable()))
	caster, patient := own.Members[0], own.Members[1]

	res := tr.ResolveEffect(noRolls, caster, patient, SkillEffect{Kind: EffectHeal, Value: 120, Target: TargetAlly}, BattleContext{})
	_, healed := tr.Land(caster, res, "mend")

	assert.Equal(t, 108, res.Amount)
	assert.Equal(t, 10, healed)
	assert.Equal(t, patient.MaxHealth, patient.CurrentHealth)
}
