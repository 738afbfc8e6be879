package combat

// PassiveModifiers sums the attribute boosts of a hero's passive and talent
// skills whose conditions apply in ctx. The result is meant for one action:
// apply it to a copy of the base attributes, never to the hero.
func PassiveModifiers(hero Hero, ctx BattleContext) AttributeModifier {
	mod := NeutralModifier()
	for _, sk := range hero.Skills {
		if sk.Type != SkillPassive && sk.Type != SkillTalent {
			continue
		}
		for _, ef := range sk.Effects {
			if !ef.Kind.Attribute() || !ef.Condition.Applies(ctx) {
				continue
			}
			delta := ef.Value / 100
			switch ef.Kind {
			case EffectCommandBoost:
				mod.Command += delta
			case EffectStrengthBoost:
				mod.Strength += delta
			case EffectStrategyBoost:
				mod.Strategy += delta
			case EffectDefenseBoost:
				mod.Defense += delta
			}
		}
	}
	return mod
}
