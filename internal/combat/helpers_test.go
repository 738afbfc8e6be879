package combat

// fixedSource returns the same roll every time: 0.99 never crits or dodges,
// 0.0 always does.
type fixedSource struct {
	f float64
	n int
}

func (s fixedSource) Float64() float64 { return s.f }

func (s fixedSource) Intn(n int) int {
	if s.n >= n {
		return n - 1
	}
	return s.n
}

var noRolls = fixedSource{f: 0.99}

func testSkills() []Skill {
	return []Skill{
		{ID: "cleave", Type: SkillActive, Cooldown: 6, Effects: []SkillEffect{
			{Kind: EffectDamage, Value: 150, Target: TargetEnemy},
		}},
		{ID: "mend", Type: SkillActive, Cooldown: 9, Effects: []SkillEffect{
			{Kind: EffectHeal, Value: 120, Target: TargetAlly},
			{Kind: EffectBuff, Value: 20, Target: TargetSelf, Buff: BuffAttack, Duration: 6},
		}},
		{ID: "iron_will", Type: SkillPassive, Effects: []SkillEffect{
			{Kind: EffectDefenseBoost, Value: 10},
		}},
	}
}

func testHeroes() Heroes {
	sb := NewSkillBook(testSkills())
	cleave, _ := sb.Lookup("cleave")
	mend, _ := sb.Lookup("mend")
	iron, _ := sb.Lookup("iron_will")
	return IndexHeroes([]Hero{
		{ID: "knight", Faction: FactionHuman, Level: 10, DamageType: Physical,
			Attributes: Attributes{Command: 60, Strength: 90, Strategy: 30, Defense: 60},
			MaxHealth:  1200, Skills: []Skill{cleave, iron}},
		{ID: "cleric", Faction: FactionAngel, Level: 10, DamageType: Magical,
			Attributes: Attributes{Command: 40, Strength: 20, Strategy: 90, Defense: 40},
			MaxHealth:  900, Skills: []Skill{mend}},
		{ID: "imp", Faction: FactionDemon, Level: 10, DamageType: Physical,
			Attributes: Attributes{Command: 30, Strength: 80, Strategy: 40, Defense: 30},
			MaxHealth:  800},
	})
}

func testTeam(id string, heroes ...string) Team {
	t := Team{ID: id, Name: id, Morale: 50}
	for i, h := range heroes {
		t.Members = append(t.Members, TeamMember{HeroID: h, Position: i})
	}
	return t
}
