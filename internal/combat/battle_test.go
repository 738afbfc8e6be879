package combat

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed int64) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	return cfg
}

func TestStartBattle_Terminates(t *testing.T) {
	e := NewEngine(testHeroes())
	att := testTeam("red", "knight", "cleric", "imp")
	def := testTeam("blue", "imp", "knight", "cleric")

	for seed := int64(1); seed <= 20; seed++ {
		res, err := e.StartBattle(context.Background(), att, def, seeded(seed))
		require.NoError(t, err)

		assert.LessOrEqual(t, len(res.Rounds), DefaultMaxRounds)
		assert.Contains(t, []Outcome{OutcomeAttacker, OutcomeDefender, OutcomeDraw}, res.Winner)
		assert.GreaterOrEqual(t, res.WinProbability, 0.05)
		assert.LessOrEqual(t, res.WinProbability, 0.95)
		assert.Equal(t, float64(len(res.Rounds))*DefaultRoundDuration, res.Duration)

		prev := 0
		for i, r := range res.Rounds {
			assert.Equal(t, i+1, r.Number)
			assert.GreaterOrEqual(t, r.EventCount, prev)
			prev = r.EventCount
		}
		assert.Equal(t, len(res.Events), prev)
	}
}

func TestStartBattle_SameSeedSameEvents(t *testing.T) {
	att := testTeam("red", "knight", "cleric")
	def := testTeam("blue", "imp", "imp")

	first, err := NewEngine(testHeroes()).StartBattle(context.Background(), att, def, seeded(42))
	require.NoError(t, err)
	second, err := NewEngine(testHeroes()).StartBattle(context.Background(), att, def, seeded(42))
	require.NoError(t, err)

	if diff := cmp.Diff(first.Events, second.Events); diff != "" {
		t.Fatalf("event logs differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Winner, second.Winner)
	assert.Equal(t, first.Damage, second.Damage)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStartBattle_DeathEventsOncePerCasualty(t *testing.T) {
	e := NewEngine(testHeroes())
	res, err := e.StartBattle(context.Background(),
		testTeam("red", "knight", "knight"), testTeam("blue", "imp", "cleric"), seeded(7))
	require.NoError(t, err)

	deaths := map[string]int{}
	for _, ev := range res.Events {
		if ev.Type == EventDeath {
			deaths[ev.Target]++
		}
	}
	for id, n := range deaths {
		assert.Equal(t, 1, n, id)
	}
	assert.Equal(t, res.Casualties.Attacker+res.Casualties.Defender, len(deaths))
}

func TestStartBattle_EventSeqContiguous(t *testing.T) {
	e := NewEngine(testHeroes())
	res, err := e.StartBattle(context.Background(),
		testTeam("red", "cleric"), testTeam("blue", "knight"), seeded(3))
	require.NoError(t, err)

	for i, ev := range res.Events {
		assert.Equal(t, i, ev.Seq)
		assert.GreaterOrEqual(t, ev.TargetHealth, 0)
	}
}

func TestStartBattle_DoesNotMutateInputs(t *testing.T) {
	heroes := testHeroes()
	banner := func() Team {
		tm := testTeam("red", "knight", "cleric")
		tm.Members[0].Buffs = []Buff{{ID: "banner", Kind: BuffAttack, Value: 10, RemainingDuration: 4}}
		return tm
	}
	att := banner()
	def := testTeam("blue", "imp")
	heroesBefore := heroes["knight"]

	_, err := NewEngine(heroes).StartBattle(context.Background(), att, def, seeded(11))
	require.NoError(t, err)

	if diff := cmp.Diff(banner(), att); diff != "" {
		t.Fatalf("team mutated:\n%s", diff)
	}
	if diff := cmp.Diff(heroesBefore, heroes["knight"]); diff != "" {
		t.Fatalf("hero mutated:\n%s", diff)
	}
}

func TestNewBattle_SkipsUnresolvedHeroes(t *testing.T) {
	e := NewEngine(testHeroes())
	b, err := e.NewBattle(testTeam("red", "knight", "ghost"), testTeam("blue", "imp"), seeded(5))
	require.NoError(t, err)

	assert.Len(t, b.Attacker().Members, 1)
	assert.Equal(t, []string{"ghost"}, b.Attacker().Skipped)

	res, err := e.StartBattle(context.Background(), testTeam("red", "knight", "ghost"), testTeam("blue", "imp"), seeded(5))
	require.NoError(t, err)
	for _, ev := range res.Events {
		assert.False(t, strings.Contains(ev.Actor, "ghost"))
		assert.False(t, strings.Contains(ev.Target, "ghost"))
	}
}

func TestNewBattle_Rejects(t *testing.T) {
	e := NewEngine(testHeroes())

	_, err := e.NewBattle(Team{ID: "empty"}, testTeam("blue", "imp"), seeded(1))
	assert.ErrorIs(t, err, ErrEmptyTeam)

	cfg := seeded(1)
	cfg.MaxRounds = 0
	_, err = e.NewBattle(testTeam("red", "imp"), testTeam("blue", "imp"), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = seeded(1)
	cfg.SkillCastChance = 1.5
	_, err = e.NewBattle(testTeam("red", "imp"), testTeam("blue", "imp"), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBattle_AllSkippedEndsImmediately(t *testing.T) {
	e := NewEngine(testHeroes())
	b, err := e.NewBattle(testTeam("red", "ghost"), testTeam("blue", "imp"), seeded(1))
	require.NoError(t, err)

	assert.True(t, b.Done())
	res := b.Conclude()
	assert.Equal(t, OutcomeDefender, res.Winner)
	assert.Empty(t, res.Events)
}

func TestBattle_PlayRoundAfterConclusion(t *testing.T) {
	e := NewEngine(testHeroes())
	b, err := e.NewBattle(testTeam("red", "knight"), testTeam("blue", "imp"), seeded(9))
	require.NoError(t, err)
	assert.Equal(t, StateNotStarted, b.State())

	require.NoError(t, b.PlayRound())
	assert.Equal(t, 1, b.Round())

	first := b.Conclude()
	assert.Equal(t, StateConcluded, b.State())
	assert.ErrorIs(t, b.PlayRound(), ErrNoActiveBattle)
	assert.Equal(t, first, b.Conclude())
}

func TestBattle_SkillCastGoesOnCooldown(t *testing.T) {
	e := NewEngine(testHeroes())
	cfg := seeded(13)
	cfg.SkillCastChance = 1
	cfg.RoundDuration = 1
	b, err := e.NewBattle(testTeam("red", "knight"), testTeam("blue", "cleric"), cfg)
	require.NoError(t, err)

	require.NoError(t, b.PlayRound())
	events := b.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, EventSkill, events[0].Type)
	assert.Equal(t, "cleave", events[0].SkillID)
	knight := b.Attacker().Members[0]
	assert.False(t, b.Tracker().IsReady(knight.ID, "cleave"))

	require.NoError(t, b.PlayRound())
	for _, ev := range b.Events()[len(events):] {
		if ev.Actor == knight.ID && ev.Type != EventDeath {
			assert.Equal(t, EventAttack, ev.Type, "cleave still cooling down")
		}
	}
}

func TestBattle_SupportSkillTargetsOwnSide(t *testing.T) {
	e := NewEngine(testHeroes())
	cfg := seeded(21)
	cfg.SkillCastChance = 1
	b, err := e.NewBattle(testTeam("red", "cleric", "knight"), testTeam("blue", "imp"), cfg)
	require.NoError(t, err)

	require.NoError(t, b.PlayRound())
	cleric := b.Attacker().Members[0]
	var sawHeal, sawBuff bool
	for _, ev := range b.Events() {
		if ev.Actor != cleric.ID {
			continue
		}
		switch ev.Type {
		case EventHeal:
			sawHeal = true
			assert.Equal(t, cleric.ID, ev.Target, "first living ally is the caster")
		case EventBuff:
			sawBuff = true
			assert.Equal(t, cleric.ID, ev.Target)
		}
	}
	assert.True(t, sawHeal)
	assert.True(t, sawBuff)
	assert.NotEmpty(t, b.Tracker().Buffs(cleric.ID))
}

func TestBattle_SkillWithoutTargetsFallsBackToAttack(t *testing.T) {
	h := testHeroes()
	h["herald"] = Hero{ID: "herald", Faction: FactionHuman, Level: 10, DamageType: Physical,
		Attributes: Attributes{Command: 50, Strength: 70, Strategy: 40, Defense: 50}, MaxHealth: 1000,
		Skills: []Skill{{ID: "war_cry", Type: SkillActive, Cooldown: 10, Effects: []SkillEffect{
			{Kind: EffectStrengthBoost, Value: 20},
		}}}}
	e := NewEngine(h)
	cfg := seeded(4)
	cfg.SkillCastChance = 1
	cfg.Rand = noRolls
	b, err := e.NewBattle(testTeam("red", "herald"), testTeam("blue", "imp"), cfg)
	require.NoError(t, err)

	require.NoError(t, b.PlayRound())
	herald := b.Attacker().Members[0]
	var own []Event
	for _, ev := range b.Events() {
		assert.NotEqual(t, EventSkill, ev.Type)
		if ev.Actor == herald.ID {
			own = append(own, ev)
		}
	}
	require.NotEmpty(t, own)
	assert.Equal(t, EventAttack, own[0].Type)
	assert.True(t, b.Tracker().IsReady(herald.ID, "war_cry"), "no cooldown without a cast")
}

func TestBattle_ScriptedSourceNeverDodgesOrCrits(t *testing.T) {
	e := NewEngine(testHeroes())
	cfg := seeded(0)
	cfg.Rand = noRolls
	res, err := e.StartBattle(context.Background(), testTeam("red", "imp"), testTeam("blue", "imp"), cfg)
	require.NoError(t, err)

	for _, ev := range res.Events {
		assert.False(t, ev.Dodged)
		assert.False(t, ev.Critical)
	}
	// 200 attribute damage less 18% defense is 164 per hit; the attacker
	// lands the fifth hit first.
	assert.Equal(t, OutcomeAttacker, res.Winner)
	assert.Len(t, res.Rounds, 5)
	assert.Equal(t, 800, res.Damage.Attacker)
	assert.Equal(t, 4*164, res.Damage.Defender)
}

func TestStartBattle_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(testHeroes()).StartBattle(ctx, testTeam("red", "imp"), testTeam("blue", "imp"), seeded(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMarshalPretty(t *testing.T) {
	out := MarshalPretty(Event{Type: EventAttack, Damage: 12})
	assert.Contains(t, string(out), `"dmg": 12`)
}

func TestBattleResult_WinProbabilityUsesOpeningPower(t *testing.T) {
	res, err := NewEngine(testHeroes()).StartBattle(context.Background(),
		testTeam("red", "knight"), testTeam("blue", "imp"), seeded(17))
	require.NoError(t, err)

	// knight 90*1.5 + 30*1.3 + 60 = 234, imp 80*1.5 + 40*1.3 + 30 = 202
	assert.InDelta(t, 234.0/436.0, res.WinProbability, 1e-9)
	if res.Winner == OutcomeAttacker {
		assert.Zero(t, res.DefenderPower)
	}
}
