package combat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"battlesim/internal/telemetry"
	"battlesim/internal/util"
)

var (
	ErrNoActiveBattle = errors.New("no active battle")
	ErrEmptyTeam      = errors.New("team has no members")
	ErrInvalidConfig  = errors.New("invalid battle config")
)

const (
	DefaultMaxRounds       = 20
	DefaultSkillCastChance = 0.30
	DefaultRoundDuration   = 3.0
)

type Config struct {
	MaxRounds       int     `json:"max_rounds"`
	SkillCastChance float64 `json:"skill_cast_chance"`
	// RoundDuration is the time, in seconds, cooldowns and effects decay per round.
	RoundDuration float64 `json:"round_duration"`
	Seed          int64   `json:"seed"`
	Terrain       Terrain `json:"terrain"`
	// Rand overrides the seeded source.
	Rand util.Source `json:"-"`
}

func DefaultConfig() Config {
	return Config{
		MaxRounds:       DefaultMaxRounds,
		SkillCastChance: DefaultSkillCastChance,
		RoundDuration:   DefaultRoundDuration,
	}
}

func (c Config) Validate() error {
	if c.MaxRounds <= 0 {
		return fmt.Errorf("%w: max rounds %d", ErrInvalidConfig, c.MaxRounds)
	}
	if c.SkillCastChance < 0 || c.SkillCastChance > 1 {
		return fmt.Errorf("%w: skill cast chance %.2f", ErrInvalidConfig, c.SkillCastChance)
	}
	if c.RoundDuration < 0 {
		return fmt.Errorf("%w: round duration %.2f", ErrInvalidConfig, c.RoundDuration)
	}
	return nil
}

// SideTotals holds one number per side.
type SideTotals struct {
	Attacker int `json:"attacker"`
	Defender int `json:"defender"`
}

func (s *SideTotals) add(side Side, n int) {
	if side == SideAttacker {
		s.Attacker += n
	} else {
		s.Defender += n
	}
}

type RoundSummary struct {
	Number        int `json:"number"`
	EventCount    int `json:"event_count"`
	AttackerAlive int `json:"attacker_alive"`
	DefenderAlive int `json:"defender_alive"`
}

// BattleResult is built once a battle concludes. AttackerPower and
// DefenderPower are end-of-battle values; Duration is in seconds of battle
// time.
type BattleResult struct {
	ID             string         `json:"id"`
	Winner         Outcome        `json:"winner"`
	AttackerPower  float64        `json:"attacker_power"`
	DefenderPower  float64        `json:"defender_power"`
	WinProbability float64        `json:"win_probability"`
	Rounds         []RoundSummary `json:"rounds"`
	Events         []Event        `json:"events"`
	Casualties     SideTotals     `json:"casualties"`
	Damage         SideTotals     `json:"damage"`
	Duration       float64        `json:"duration"`
	Seed           int64          `json:"seed"`
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithRecorder(r *telemetry.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

func WithFactions(t FactionTable) Option {
	return func(e *Engine) { e.calc = NewCalculator(t) }
}

// Engine runs round-based battles. It is stateless between battles; every
// Battle owns its own tracker and random source.
type Engine struct {
	heroes  HeroSource
	calc    *Calculator
	log     zerolog.Logger
	metrics *telemetry.Recorder
}

func NewEngine(heroes HeroSource, opts ...Option) *Engine {
	e := &Engine{
		heroes: heroes,
		calc:   NewCalculator(DefaultFactionTable()),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Calculator() *Calculator { return e.calc }

// StartBattle plays a battle to completion.
func (e *Engine) StartBattle(ctx context.Context, attacker, defender Team, cfg Config) (BattleResult, error) {
	b, err := e.NewBattle(attacker, defender, cfg)
	if err != nil {
		return BattleResult{}, err
	}
	for !b.Done() {
		if err := ctx.Err(); err != nil {
			return BattleResult{}, err
		}
		if err := b.PlayRound(); err != nil {
			return BattleResult{}, err
		}
	}
	return b.Conclude(), nil
}

type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateConcluded
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateConcluded:
		return "concluded"
	}
	return "unknown"
}

// Battle is one round-based fight. Not safe for concurrent use.
type Battle struct {
	id       string
	engine   *Engine
	cfg      Config
	rng      util.Source
	tracker  *Tracker
	attacker *Roster
	defender *Roster

	// power at battle start; WinProbability is computed from these.
	openingPower [2]float64

	state  State
	round  int
	turn   int
	log    EventLog
	rounds []RoundSummary
	damage SideTotals
	result BattleResult
}

func (e *Engine) NewBattle(attacker, defender Team, cfg Config) (*Battle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(attacker.Members) == 0 {
		return nil, fmt.Errorf("attacker %q: %w", attacker.ID, ErrEmptyTeam)
	}
	if len(defender.Members) == 0 {
		return nil, fmt.Errorf("defender %q: %w", defender.ID, ErrEmptyTeam)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = util.New(cfg.Seed)
	}
	b := &Battle{
		id:       uuid.NewString(),
		engine:   e,
		cfg:      cfg,
		rng:      rng,
		tracker:  NewTracker(e.calc),
		attacker: NewRoster(SideAttacker, attacker, e.heroes),
		defender: NewRoster(SideDefender, defender, e.heroes),
	}
	for _, r := range []*Roster{b.attacker, b.defender} {
		for _, id := range r.Skipped {
			e.log.Debug().Str("battle", b.id).Str("side", string(r.Side)).Str("hero", id).Msg("unresolved hero skipped")
		}
	}
	b.tracker.Enroll(b.attacker, b.defender)
	b.openingPower = [2]float64{b.attacker.Power(), b.defender.Power()}
	return b, nil
}

func (b *Battle) ID() string        { return b.id }
func (b *Battle) State() State      { return b.state }
func (b *Battle) Round() int        { return b.round }
func (b *Battle) Events() []Event   { return b.log.Snapshot() }
func (b *Battle) Tracker() *Tracker { return b.tracker }
func (b *Battle) Attacker() *Roster { return b.attacker }
func (b *Battle) Defender() *Roster { return b.defender }

// Done reports whether no further round can be played.
func (b *Battle) Done() bool {
	return b.state == StateConcluded ||
		b.round >= b.cfg.MaxRounds ||
		b.attacker.AliveCount() == 0 ||
		b.defender.AliveCount() == 0
}

// PlayRound runs one round: the attacker team acts in member order, then the
// defender team. It fails with ErrNoActiveBattle once the battle is over.
func (b *Battle) PlayRound() error {
	if b.Done() {
		return fmt.Errorf("play round %d: %w", b.round+1, ErrNoActiveBattle)
	}
	b.state = StateInProgress
	b.round++
	for _, side := range []*Roster{b.attacker, b.defender} {
		opp := b.opponentOf(side)
		for _, c := range side.Members {
			if !c.Alive() {
				continue
			}
			if opp.AliveCount() == 0 {
				break
			}
			b.act(c, side, opp)
		}
	}
	b.tracker.Advance(b.cfg.RoundDuration)
	b.rounds = append(b.rounds, RoundSummary{
		Number:        b.round,
		EventCount:    b.log.Len(),
		AttackerAlive: b.attacker.AliveCount(),
		DefenderAlive: b.defender.AliveCount(),
	})
	if b.Done() {
		b.finish()
	}
	return nil
}

// Conclude ends the battle at its current round if needed and returns the
// result. It is idempotent.
func (b *Battle) Conclude() BattleResult {
	if b.state != StateConcluded {
		b.finish()
	}
	return b.result
}

func (b *Battle) opponentOf(r *Roster) *Roster {
	if r == b.attacker {
		return b.defender
	}
	return b.attacker
}

func (b *Battle) act(c *Combatant, own, opp *Roster) {
	b.turn++
	ctx := b.cfg.Terrain.Context(b.round, b.turn, c.HealthPercent())
	cast := util.Chance(b.rng, b.cfg.SkillCastChance)
	if sk, ok := c.Hero.ActiveSkill(); ok && cast && b.tracker.IsReady(c.ID, sk.ID) {
		if b.castSkill(c, sk, own, opp, ctx) {
			return
		}
	}
	b.basicAttack(c, opp, ctx)
}

func (b *Battle) basicAttack(c *Combatant, opp *Roster, ctx BattleContext) {
	target := opp.RandomAlive(b.rng)
	if target == nil {
		return
	}
	hit := b.tracker.Strike(b.rng, c, target, 1, ctx)
	b.record(EventAttack, c, target, "", hit)
}

// castSkill reports false when no effect found a target, leaving the action
// to a basic attack.
func (b *Battle) castSkill(c *Combatant, sk Skill, own, opp *Roster, ctx BattleContext) bool {
	var targeted []TargetedEffect
	for _, ef := range sk.Effects {
		targets := selectTargets(c, ef, own, opp)
		if len(targets) == 0 {
			continue
		}
		targeted = append(targeted, TargetedEffect{Effect: ef, Targets: targets})
	}
	if len(targeted) == 0 {
		return false
	}
	if err := b.tracker.Cast(c.ID, sk); err != nil {
		return false
	}
	for _, r := range b.tracker.ResolveSkill(b.rng, c, targeted, ctx) {
		hit, healed := b.tracker.Land(c, r, sk.ID)
		switch r.Effect.Kind {
		case EffectDamage:
			b.record(EventSkill, c, r.Target, sk.ID, hit)
		case EffectHeal:
			b.emit(Event{Type: EventHeal, Side: c.Side, Actor: c.ID, Target: r.Target.ID, SkillID: sk.ID,
				Heal: healed, Critical: r.Heal.Critical, TargetHealth: r.Target.CurrentHealth})
		case EffectShield:
			b.emit(Event{Type: EventShield, Side: c.Side, Actor: c.ID, Target: r.Target.ID, SkillID: sk.ID,
				Value: float64(r.Amount), TargetHealth: r.Target.CurrentHealth})
		case EffectBuff:
			b.emit(Event{Type: EventBuff, Side: c.Side, Actor: c.ID, Target: r.Target.ID, SkillID: sk.ID,
				Value: r.Value, TargetHealth: r.Target.CurrentHealth})
		case EffectDebuff:
			b.emit(Event{Type: EventDebuff, Side: c.Side, Actor: c.ID, Target: r.Target.ID, SkillID: sk.ID,
				Value: r.Value, TargetHealth: r.Target.CurrentHealth})
		}
	}
	return true
}

// selectTargets: area effects (enemy/all) hit every living opponent, other
// offensive effects the first living opponent. Supportive effects land on
// the caster, the first living ally, or the whole living team.
func selectTargets(c *Combatant, ef SkillEffect, own, opp *Roster) []*Combatant {
	if ef.Kind.Attribute() {
		return nil
	}
	if ef.Kind.Offensive() {
		switch ef.Target {
		case TargetEnemy, TargetAll:
			return opp.Alive()
		default:
			if t := opp.FirstAlive(); t != nil {
				return []*Combatant{t}
			}
			return nil
		}
	}
	// Supportive effects stay on the caster's side: "all" means the whole
	// living own team, not the opponents.
	switch ef.Target {
	case TargetSelf:
		return []*Combatant{c}
	case TargetAlly:
		if t := own.FirstAlive(); t != nil {
			return []*Combatant{t}
		}
		return nil
	case TargetAll:
		return own.Alive()
	default:
		return opp.Alive()
	}
}

func (b *Battle) record(typ EventType, actor, target *Combatant, skillID string, hit Hit) {
	b.damage.add(actor.Side, hit.Dealt)
	b.emit(Event{
		Type:         typ,
		Side:         actor.Side,
		Actor:        actor.ID,
		Target:       target.ID,
		SkillID:      skillID,
		Damage:       hit.Damage.FinalDamage,
		Critical:     hit.Damage.Critical,
		Dodged:       hit.Damage.Dodged,
		TargetHealth: target.CurrentHealth,
	})
	if hit.Killed {
		b.emit(Event{Type: EventDeath, Side: target.Side, Actor: actor.ID, Target: target.ID})
	}
}

func (b *Battle) emit(ev Event) {
	ev.Round = b.round
	b.log.Append(ev)
}

func (b *Battle) finish() {
	b.state = StateConcluded
	pa, pd := b.attacker.Power(), b.defender.Power()
	b.result = BattleResult{
		ID:             b.id,
		Winner:         DecideWinner(b.attacker, b.defender),
		AttackerPower:  pa,
		DefenderPower:  pd,
		WinProbability: WinProbability(b.openingPower[0], b.openingPower[1], b.attacker.Morale, b.defender.Morale),
		Rounds:         append([]RoundSummary(nil), b.rounds...),
		Events:         b.log.Snapshot(),
		Casualties: SideTotals{
			Attacker: b.attacker.Casualties(),
			Defender: b.defender.Casualties(),
		},
		Damage:   b.damage,
		Duration: float64(b.round) * b.cfg.RoundDuration,
		Seed:     b.cfg.Seed,
	}
	b.engine.log.Debug().
		Str("battle", b.id).
		Str("winner", string(b.result.Winner)).
		Int("rounds", b.round).
		Int("events", len(b.result.Events)).
		Float64("win_probability", b.result.WinProbability).
		Msg("battle concluded")
	b.engine.metrics.BattleConcluded(context.Background(), string(b.result.Winner), b.round)
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
