// Package realtime drives a single pausable battle one exchange per tick.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"battlesim/internal/combat"
	"battlesim/internal/telemetry"
	"battlesim/internal/util"
)

var (
	ErrBattleInProgress = errors.New("real-time battle already in progress")
	ErrNoActiveBattle   = combat.ErrNoActiveBattle
)

const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultMaxTicks     = 1200
	DefaultTickDuration = 0.1
)

type Config struct {
	TickInterval time.Duration `json:"tick_interval"`
	MaxTicks     int           `json:"max_ticks"`
	// TickDuration is the battle time, in seconds, one tick advances trackers.
	TickDuration float64 `json:"tick_duration"`
	// RoundDuration groups ticks into rounds for round-based conditions.
	RoundDuration float64        `json:"round_duration"`
	Seed          int64          `json:"seed"`
	Terrain       combat.Terrain `json:"terrain"`
	Rand          util.Source    `json:"-"`
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  DefaultTickInterval,
		MaxTicks:      DefaultMaxTicks,
		TickDuration:  DefaultTickDuration,
		RoundDuration: combat.DefaultRoundDuration,
	}
}

func (c Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tick interval %s", combat.ErrInvalidConfig, c.TickInterval)
	case c.MaxTicks <= 0:
		return fmt.Errorf("%w: max ticks %d", combat.ErrInvalidConfig, c.MaxTicks)
	case c.TickDuration < 0:
		return fmt.Errorf("%w: tick duration %.2f", combat.ErrInvalidConfig, c.TickDuration)
	case c.RoundDuration < 0:
		return fmt.Errorf("%w: round duration %.2f", combat.ErrInvalidConfig, c.RoundDuration)
	}
	return nil
}

// roundAt maps a 1-based tick to its round. A zero RoundDuration falls back
// to the round-based default.
func (c Config) roundAt(tick int) int {
	rd := c.RoundDuration
	if rd <= 0 {
		rd = combat.DefaultRoundDuration
	}
	elapsed := float64(tick-1) * c.TickDuration
	return 1 + int(elapsed/rd)
}

type MemberState struct {
	ID            string `json:"id"`
	HeroID        string `json:"hero_id"`
	CurrentHealth int    `json:"current_health"`
	MaxHealth     int    `json:"max_health"`
}

// State is a copy of the session taken under its lock.
type State struct {
	SessionID string         `json:"session_id"`
	BattleID  string         `json:"battle_id,omitempty"`
	Active    bool           `json:"active"`
	Paused    bool           `json:"paused"`
	Tick      int            `json:"tick"`
	Winner    combat.Outcome `json:"winner,omitempty"`
	Attacker  []MemberState  `json:"attacker"`
	Defender  []MemberState  `json:"defender"`
	Events    []combat.Event `json:"events"`
}

type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithRecorder(r *telemetry.Recorder) Option {
	return func(s *Session) { s.metrics = r }
}

func WithFactions(t combat.FactionTable) Option {
	return func(s *Session) { s.calc = combat.NewCalculator(t) }
}

// WithListener registers fn to receive a snapshot after every tick that did
// work. fn runs outside the session lock and may call back into the session.
func WithListener(fn func(State)) Option {
	return func(s *Session) { s.listener = fn }
}

// Session holds at most one active real-time battle. Ticks and control calls
// are serialised by mu.
type Session struct {
	id       string
	sched    Scheduler
	calc     *combat.Calculator
	log      zerolog.Logger
	metrics  *telemetry.Recorder
	listener func(State)

	mu       sync.Mutex
	active   bool
	paused   bool
	battleID string
	cfg      Config
	rng      util.Source
	tracker  *combat.Tracker
	attacker *combat.Roster
	defender *combat.Roster
	tick     int
	events   combat.EventLog
	winner   combat.Outcome
	cancel   func()
}

func NewSession(sched Scheduler, opts ...Option) *Session {
	s := &Session{
		id:    uuid.NewString(),
		sched: sched,
		calc:  combat.NewCalculator(combat.DefaultFactionTable()),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Start clones both teams and schedules ticks.
func (s *Session) Start(attacker, defender combat.Team, heroesA, heroesB combat.HeroSource, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(attacker.Members) == 0 {
		return fmt.Errorf("attacker %q: %w", attacker.ID, combat.ErrEmptyTeam)
	}
	if len(defender.Members) == 0 {
		return fmt.Errorf("defender %q: %w", defender.ID, combat.ErrEmptyTeam)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return fmt.Errorf("start %s: %w", s.battleID, ErrBattleInProgress)
	}

	rng := cfg.Rand
	if rng == nil {
		rng = util.New(cfg.Seed)
	}
	s.cfg = cfg
	s.rng = rng
	s.battleID = uuid.NewString()
	s.tracker = combat.NewTracker(s.calc)
	s.attacker = combat.NewRoster(combat.SideAttacker, attacker, heroesA)
	s.defender = combat.NewRoster(combat.SideDefender, defender, heroesB)
	s.tracker.Enroll(s.attacker, s.defender)
	s.tick = 0
	s.events = combat.EventLog{}
	s.winner = ""
	s.paused = false
	s.active = true

	s.log.Info().
		Str("session", s.id).
		Str("battle", s.battleID).
		Int("attackers", len(s.attacker.Members)).
		Int("defenders", len(s.defender.Members)).
		Msg("real-time battle started")

	if s.attacker.AliveCount() == 0 || s.defender.AliveCount() == 0 {
		s.endLocked()
		return nil
	}
	battleID := s.battleID
	s.cancel = s.sched.Schedule(cfg.TickInterval, func() { s.scheduledTick(battleID) })
	return nil
}

// scheduledTick belongs to the battle it was scheduled for. A tick that was
// already waiting on the lock when that battle stopped must not step the
// next one.
func (s *Session) scheduledTick(battleID string) {
	if err := s.tickBattle(battleID); err != nil {
		s.log.Debug().Err(err).Str("session", s.id).Str("battle", battleID).Msg("scheduled tick skipped")
	}
}

var errStaleTick = errors.New("tick scheduled for an earlier battle")

// Tick performs one exchange. A paused session returns nil without doing
// anything.
func (s *Session) Tick() error {
	return s.tickBattle("")
}

// tickBattle steps the active battle; a non-empty battleID must match it.
func (s *Session) tickBattle(battleID string) error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return fmt.Errorf("tick: %w", ErrNoActiveBattle)
	}
	if battleID != "" && battleID != s.battleID {
		s.mu.Unlock()
		return errStaleTick
	}
	if s.paused {
		s.mu.Unlock()
		return nil
	}
	s.stepLocked()
	snap := s.snapshotLocked()
	listener := s.listener
	s.mu.Unlock()

	s.metrics.Tick(context.Background())
	if listener != nil {
		listener(snap)
	}
	return nil
}

func (s *Session) stepLocked() {
	a := s.attacker.RandomAlive(s.rng)
	d := s.defender.RandomAlive(s.rng)
	if a == nil || d == nil {
		s.endLocked()
		return
	}
	striker, target := a, d
	if util.Pick(s.rng, 2) == 1 {
		striker, target = d, a
	}

	s.tick++
	round := s.cfg.roundAt(s.tick)
	ctx := s.cfg.Terrain.Context(round, s.tick, striker.HealthPercent())
	hit := s.tracker.Strike(s.rng, striker, target, 1, ctx)

	s.events.Append(combat.Event{
		Tick:         s.tick,
		Type:         combat.EventTick,
		Side:         striker.Side,
		Actor:        striker.ID,
		Target:       target.ID,
		Damage:       hit.Damage.FinalDamage,
		Critical:     hit.Damage.Critical,
		Dodged:       hit.Damage.Dodged,
		TargetHealth: target.CurrentHealth,
	})
	if hit.Killed {
		s.events.Append(combat.Event{Tick: s.tick, Type: combat.EventDeath, Side: target.Side, Actor: striker.ID, Target: target.ID})
	}
	s.tracker.Advance(s.cfg.TickDuration)

	if s.attacker.AliveCount() == 0 || s.defender.AliveCount() == 0 || s.tick >= s.cfg.MaxTicks {
		s.endLocked()
	}
}

func (s *Session) endLocked() {
	s.winner = combat.DecideWinner(s.attacker, s.defender)
	s.stopLocked()
	s.log.Info().
		Str("session", s.id).
		Str("battle", s.battleID).
		Str("winner", string(s.winner)).
		Int("ticks", s.tick).
		Msg("real-time battle ended")
}

func (s *Session) stopLocked() {
	s.active = false
	s.paused = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return fmt.Errorf("pause: %w", ErrNoActiveBattle)
	}
	s.paused = true
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return fmt.Errorf("resume: %w", ErrNoActiveBattle)
	}
	s.paused = false
	return nil
}

// Stop cancels the tick source and marks the session inactive without
// declaring a winner.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return fmt.Errorf("stop: %w", ErrNoActiveBattle)
	}
	s.stopLocked()
	s.log.Info().Str("session", s.id).Str("battle", s.battleID).Int("ticks", s.tick).Msg("real-time battle stopped")
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// EventsSince returns events with Seq >= seq.
func (s *Session) EventsSince(seq int) []combat.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.events.Snapshot()
	if seq < 0 {
		seq = 0
	}
	if seq >= len(all) {
		return nil
	}
	return all[seq:]
}

func (s *Session) snapshotLocked() State {
	return State{
		SessionID: s.id,
		BattleID:  s.battleID,
		Active:    s.active,
		Paused:    s.paused,
		Tick:      s.tick,
		Winner:    s.winner,
		Attacker:  members(s.attacker),
		Defender:  members(s.defender),
		Events:    s.events.Snapshot(),
	}
}

func members(r *combat.Roster) []MemberState {
	if r == nil {
		return nil
	}
	out := make([]MemberState, 0, len(r.Members))
	for _, c := range r.Members {
		out = append(out, MemberState{ID: c.ID, HeroID: c.HeroID, CurrentHealth: c.CurrentHealth, MaxHealth: c.MaxHealth})
	}
	return out
}
