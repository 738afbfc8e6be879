// Package predict estimates battle outcomes by running many independent,
// seeded trials concurrently and aggregating their results.
package predict

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"battlesim/internal/combat"
	"battlesim/internal/telemetry"
	"battlesim/internal/util"
)

const DefaultSimulationCount = 100

type Config struct {
	SimulationCount int `json:"simulation_count"`
	// Variance jitters every attribute by a factor in [1-v, 1+v] per trial.
	Variance float64 `json:"variance"`
	// Workers bounds concurrent trials; 0 means GOMAXPROCS.
	Workers       int            `json:"workers"`
	Seed          int64          `json:"seed"`
	MaxRounds     int            `json:"max_rounds"`
	RoundDuration float64        `json:"round_duration"`
	Terrain       combat.Terrain `json:"terrain"`
}

func DefaultConfig() Config {
	return Config{
		SimulationCount: DefaultSimulationCount,
		MaxRounds:       combat.DefaultMaxRounds,
		RoundDuration:   combat.DefaultRoundDuration,
	}
}

func (c Config) withDefaults() Config {
	if c.SimulationCount == 0 {
		c.SimulationCount = DefaultSimulationCount
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = combat.DefaultMaxRounds
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.SimulationCount < 0:
		return fmt.Errorf("%w: simulation count %d", combat.ErrInvalidConfig, c.SimulationCount)
	case c.Variance < 0 || c.Variance >= 1:
		return fmt.Errorf("%w: variance %.2f", combat.ErrInvalidConfig, c.Variance)
	case c.MaxRounds < 0:
		return fmt.Errorf("%w: max rounds %d", combat.ErrInvalidConfig, c.MaxRounds)
	case c.RoundDuration < 0:
		return fmt.Errorf("%w: round duration %.2f", combat.ErrInvalidConfig, c.RoundDuration)
	}
	return nil
}

type SideAverages struct {
	Attacker float64 `json:"attacker"`
	Defender float64 `json:"defender"`
}

type PredictedOutcome struct {
	// Rates are percentages.
	AttackerWinRate   float64      `json:"attacker_win_rate"`
	DefenderWinRate   float64      `json:"defender_win_rate"`
	DrawRate          float64      `json:"draw_rate"`
	AverageRounds     float64      `json:"average_rounds"`
	AverageDamage     SideAverages `json:"average_damage"`
	AverageCasualties SideAverages `json:"average_casualties"`
	Confidence        float64      `json:"confidence"`
	Simulations       int          `json:"simulations"`
	Seed              int64        `json:"seed"`
}

// Confidence steps with the sample size.
func Confidence(simulations int) float64 {
	switch {
	case simulations >= 1000:
		return 95
	case simulations >= 500:
		return 90
	case simulations >= 100:
		return 80
	case simulations >= 50:
		return 70
	default:
		return 60
	}
}

type Option func(*Predictor)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Predictor) { p.log = l }
}

func WithRecorder(r *telemetry.Recorder) Option {
	return func(p *Predictor) { p.metrics = r }
}

func WithFactions(t combat.FactionTable) Option {
	return func(p *Predictor) { p.calc = combat.NewCalculator(t) }
}

// Predictor is safe for concurrent use; it keeps no per-prediction state.
type Predictor struct {
	calc    *combat.Calculator
	log     zerolog.Logger
	metrics *telemetry.Recorder
}

func New(opts ...Option) *Predictor {
	p := &Predictor{
		calc: combat.NewCalculator(combat.DefaultFactionTable()),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type trialResult struct {
	winner     combat.Outcome
	rounds     int
	damage     [2]int
	casualties [2]int
}

// Predict runs cfg.SimulationCount trials of attacker against defender.
// Results are reproducible for a given seed regardless of worker count.
func (p *Predictor) Predict(ctx context.Context, attacker, defender combat.Team, heroesA, heroesB combat.HeroSource, cfg Config) (PredictedOutcome, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return PredictedOutcome{}, err
	}
	if len(attacker.Members) == 0 {
		return PredictedOutcome{}, fmt.Errorf("attacker %q: %w", attacker.ID, combat.ErrEmptyTeam)
	}
	if len(defender.Members) == 0 {
		return PredictedOutcome{}, fmt.Errorf("defender %q: %w", defender.ID, combat.ErrEmptyTeam)
	}

	results := make([]trialResult, cfg.SimulationCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range results {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.trial(i, attacker, defender, heroesA, heroesB, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PredictedOutcome{}, fmt.Errorf("predict: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return PredictedOutcome{}, fmt.Errorf("predict: %w", err)
	}

	out := aggregate(results)
	out.Seed = cfg.Seed
	p.metrics.TrialsRun(ctx, len(results))
	p.metrics.PredictionCompleted(ctx)
	p.log.Debug().
		Int("simulations", out.Simulations).
		Float64("attacker_win_rate", out.AttackerWinRate).
		Float64("defender_win_rate", out.DefenderWinRate).
		Float64("draw_rate", out.DrawRate).
		Msg("prediction complete")
	return out, nil
}

// trial plays one battle on fresh rosters. Every alive member attacks a
// uniformly random opponent each round; the side moving first alternates
// with the trial index.
func (p *Predictor) trial(i int, attacker, defender combat.Team, heroesA, heroesB combat.HeroSource, cfg Config) trialResult {
	rng := util.New(util.TrialSeed(cfg.Seed, i))
	att := combat.NewRoster(combat.SideAttacker, attacker, heroesA)
	def := combat.NewRoster(combat.SideDefender, defender, heroesB)
	att.Jitter(rng, cfg.Variance)
	def.Jitter(rng, cfg.Variance)

	tr := combat.NewTracker(p.calc)
	tr.Enroll(att, def)

	order := [2]*combat.Roster{att, def}
	if i%2 == 1 {
		order = [2]*combat.Roster{def, att}
	}

	var res trialResult
	turn := 0
	for res.rounds < cfg.MaxRounds && att.AliveCount() > 0 && def.AliveCount() > 0 {
		res.rounds++
		for k, side := range order {
			opp := order[1-k]
			for _, c := range side.Members {
				if !c.Alive() {
					continue
				}
				target := opp.RandomAlive(rng)
				if target == nil {
					break
				}
				turn++
				hit := tr.Strike(rng, c, target, 1, cfg.Terrain.Context(res.rounds, turn, c.HealthPercent()))
				res.damage[sideIndex(c.Side)] += hit.Dealt
			}
		}
		tr.Advance(cfg.RoundDuration)
	}
	res.winner = combat.DecideWinner(att, def)
	res.casualties = [2]int{att.Casualties(), def.Casualties()}
	return res
}

func sideIndex(s combat.Side) int {
	if s == combat.SideAttacker {
		return 0
	}
	return 1
}

func aggregate(results []trialResult) PredictedOutcome {
	n := len(results)
	out := PredictedOutcome{Simulations: n, Confidence: Confidence(n)}
	if n == 0 {
		return out
	}
	var wins [3]int
	var rounds, dmgA, dmgD, casA, casD int
	for _, r := range results {
		switch r.winner {
		case combat.OutcomeAttacker:
			wins[0]++
		case combat.OutcomeDefender:
			wins[1]++
		default:
			wins[2]++
		}
		rounds += r.rounds
		dmgA += r.damage[0]
		dmgD += r.damage[1]
		casA += r.casualties[0]
		casD += r.casualties[1]
	}
	f := float64(n)
	out.AttackerWinRate = float64(wins[0]) / f * 100
	out.DefenderWinRate = float64(wins[1]) / f * 100
	out.DrawRate = float64(wins[2]) / f * 100
	out.AverageRounds = float64(rounds) / f
	out.AverageDamage = SideAverages{Attacker: float64(dmgA) / f, Defender: float64(dmgD) / f}
	out.AverageCasualties = SideAverages{Attacker: float64(casA) / f, Defender: float64(casD) / f}
	return out
}
