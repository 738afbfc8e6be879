package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"battlesim/internal/combat"
	"battlesim/internal/config"
	"battlesim/internal/logger"
	"battlesim/internal/predict"
	"battlesim/internal/realtime"
	"battlesim/internal/telemetry"
	"battlesim/internal/util"
)

type driverEnv struct {
	Assets string `env:"BATTLESIM_ASSETS" envDefault:"assets"`
}

func main() {
	var de driverEnv
	if err := config.ParseEnv(&de); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var cfgDir, out, mode, attackerID, defenderID, level string
	var seed int64
	var n int
	flag.StringVar(&cfgDir, "config", de.Assets, "roster and settings dir")
	flag.StringVar(&out, "out", "out.json", "output file")
	flag.StringVar(&mode, "mode", "battle", "battle | predict | live")
	flag.StringVar(&attackerID, "attacker", "wei", "attacking team id")
	flag.StringVar(&defenderID, "defender", "wu", "defending team id")
	flag.Int64Var(&seed, "seed", 0, "seed (0 = settings seed, then random)")
	flag.IntVar(&n, "n", 0, "number of simulations in predict mode (0 = settings)")
	flag.StringVar(&level, "log", "", "log level override")
	flag.Parse()

	settings, err := config.LoadSettings(cfgDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if level != "" {
		settings.LogLevel = level
	}
	log := logger.New(settings.LogLevel)

	if seed != 0 {
		settings.Seed = seed
	}
	if settings.Seed == 0 {
		if settings.Seed, err = util.NewSeed(); err != nil {
			log.Fatal().Err(err).Msg("seed")
		}
	}
	if n > 0 {
		settings.Predict.Simulations = n
	}

	files, err := config.LoadAll(cfgDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfgDir).Msg("load roster")
	}
	roster, err := files.Build()
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfgDir).Msg("build roster")
	}
	attacker, err := roster.Team(attackerID)
	if err != nil {
		log.Fatal().Err(err).Msg("attacker")
	}
	defender, err := roster.Team(defenderID)
	if err != nil {
		log.Fatal().Err(err).Msg("defender")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := telemetry.Default()
	var result any
	switch mode {
	case "battle":
		result, err = runBattle(ctx, log, metrics, roster, attacker, defender, settings)
	case "predict":
		result, err = runPredict(ctx, log, metrics, roster, attacker, defender, settings)
	case "live":
		result, err = runLive(ctx, log, metrics, roster, attacker, defender, settings)
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", mode).Msg("simulation failed")
	}

	if err := os.WriteFile(out, combat.MarshalPretty(result), 0644); err != nil {
		log.Fatal().Err(err).Str("out", out).Msg("write result")
	}
	log.Info().Str("mode", mode).Int64("seed", settings.Seed).Str("out", filepath.Base(out)).Msg("done")
}

func runBattle(ctx context.Context, log zerolog.Logger, metrics *telemetry.Recorder, r *config.Roster, att, def combat.Team, s config.Settings) (any, error) {
	cfg, err := s.BattleConfig()
	if err != nil {
		return nil, err
	}
	e := combat.NewEngine(r.Heroes,
		combat.WithLogger(log),
		combat.WithRecorder(metrics),
		combat.WithFactions(r.Factions),
	)
	res, err := e.StartBattle(ctx, att, def, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("winner", string(res.Winner)).
		Int("rounds", len(res.Rounds)).
		Float64("win_probability", res.WinProbability).
		Msg("battle finished")
	return res, nil
}

func runPredict(ctx context.Context, log zerolog.Logger, metrics *telemetry.Recorder, r *config.Roster, att, def combat.Team, s config.Settings) (any, error) {
	cfg, err := s.PredictConfig()
	if err != nil {
		return nil, err
	}
	p := predict.New(
		predict.WithLogger(log),
		predict.WithRecorder(metrics),
		predict.WithFactions(r.Factions),
	)
	out, err := p.Predict(ctx, att, def, r.Heroes, r.Heroes, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("simulations", out.Simulations).
		Float64("attacker_win_rate", out.AttackerWinRate).
		Float64("confidence", out.Confidence).
		Msg("prediction finished")
	return out, nil
}

func runLive(ctx context.Context, log zerolog.Logger, metrics *telemetry.Recorder, r *config.Roster, att, def combat.Team, s config.Settings) (any, error) {
	cfg, err := s.RealtimeConfig()
	if err != nil {
		return nil, err
	}
	done := make(chan realtime.State, 1)
	sess := realtime.NewSession(realtime.TickerScheduler{},
		realtime.WithLogger(log),
		realtime.WithRecorder(metrics),
		realtime.WithFactions(r.Factions),
		realtime.WithListener(func(st realtime.State) {
			if !st.Active {
				select {
				case done <- st:
				default:
				}
			}
		}),
	)
	if err := sess.Start(att, def, r.Heroes, r.Heroes, cfg); err != nil {
		return nil, err
	}
	if st := sess.State(); !st.Active {
		return st, nil
	}
	select {
	case st := <-done:
		return st, nil
	case <-ctx.Done():
		if err := sess.Stop(); err != nil {
			log.Debug().Err(err).Msg("stop")
		}
		return sess.State(), nil
	}
}
